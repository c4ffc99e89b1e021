package runner

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// RunMetadataFile is the per-run manifest written next to the exports.
const RunMetadataFile = "run.json"

func writeRunMetadata(outputPath string, run *Run) error {
	metadata := map[string]any{
		"id":        run.ID,
		"set":       run.Set,
		"model":     run.Model,
		"timestamp": run.Timestamp,
		"duration":  run.Duration.Seconds(),
		"executed":  run.Executed,
		"skipped":   run.Skipped,
		"failed":    run.Failed,
		"csv_file":  filepath.Base(run.CSVFile),
		"json_file": filepath.Base(run.JSONFile),
	}

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(outputPath, RunMetadataFile), data, 0o644)
}
