// Package runner orchestrates the variant-by-case evaluation pipeline.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/giantswarm/prompt-lab/internal/llm"
	"github.com/giantswarm/prompt-lab/internal/promptset"
	"github.com/giantswarm/prompt-lab/internal/render"
	"github.com/giantswarm/prompt-lab/internal/results"
	"github.com/giantswarm/prompt-lab/internal/scorer"
)

// ErrorPolicy decides what happens when a generation call fails.
type ErrorPolicy string

const (
	// ErrorPolicyRecord logs the failure and records the pair with empty
	// output and zero scores, so the run still yields partial exports.
	ErrorPolicyRecord ErrorPolicy = "record"
	// ErrorPolicyAbort stops the run on the first generation failure.
	ErrorPolicyAbort ErrorPolicy = "abort"
)

// ParseErrorPolicy validates an --on-error flag value.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch ErrorPolicy(s) {
	case ErrorPolicyRecord, ErrorPolicyAbort:
		return ErrorPolicy(s), nil
	default:
		return "", fmt.Errorf("unsupported error policy: %s (supported: record, abort)", s)
	}
}

// Diagnostic metric keys the runner records alongside scorer output. They
// belong to the run, not to a scorer, and survive re-scoring.
const (
	MetricPromptTokens    = "prompt_tokens"
	MetricGenerationError = "generation_error"
)

// ProgressFunc is called once per executed (variant, case) pair.
type ProgressFunc func(variant, caseID string, pairIndex, totalPairs int)

// Runner executes a prompt set: for each variant, for each applicable case,
// render, invoke, score, accumulate. Execution is strictly sequential with
// one in-flight generation at a time.
type Runner struct {
	client      llm.Client
	registry    *scorer.Registry
	outputDir   string
	errorPolicy ErrorPolicy
	countTokens bool
	progress    ProgressFunc
}

// NewRunner creates a runner writing exports under outputDir.
func NewRunner(client llm.Client, registry *scorer.Registry, outputDir string) *Runner {
	return &Runner{
		client:      client,
		registry:    registry,
		outputDir:   outputDir,
		errorPolicy: ErrorPolicyRecord,
	}
}

// SetProgressFunc sets the progress callback.
func (r *Runner) SetProgressFunc(fn ProgressFunc) {
	r.progress = fn
}

// SetErrorPolicy sets how generation failures are handled.
func (r *Runner) SetErrorPolicy(p ErrorPolicy) {
	r.errorPolicy = p
}

// SetCountTokens enables the diagnostic prompt_tokens metric. Counting is
// best-effort: a counting failure only makes the metric unavailable for that
// record.
func (r *Runner) SetCountTokens(enabled bool) {
	r.countTokens = enabled
}

// Run represents metadata and results for a complete evaluation run.
type Run struct {
	ID        string        `json:"id"`
	Set       string        `json:"set"`
	Model     string        `json:"model"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Executed  int           `json:"executed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	CSVFile   string        `json:"csv_file"`
	JSONFile  string        `json:"json_file"`

	Records *results.Set `json:"-"`
}

// Run executes the full variant x case cross product, minus pairs the
// applicability filter skips, and writes both export views plus run
// metadata. A TemplateError aborts: it indicates a variant authoring bug,
// not a transient failure.
func (r *Runner) Run(ctx context.Context, set *promptset.Set) (*Run, error) {
	timestamp := time.Now()
	runID := fmt.Sprintf("%s_%s", sanitizeFilename(set.Name), timestamp.Format("20060102-150405"))

	outputPath := filepath.Join(r.outputDir, runID)
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	total := 0
	for _, v := range set.Variants {
		for _, c := range set.Cases {
			if render.Applies(v, c) {
				total++
			}
		}
	}

	slog.Info("starting evaluation run",
		"set", set.Name,
		"variants", len(set.Variants),
		"cases", len(set.Cases),
		"pairs", total,
	)

	run := &Run{
		ID:        runID,
		Set:       set.Name,
		Model:     set.Defaults.Model,
		Timestamp: timestamp,
		Records:   &results.Set{},
	}

	pair := 0
	for _, v := range set.Variants {
		for _, c := range set.Cases {
			// Check for context cancellation between pairs.
			if err := ctx.Err(); err != nil {
				slog.Warn("run cancelled", "completed", pair, "total", total)
				return r.finish(run, outputPath)
			}

			if !render.Applies(v, c) {
				run.Skipped++
				continue
			}
			pair++

			if r.progress != nil {
				r.progress(v.ID, c.ID, pair, total)
			}

			rec, err := r.executePair(ctx, set.Defaults, v, c)
			if err != nil {
				var terr *render.TemplateError
				if errors.As(err, &terr) || r.errorPolicy == ErrorPolicyAbort {
					return nil, err
				}
				slog.Error("pair failed, recording empty result",
					"variant", v.ID,
					"case_id", c.ID,
					"error", err,
				)
				rec = results.Record{
					Variant: v.ID,
					CaseID:  c.ID,
					Type:    c.Type,
					Metrics: map[string]any{MetricGenerationError: err.Error()},
				}
				run.Failed++
			}

			run.Records.Append(rec)
			slog.Info("pair complete",
				"variant", v.ID,
				"case_id", c.ID,
				"total_score", rec.TotalScore,
			)
		}
	}

	return r.finish(run, outputPath)
}

// executePair renders, invokes and scores a single applicable pair.
func (r *Runner) executePair(ctx context.Context, defaults promptset.Defaults, v promptset.Variant, c promptset.Case) (results.Record, error) {
	rendered, err := render.Render(v, c)
	if err != nil {
		return results.Record{}, err
	}

	output, err := r.client.Generate(ctx, llm.GenerateRequest{
		Prompt:      rendered.Prompt,
		System:      rendered.System,
		MIME:        rendered.MIME,
		Temperature: defaults.Temperature,
		MaxTokens:   defaults.MaxOutputTokens,
	})
	if err != nil {
		return results.Record{}, err
	}

	rec := results.Record{
		Variant: v.ID,
		CaseID:  c.ID,
		Type:    c.Type,
		Output:  strings.TrimSpace(output),
	}

	fn, ok := r.registry.Lookup(c.Type)
	if !ok {
		// Unknown case type: keep the raw output, skip scoring. This is the
		// extensibility seam for types registered outside the built-ins.
		slog.Warn("no scorer registered for case type, recording raw output",
			"case_id", c.ID,
			"type", c.Type,
		)
		return rec, nil
	}

	score := fn(output, c)
	rec.TotalScore = score.Total
	rec.Metrics = score.Metrics

	if r.countTokens {
		if n, err := r.client.CountTokens(ctx, rendered.Prompt); err != nil {
			slog.Warn("token count unavailable", "variant", v.ID, "case_id", c.ID, "error", err)
		} else {
			if rec.Metrics == nil {
				rec.Metrics = make(map[string]any)
			}
			rec.Metrics[MetricPromptTokens] = n
		}
	}

	return rec, nil
}

func (r *Runner) finish(run *Run, outputPath string) (*Run, error) {
	csvPath, jsonPath, err := run.Records.WriteFiles(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to write results: %w", err)
	}
	run.CSVFile = csvPath
	run.JSONFile = jsonPath
	run.Executed = run.Records.Len()
	run.Duration = time.Since(run.Timestamp)

	if err := writeRunMetadata(outputPath, run); err != nil {
		return nil, fmt.Errorf("failed to write run metadata: %w", err)
	}

	slog.Info("evaluation run complete",
		"run_id", run.ID,
		"records", run.Records.Len(),
		"skipped", run.Skipped,
		"failed", run.Failed,
		"duration", run.Duration,
	)

	return run, nil
}

// sanitizeFilename replaces characters unsafe for filenames with underscores.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return replacer.Replace(name)
}
