package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// Export file names within a run's output directory. Both are overwritten,
// never appended, on each run.
const (
	CSVFileName  = "results.csv"
	JSONFileName = "results.json"
)

// WriteCSV writes the tabular projection: fixed core columns followed by the
// sorted union of metric keys. Records missing a key emit an empty cell so
// rows never misalign. This view is lossy; the JSON view is authoritative.
func (s *Set) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	metricCols := s.MetricColumns()
	header := append(append([]string{}, coreColumns...), metricCols...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range s.records {
		row := []string{
			r.Variant,
			r.CaseID,
			r.Type,
			r.Output,
			trimFloat(r.TotalScore),
		}
		for _, col := range metricCols {
			v, ok := r.Metrics[col]
			row = append(row, formatCell(v, ok))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the ordered sequence of full records, each retaining only
// the keys it actually has.
func (s *Set) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	records := s.records
	if records == nil {
		records = []Record{}
	}
	return enc.Encode(records)
}

// WriteFiles writes both export views into dir, overwriting previous runs.
func (s *Set) WriteFiles(dir string) (csvPath, jsonPath string, err error) {
	csvPath = filepath.Join(dir, CSVFileName)
	jsonPath = filepath.Join(dir, JSONFileName)

	cf, err := os.Create(csvPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create %s: %w", CSVFileName, err)
	}
	defer cf.Close()
	if err := s.WriteCSV(cf); err != nil {
		return "", "", err
	}

	jf, err := os.Create(jsonPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create %s: %w", JSONFileName, err)
	}
	defer jf.Close()
	if err := s.WriteJSON(jf); err != nil {
		return "", "", err
	}

	return csvPath, jsonPath, nil
}

// ReadJSON reconstructs a set from the structured export.
func ReadJSON(r io.Reader) (*Set, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse results JSON: %w", err)
	}
	s := &Set{}
	for _, rec := range records {
		s.Append(rec)
	}
	return s, nil
}

// ReadCSV reconstructs records from the tabular export. An empty metric cell
// means the key was absent from the record; numeric-looking cells parse back
// to numbers the way the JSON view carries them. Cells are untyped, so a
// string metric whose value happens to look like a number comes back as one;
// the JSON view is the authoritative, type-preserving form. NaN and infinity
// cells stay strings because the JSON view cannot carry such numbers.
func ReadCSV(r io.Reader) (*Set, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) < len(coreColumns) {
		return nil, fmt.Errorf("CSV header has %d columns, expected at least %d", len(header), len(coreColumns))
	}
	for i, core := range coreColumns {
		if header[i] != core {
			return nil, fmt.Errorf("unexpected CSV column %d: got %q, want %q", i, header[i], core)
		}
	}
	metricCols := header[len(coreColumns):]

	s := &Set{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", line, err)
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("CSV row %d has %d columns, expected %d", line, len(row), len(header))
		}

		rec := Record{
			Variant: row[0],
			CaseID:  row[1],
			Type:    row[2],
			Output:  row[3],
		}
		if rec.TotalScore, err = strconv.ParseFloat(row[4], 64); err != nil {
			return nil, fmt.Errorf("CSV row %d has invalid total_score %q", line, row[4])
		}

		for i, col := range metricCols {
			cell := row[len(coreColumns)+i]
			if cell == "" {
				continue
			}
			if rec.Metrics == nil {
				rec.Metrics = make(map[string]any)
			}
			if f, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				rec.Metrics[col] = f
			} else {
				rec.Metrics[col] = cell
			}
		}
		s.Append(rec)
	}

	return s, nil
}
