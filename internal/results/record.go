// Package results accumulates and serializes evaluation result records.
package results

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Core column names, in fixed export order. Every other key in a record is a
// type-specific metric.
var coreColumns = []string{"variant", "case_id", "type", "output", "total_score"}

// Record is the outcome of one executed (variant, case) pair. Metrics holds
// only the keys the record actually has; padding happens at CSV export time.
type Record struct {
	Variant    string
	CaseID     string
	Type       string
	Output     string
	TotalScore float64
	Metrics    map[string]any
}

// MarshalJSON flattens core fields and metrics into a single object, the
// lossless structured form.
func (r Record) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(r.Metrics)+len(coreColumns))
	for k, v := range r.Metrics {
		obj[k] = v
	}
	obj["variant"] = r.Variant
	obj["case_id"] = r.CaseID
	obj["type"] = r.Type
	obj["output"] = r.Output
	obj["total_score"] = r.TotalScore
	return json.Marshal(obj)
}

// UnmarshalJSON is the inverse of MarshalJSON: core keys are lifted out and
// everything else lands in Metrics.
func (r *Record) UnmarshalJSON(data []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	r.Variant, _ = obj["variant"].(string)
	r.CaseID, _ = obj["case_id"].(string)
	r.Type, _ = obj["type"].(string)
	r.Output, _ = obj["output"].(string)
	if v, ok := obj["total_score"].(float64); ok {
		r.TotalScore = v
	}

	for _, core := range coreColumns {
		delete(obj, core)
	}
	if len(obj) > 0 {
		r.Metrics = obj
	} else {
		r.Metrics = nil
	}
	return nil
}

// Set is an ordered collection of records for one run. Records appear in
// submission order: variants as declared, cases as declared within each
// variant.
type Set struct {
	records []Record
}

// Append adds a record to the set.
func (s *Set) Append(r Record) {
	s.records = append(s.records, r)
}

// Records returns the records in submission order.
func (s *Set) Records() []Record {
	return s.records
}

// Len returns the number of accumulated records.
func (s *Set) Len() int {
	return len(s.records)
}

// MetricColumns returns the sorted union of metric keys across all records.
// Sorting makes the tabular schema deterministic across runs whose records
// carry different key sets.
func (s *Set) MetricColumns() []string {
	seen := make(map[string]bool)
	for _, r := range s.records {
		for k := range r.Metrics {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// formatCell renders a metric value for the tabular view. Absent keys render
// as the empty string so every record populates every column.
func formatCell(v any, ok bool) string {
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return trimFloat(t)
	case int:
		return fmt.Sprintf("%d", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// trimFloat formats floats the way encoding/json does, so the tabular view
// matches the structured one cell for cell.
func trimFloat(f float64) string {
	data, _ := json.Marshal(f)
	return string(data)
}
