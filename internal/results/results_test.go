package results

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSet() *Set {
	s := &Set{}
	s.Append(Record{
		Variant:    "baseline",
		CaseID:     "sum-1",
		Type:       "summarize",
		Output:     "A short summary.",
		TotalScore: 0.75,
		Metrics: map[string]any{
			"words":          3,
			"score_len":      1.0,
			"score_keywords": 0.5,
		},
	})
	s.Append(Record{
		Variant:    "baseline",
		CaseID:     "cls-1",
		Type:       "classify",
		Output:     `{"label":"Positive"}`,
		TotalScore: 1.0,
		Metrics: map[string]any{
			"ok_json":     1.0,
			"label":       "Positive",
			"score_label": 1.0,
		},
	})
	return s
}

func TestMetricColumnsSortedUnion(t *testing.T) {
	s := sampleSet()
	assert.Equal(t,
		[]string{"label", "ok_json", "score_keywords", "score_label", "score_len", "words"},
		s.MetricColumns(),
	)
}

func TestWriteCSVSchemaAndPadding(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleSet().WriteCSV(&buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t,
		[]string{"variant", "case_id", "type", "output", "total_score",
			"label", "ok_json", "score_keywords", "score_label", "score_len", "words"},
		rows[0],
	)

	// The summarize row has no classify metrics: empty cells, never dropped.
	sum := rows[1]
	assert.Equal(t, "sum-1", sum[1])
	assert.Equal(t, "", sum[5]) // label
	assert.Equal(t, "", sum[6]) // ok_json
	assert.Equal(t, "0.5", sum[7])
	assert.Equal(t, "3", sum[10])

	cls := rows[2]
	assert.Equal(t, "Positive", cls[5])
	assert.Equal(t, "", cls[7]) // score_keywords
	assert.Equal(t, "1", cls[6])
}

func TestWriteJSONKeepsOnlyPresentKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleSet().WriteJSON(&buf))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)

	assert.Contains(t, rows[0], "score_keywords")
	assert.NotContains(t, rows[0], "ok_json")
	assert.Contains(t, rows[1], "ok_json")
	assert.NotContains(t, rows[1], "words")
}

func TestJSONRoundTripPreservesOrder(t *testing.T) {
	var buf bytes.Buffer
	s := sampleSet()
	require.NoError(t, s.WriteJSON(&buf))

	back, err := ReadJSON(&buf)
	require.NoError(t, err)
	require.Equal(t, s.Len(), back.Len())
	assert.Equal(t, "sum-1", back.Records()[0].CaseID)
	assert.Equal(t, "cls-1", back.Records()[1].CaseID)
	assert.Equal(t, 1.0, back.Records()[1].Metrics["ok_json"])
}

// Reconstructing records from the tabular export (empty cell = absent key)
// must match the structured export record for record.
func TestCSVJSONRoundTrip(t *testing.T) {
	s := sampleSet()

	var csvBuf, jsonBuf bytes.Buffer
	require.NoError(t, s.WriteCSV(&csvBuf))
	require.NoError(t, s.WriteJSON(&jsonBuf))

	fromCSV, err := ReadCSV(&csvBuf)
	require.NoError(t, err)
	fromJSON, err := ReadJSON(&jsonBuf)
	require.NoError(t, err)

	require.Equal(t, fromJSON.Len(), fromCSV.Len())
	for i := range fromJSON.Records() {
		a, _ := json.Marshal(fromJSON.Records()[i])
		b, _ := json.Marshal(fromCSV.Records()[i])
		assert.JSONEq(t, string(a), string(b), "record %d", i)
	}
}

func TestWriteFilesOverwrites(t *testing.T) {
	dir := t.TempDir()

	csvPath, jsonPath, err := sampleSet().WriteFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "results.csv"), csvPath)
	assert.Equal(t, filepath.Join(dir, "results.json"), jsonPath)
	assert.FileExists(t, csvPath)
	assert.FileExists(t, jsonPath)

	// A second, smaller run replaces the files outright.
	small := &Set{}
	small.Append(Record{Variant: "v", CaseID: "c", Type: "summarize", Output: "o"})
	_, _, err = small.WriteFiles(dir)
	require.NoError(t, err)

	back, err := readJSONFile(t, jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 1, back.Len())
}

func TestReadCSVRejectsBadHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("foo,bar\n1,2\n"))
	assert.Error(t, err)
}

func TestReadCSVKeepsNaNAndInfCellsAsStrings(t *testing.T) {
	// ParseFloat accepts "NaN" and "Inf", but the JSON view cannot carry
	// such numbers, so these cells can only have been string metrics.
	s := &Set{}
	s.Append(Record{
		Variant:    "v",
		CaseID:     "c",
		Type:       "summarize",
		Output:     "o",
		TotalScore: 0.5,
		Metrics: map[string]any{
			"note":  "NaN",
			"other": "Infinity",
		},
	})

	var buf bytes.Buffer
	require.NoError(t, s.WriteCSV(&buf))

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Equal(t, 1, back.Len())
	assert.Equal(t, "NaN", back.Records()[0].Metrics["note"])
	assert.Equal(t, "Infinity", back.Records()[0].Metrics["other"])
}

func TestOutputWithCommasAndNewlinesSurvivesCSV(t *testing.T) {
	s := &Set{}
	s.Append(Record{
		Variant:    "v",
		CaseID:     "c",
		Type:       "summarize",
		Output:     "line one,\nline \"two\"",
		TotalScore: 0.5,
	})

	var buf bytes.Buffer
	require.NoError(t, s.WriteCSV(&buf))

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Equal(t, 1, back.Len())
	assert.Equal(t, "line one,\nline \"two\"", back.Records()[0].Output)
}

func readJSONFile(t *testing.T, path string) (*Set, error) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ReadJSON(bytes.NewReader(data))
}
