package scorer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/prompt-lab/internal/promptset"
)

func intPtr(v int) *int { return &v }

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, []string{"classify", "summarize"}, r.Types())

	_, ok := r.Lookup("summarize")
	assert.True(t, ok)
	_, ok = r.Lookup("extraction")
	assert.False(t, ok)
}

func TestRegistryRegisterNewType(t *testing.T) {
	r := NewRegistry()
	r.Register("extraction", func(output string, _ promptset.Case) Score {
		return Score{Metrics: map[string]any{"chars": len(output)}, Total: 1.0}
	})

	fn, ok := r.Lookup("extraction")
	require.True(t, ok)
	s := fn("abc", promptset.Case{})
	assert.Equal(t, 1.0, s.Total)
	assert.Equal(t, 3, s.Metrics["chars"])
}

func TestScoreSummarizeLength(t *testing.T) {
	c := promptset.Case{MaxWords: intPtr(20)}

	tests := []struct {
		name     string
		output   string
		scoreLen float64
	}{
		{"exactly at limit", words(20), 1.0},
		{"under limit", words(5), 1.0},
		{"half over limit", words(30), 0.5},
		{"double the limit", words(40), 0.0},
		{"far over limit", words(100), 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ScoreSummarize(tt.output, c)
			assert.InDelta(t, tt.scoreLen, s.Metrics["score_len"], 0.001)
		})
	}
}

func TestScoreSummarizeUnboundedWithoutMaxWords(t *testing.T) {
	s := ScoreSummarize(words(500), promptset.Case{})
	assert.Equal(t, 1.0, s.Metrics["score_len"])
	assert.Equal(t, 500, s.Metrics["words"])
}

func TestScoreSummarizeKeywords(t *testing.T) {
	c := promptset.Case{Keywords: []string{"refund", "delay"}}

	// Case-insensitive literal hit on one of two keywords.
	s := ScoreSummarize("Customer demands a REFUND immediately.", c)
	assert.InDelta(t, 0.5, s.Metrics["score_keywords"], 0.001)

	s = ScoreSummarize("The refund was issued after the shipping delay.", c)
	assert.InDelta(t, 1.0, s.Metrics["score_keywords"], 0.001)

	s = ScoreSummarize("Nothing relevant here.", c)
	assert.InDelta(t, 0.0, s.Metrics["score_keywords"], 0.001)
}

func TestScoreSummarizeKeywordsAreLiteral(t *testing.T) {
	// Metacharacters in keywords must not act as patterns.
	c := promptset.Case{Keywords: []string{"a.b", "x*"}}

	s := ScoreSummarize("contains a.b and x* literally", c)
	assert.InDelta(t, 1.0, s.Metrics["score_keywords"], 0.001)

	s = ScoreSummarize("contains axb and xxxxx only", c)
	assert.InDelta(t, 0.0, s.Metrics["score_keywords"], 0.001)
}

func TestScoreSummarizeKeywordFloor(t *testing.T) {
	// No keywords declared: keyword score is 0.0, not "not applicable",
	// so the total caps at 0.5 even for a perfect-length output.
	s := ScoreSummarize(words(10), promptset.Case{MaxWords: intPtr(20)})
	assert.Equal(t, 0.0, s.Metrics["score_keywords"])
	assert.InDelta(t, 0.5, s.Total, 0.001)
}

func TestScoreSummarizeTotal(t *testing.T) {
	c := promptset.Case{MaxWords: intPtr(10), Keywords: []string{"alpha", "beta"}}

	// 15 words -> score_len 0.5; one of two keywords -> 0.5; total 0.5.
	out := words(13) + " alpha gamma"
	s := ScoreSummarize(out, c)
	assert.InDelta(t, 0.5, s.Metrics["score_len"], 0.001)
	assert.InDelta(t, 0.5, s.Metrics["score_keywords"], 0.001)
	assert.InDelta(t, 0.5, s.Total, 0.001)
}

func TestScoreClassifyJSON(t *testing.T) {
	c := promptset.Case{ExpectedLabel: "positive"}

	s := ScoreClassify(`{"label":"Positive","confidence":0.9}`, c)
	assert.Equal(t, 1.0, s.Metrics["ok_json"])
	assert.Equal(t, 1.0, s.Metrics["score_label"])
	assert.Equal(t, "Positive", s.Metrics["label"])
	assert.Equal(t, 1.0, s.Total)
}

func TestScoreClassifyJSONWrongLabel(t *testing.T) {
	c := promptset.Case{ExpectedLabel: "Negative"}

	s := ScoreClassify(`{"label":"Positive"}`, c)
	assert.Equal(t, 1.0, s.Metrics["ok_json"])
	assert.Equal(t, 0.0, s.Metrics["score_label"])
	assert.Equal(t, 0.5, s.Total)
}

func TestScoreClassifyJSONWithoutLabelKey(t *testing.T) {
	s := ScoreClassify(`{"sentiment":"Positive"}`, promptset.Case{ExpectedLabel: "Positive"})
	assert.Equal(t, 0.0, s.Metrics["ok_json"])
	assert.Equal(t, 0.0, s.Metrics["score_label"])
	assert.NotContains(t, s.Metrics, "label")
	assert.Equal(t, 0.0, s.Total)
}

func TestScoreClassifyFallbackLabel(t *testing.T) {
	s := ScoreClassify("I think this is Negative overall.", promptset.Case{})
	assert.Equal(t, 1.0, s.Metrics["ok_json"])
	assert.Equal(t, "Negative", s.Metrics["label"])
	assert.Equal(t, 0.0, s.Metrics["score_label"])
}

func TestScoreClassifyFallbackFirstOccurrenceWins(t *testing.T) {
	s := ScoreClassify("Leaning neutral, though some say positive.", promptset.Case{ExpectedLabel: "Neutral"})
	assert.Equal(t, "Neutral", s.Metrics["label"])
	assert.Equal(t, 1.0, s.Metrics["score_label"])
	assert.Equal(t, 1.0, s.Total)
}

func TestScoreClassifyNoLabelAnywhere(t *testing.T) {
	s := ScoreClassify("no sentiment tokens here", promptset.Case{ExpectedLabel: "Positive"})
	assert.Equal(t, 0.0, s.Metrics["ok_json"])
	assert.Equal(t, 0.0, s.Total)
}

func TestScoreClassifyMissingExpectedLabelDegrades(t *testing.T) {
	// Malformed case for its type: expected_label absent. The scorer must
	// degrade to a zero label score, not fail.
	s := ScoreClassify(`{"label":"Positive"}`, promptset.Case{})
	assert.Equal(t, 1.0, s.Metrics["ok_json"])
	assert.Equal(t, 0.0, s.Metrics["score_label"])
	assert.Equal(t, 0.5, s.Total)
}
