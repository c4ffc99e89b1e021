package scorer

import (
	"encoding/json"
	"strings"

	"github.com/giantswarm/prompt-lab/internal/promptset"
)

// unboundedWords stands in for "no length limit" when a summarize case does
// not declare max_words.
const unboundedWords = 9999

// ScoreSummarize scores a summary by length and keyword coverage.
//
// The length score is 1.0 within the limit and decays linearly to 0.0 at
// double the limit. The keyword score is the fraction of declared keywords
// found as case-insensitive literal substrings; with no declared keywords it
// is 0.0, not "not applicable" — a known scoring-floor quirk preserved for
// comparability with historical runs.
func ScoreSummarize(output string, c promptset.Case) Score {
	words := len(strings.Fields(output))

	maxWords := unboundedWords
	if c.MaxWords != nil {
		maxWords = *c.MaxWords
	}

	scoreLen := 1.0
	if words > maxWords {
		scoreLen = 1 - float64(words-maxWords)/float64(maxWords)
		if scoreLen < 0 {
			scoreLen = 0
		}
	}

	scoreKeywords := 0.0
	if len(c.Keywords) > 0 {
		lowered := strings.ToLower(output)
		hits := 0
		for _, k := range c.Keywords {
			// Literal substring match; keyword text is never a pattern.
			if strings.Contains(lowered, strings.ToLower(k)) {
				hits++
			}
		}
		scoreKeywords = float64(hits) / float64(len(c.Keywords))
	}

	scoreLen = round3(scoreLen)
	scoreKeywords = round3(scoreKeywords)

	return Score{
		Metrics: map[string]any{
			"words":          words,
			"score_len":      scoreLen,
			"score_keywords": scoreKeywords,
		},
		Total: round3((scoreLen + scoreKeywords) / 2),
	}
}

// classifyLabels are the tokens the fallback extractor recognizes in raw
// (non-JSON) output.
var classifyLabels = []string{"Positive", "Neutral", "Negative"}

// ScoreClassify scores a classification by output well-formedness and label
// match. JSON output is preferred; raw text falls back to locating the first
// occurrence of a known label token. A missing expected_label degrades to a
// zero label score rather than failing the run.
func ScoreClassify(output string, c promptset.Case) Score {
	label, okJSON := extractLabel(output)

	scoreLabel := 0.0
	if label != "" && c.ExpectedLabel != "" && strings.EqualFold(label, c.ExpectedLabel) {
		scoreLabel = 1.0
	}

	metrics := map[string]any{
		"ok_json":     okJSON,
		"score_label": scoreLabel,
	}
	if label != "" {
		metrics["label"] = label
	}

	return Score{
		Metrics: metrics,
		Total:   round3((okJSON + scoreLabel) / 2),
	}
}

// extractLabel parses output as a JSON object with a "label" key, falling
// back to scanning for the first label token in the raw text. The second
// return is 1.0 when a labeled record was obtained by either path.
func extractLabel(output string) (string, float64) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &parsed); err == nil {
		raw, ok := parsed["label"]
		if !ok {
			return "", 0.0
		}
		label, _ := raw.(string)
		return label, 1.0
	}

	// Fallback: first case-insensitive occurrence of a known label.
	lowered := strings.ToLower(output)
	best := -1
	found := ""
	for _, token := range classifyLabels {
		idx := strings.Index(lowered, strings.ToLower(token))
		if idx >= 0 && (best < 0 || idx < best) {
			best = idx
			found = token
		}
	}
	if found == "" {
		return "", 0.0
	}
	return found, 1.0
}
