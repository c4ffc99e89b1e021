package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/prompt-lab/internal/scorer"
	"github.com/giantswarm/prompt-lab/internal/server"
	"github.com/giantswarm/prompt-lab/internal/testutil"
)

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	content, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return content.Text
}

func requestWithArgs(args map[string]any) mcp.CallToolRequest {
	request := mcp.CallToolRequest{}
	request.Params.Arguments = args
	return request
}

func TestHandleListPromptSets(t *testing.T) {
	sc := &server.ServerContext{}

	result, err := handleListPromptSets(context.Background(), mcp.CallToolRequest{}, sc)
	require.NoError(t, err)

	text := textContent(t, result)
	var sets []map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &sets))
	require.NotEmpty(t, sets)

	s := sets[0]
	assert.Contains(t, s, "name")
	assert.Contains(t, s, "model")
	assert.Contains(t, s, "variants")
	assert.Contains(t, s, "cases")
}

func TestHandleListVariantsMissingSet(t *testing.T) {
	sc := &server.ServerContext{}

	result, err := handleListVariants(context.Background(), requestWithArgs(map[string]any{}), sc)
	require.NoError(t, err)
	assert.Contains(t, textContent(t, result), "set is required")
}

func TestHandleListVariants(t *testing.T) {
	sc := &server.ServerContext{}

	result, err := handleListVariants(context.Background(), requestWithArgs(map[string]any{"set": "demo"}), sc)
	require.NoError(t, err)

	var variants []map[string]any
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &variants))
	require.NotEmpty(t, variants)
	assert.Contains(t, variants[0], "id")
	assert.Contains(t, variants[0], "applies_to")
}

func TestHandleListCasesUnknownSet(t *testing.T) {
	sc := &server.ServerContext{}

	result, err := handleListCases(context.Background(), requestWithArgs(map[string]any{"set": "nope"}), sc)
	require.NoError(t, err)
	assert.Contains(t, textContent(t, result), "failed to load prompt set")
}

func TestHandleRenderPrompt(t *testing.T) {
	sc := &server.ServerContext{}

	result, err := handleRenderPrompt(context.Background(), requestWithArgs(map[string]any{
		"set":     "demo",
		"variant": "baseline",
		"case":    "sum-refund",
	}), sc)
	require.NoError(t, err)

	var rendered map[string]any
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &rendered))
	assert.Contains(t, rendered["prompt"], "Summarize the customer email")
	assert.Equal(t, true, rendered["applies"])
}

func TestHandleRenderPromptUnknownVariant(t *testing.T) {
	sc := &server.ServerContext{}

	result, err := handleRenderPrompt(context.Background(), requestWithArgs(map[string]any{
		"set":     "demo",
		"variant": "missing",
		"case":    "sum-refund",
	}), sc)
	require.NoError(t, err)
	assert.Contains(t, textContent(t, result), "not found")
}

func TestHandleRunEval(t *testing.T) {
	tmpDir := t.TempDir()
	sc := &server.ServerContext{
		Client:    &testutil.MockClient{DefaultResponse: "Neutral"},
		Registry:  scorer.NewRegistry(),
		OutputDir: tmpDir,
	}

	result, err := handleRunEval(context.Background(), requestWithArgs(map[string]any{"set": "demo"}), sc)
	require.NoError(t, err)

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &summary))
	assert.Contains(t, summary, "run_id")
	assert.Contains(t, summary, "csv_file")
	assert.Greater(t, summary["executed"], float64(0))

	// The run is now retrievable, with its records attached.
	runID := summary["run_id"].(string)
	result, err = handleGetResults(context.Background(), requestWithArgs(map[string]any{"run_id": runID}), sc)
	require.NoError(t, err)

	var metadata map[string]any
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &metadata))
	assert.Contains(t, metadata, "records")
}

func TestHandleRunEvalVariantFilter(t *testing.T) {
	tmpDir := t.TempDir()
	client := &testutil.MockClient{DefaultResponse: "Neutral"}
	sc := &server.ServerContext{
		Client:    client,
		Registry:  scorer.NewRegistry(),
		OutputDir: tmpDir,
	}

	result, err := handleRunEval(context.Background(), requestWithArgs(map[string]any{
		"set":     "demo",
		"variant": "json-classifier",
	}), sc)
	require.NoError(t, err)

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &summary))
	// json-classifier only applies to the three classify cases.
	assert.Equal(t, float64(3), summary["executed"])
	assert.Equal(t, 3, client.Calls)
}

func TestHandleRunEvalUnknownVariant(t *testing.T) {
	sc := &server.ServerContext{
		Client:    &testutil.MockClient{},
		Registry:  scorer.NewRegistry(),
		OutputDir: t.TempDir(),
	}

	result, err := handleRunEval(context.Background(), requestWithArgs(map[string]any{
		"set":     "demo",
		"variant": "missing",
	}), sc)
	require.NoError(t, err)
	assert.Contains(t, textContent(t, result), "not found")
}

func TestHandleRunEvalWithoutClient(t *testing.T) {
	sc := &server.ServerContext{Registry: scorer.NewRegistry(), OutputDir: t.TempDir()}

	result, err := handleRunEval(context.Background(), requestWithArgs(map[string]any{"set": "demo"}), sc)
	require.NoError(t, err)
	assert.Contains(t, textContent(t, result), "not configured")
}

func TestHandleGetResultsEmptyDir(t *testing.T) {
	sc := &server.ServerContext{OutputDir: t.TempDir()}

	result, err := handleGetResults(context.Background(), requestWithArgs(map[string]any{}), sc)
	require.NoError(t, err)
	assert.Equal(t, "[]", textContent(t, result))
}

func TestHandleGetResultsRejectsTraversal(t *testing.T) {
	sc := &server.ServerContext{OutputDir: t.TempDir()}

	result, err := handleGetResults(context.Background(), requestWithArgs(map[string]any{"run_id": ".."}), sc)
	require.NoError(t, err)
	assert.Contains(t, textContent(t, result), "not allowed")
}

func TestHandleCountTokens(t *testing.T) {
	sc := &server.ServerContext{Client: &testutil.MockClient{Tokens: 7}}

	result, err := handleCountTokens(context.Background(), requestWithArgs(map[string]any{"text": "hello"}), sc)
	require.NoError(t, err)
	assert.Contains(t, textContent(t, result), "7")
}

func TestHandleCountTokensUnavailable(t *testing.T) {
	sc := &server.ServerContext{Client: &testutil.MockClient{TokensErr: assert.AnError}}

	result, err := handleCountTokens(context.Background(), requestWithArgs(map[string]any{"text": "hello"}), sc)
	require.NoError(t, err)
	assert.Contains(t, textContent(t, result), "unavailable")
}
