package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiClientRequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), WithModel("gemini-1.5-flash"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY")
}

func TestOpenAIClientOptions(t *testing.T) {
	c := NewOpenAIClient(
		WithBaseURL("http://example.test/v1"),
		WithAPIKey("key"),
		WithModel("test-model"),
	)
	assert.Equal(t, "test-model", c.Model())
}

func TestOpenAIClientRejectsNonJSONMIME(t *testing.T) {
	c := NewOpenAIClient(WithModel("m"))

	// Rejected before any network call.
	_, err := c.Generate(context.Background(), GenerateRequest{
		Prompt: "p",
		MIME:   "text/x-custom",
	})
	require.Error(t, err)
	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "openai", gerr.Backend)
}

func TestOpenAIClientCountTokensUnavailable(t *testing.T) {
	c := NewOpenAIClient()
	_, err := c.CountTokens(context.Background(), "some text")
	assert.Error(t, err)
}
