package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client against any OpenAI-compatible endpoint
// (vLLM, llama.cpp server, the OpenAI API itself).
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a client for an OpenAI-compatible API.
func NewOpenAIClient(opts ...Option) *OpenAIClient {
	cfg := &clientConfig{
		baseURL: "http://localhost:8000/v1",
		apiKey:  "not-needed",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	config := openai.DefaultConfig(cfg.apiKey)
	config.BaseURL = cfg.baseURL

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  cfg.model,
	}
}

// Model returns the configured model identifier.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Generate sends a single-turn chat completion request. A JSON response
// MIME type maps to the json_object response format; other MIME types are
// not expressible on this API and fail loudly rather than silently degrade.
func (c *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}

	if req.MIME != "" {
		if !strings.HasPrefix(req.MIME, "application/json") {
			return "", &GenerationError{
				Backend: "openai",
				Err:     fmt.Errorf("unsupported response MIME type %q", req.MIME),
			}
		}
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", &GenerationError{Backend: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &GenerationError{Backend: "openai", Err: fmt.Errorf("no choices returned")}
	}

	return resp.Choices[0].Message.Content, nil
}

// CountTokens is unsupported on OpenAI-compatible endpoints; callers treat
// the count as unavailable.
func (c *OpenAIClient) CountTokens(_ context.Context, _ string) (int, error) {
	return 0, fmt.Errorf("token counting is not supported by the openai backend")
}
