package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured via flags or
// the GEMINI_MODEL environment variable.
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiClient implements Client using the official Google GenAI SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed client. The API key is required;
// a missing key is a configuration error surfaced before any run starts.
func NewGeminiClient(ctx context.Context, opts ...Option) (*GeminiClient, error) {
	cfg := &clientConfig{model: DefaultGeminiModel}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.apiKey == "" {
		return nil, errors.New("missing API key: set GOOGLE_API_KEY (or GEMINI_API_KEY) in the environment or a .env file, or pass --api-key")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  cfg.model,
	}, nil
}

// Model returns the configured model identifier.
func (c *GeminiClient) Model() string {
	return c.model
}

// Generate sends a single-turn generation request.
func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.MIME != "" {
		config.ResponseMIMEType = req.MIME
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", &GenerationError{Backend: "gemini", Err: err}
	}

	return resp.Text(), nil
}

// CountTokens counts prompt tokens via the model's counting endpoint.
func (c *GeminiClient) CountTokens(ctx context.Context, text string) (int, error) {
	resp, err := c.client.Models.CountTokens(ctx, c.model, genai.Text(text), nil)
	if err != nil {
		return 0, fmt.Errorf("count tokens failed: %w", err)
	}
	return int(resp.TotalTokens), nil
}
