package llm

// clientConfig holds configuration for an LLM client.
type clientConfig struct {
	baseURL string
	apiKey  string
	model   string
}

// Option is a functional option for configuring an LLM client.
type Option func(*clientConfig)

// WithBaseURL sets the base URL for the API. Only meaningful for
// OpenAI-compatible endpoints.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) {
		c.apiKey = key
	}
}

// WithModel sets the model used for generation and token counting.
func WithModel(model string) Option {
	return func(c *clientConfig) {
		c.model = model
	}
}
