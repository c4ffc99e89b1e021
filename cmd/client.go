package cmd

import (
	"context"
	"os"

	"github.com/spf13/pflag"

	"github.com/giantswarm/prompt-lab/internal/llm"
)

const (
	backendGemini = "gemini"
	backendOpenAI = "openai"
)

// clientFlags are the backend selection flags shared by commands that talk
// to a model.
type clientFlags struct {
	backend  string
	endpoint string
	apiKey   string
	model    string
}

func (f *clientFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.backend, "backend", backendGemini, "Generation backend: gemini or openai")
	flags.StringVar(&f.endpoint, "endpoint", "", "OpenAI-compatible endpoint URL (implies --backend openai)")
	flags.StringVar(&f.apiKey, "api-key", "", "API key (or set GOOGLE_API_KEY / GEMINI_API_KEY / OPENAI_API_KEY)")
	flags.StringVar(&f.model, "model", "", "Model identifier (overrides set defaults and GEMINI_MODEL)")
}

// newClient resolves configuration once, up front, and constructs the
// invocation client. The pipeline itself never touches the environment.
// defaultModel comes from the prompt set's defaults and may be empty.
func (f *clientFlags) newClient(ctx context.Context, defaultModel string) (llm.Client, error) {
	backend := f.backend
	if f.endpoint != "" {
		backend = backendOpenAI
	}

	model := f.model
	if model == "" {
		model = defaultModel
	}

	switch backend {
	case backendOpenAI:
		opts := []llm.Option{llm.WithModel(model)}
		if f.endpoint != "" {
			opts = append(opts, llm.WithBaseURL(f.endpoint))
		}
		if f.apiKey != "" {
			opts = append(opts, llm.WithAPIKey(f.apiKey))
		} else if envKey := os.Getenv("OPENAI_API_KEY"); envKey != "" {
			opts = append(opts, llm.WithAPIKey(envKey))
		}
		return llm.NewOpenAIClient(opts...), nil
	default:
		if model == "" {
			model = os.Getenv("GEMINI_MODEL")
		}
		opts := []llm.Option{}
		if model != "" {
			opts = append(opts, llm.WithModel(model))
		}
		key := f.apiKey
		if key == "" {
			key = os.Getenv("GOOGLE_API_KEY")
		}
		if key == "" {
			key = os.Getenv("GEMINI_API_KEY")
		}
		opts = append(opts, llm.WithAPIKey(key))
		return llm.NewGeminiClient(ctx, opts...)
	}
}
