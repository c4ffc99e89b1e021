package server

import (
	"github.com/giantswarm/prompt-lab/internal/llm"
	"github.com/giantswarm/prompt-lab/internal/scorer"
)

// ServerContext holds shared dependencies for MCP tool handlers.
type ServerContext struct {
	Client    llm.Client
	Registry  *scorer.Registry
	OutputDir string
	SetsDir   string // external prompt sets directory (optional)
}
