// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/giantswarm/prompt-lab/internal/llm"
)

// MockClient is a configurable, deterministic stand-in for llm.Client used
// across test packages. No test depends on a live backend.
type MockClient struct {
	// Responses maps a prompt substring to a canned response. The first
	// matching key wins; iteration order is irrelevant when keys are
	// mutually exclusive, which tests should keep them.
	Responses map[string]string

	// DefaultResponse is returned when no key matches.
	DefaultResponse string

	// Err, when set, is returned from every Generate call.
	Err error

	// Tokens is the value CountTokens reports; TokensErr, when set, makes
	// counting unavailable.
	Tokens    int
	TokensErr error

	// Calls tracks the number of Generate invocations.
	Calls int

	// Requests stores every GenerateRequest for inspection.
	Requests []llm.GenerateRequest
}

func (m *MockClient) Generate(_ context.Context, req llm.GenerateRequest) (string, error) {
	m.Calls++
	m.Requests = append(m.Requests, req)

	if m.Err != nil {
		return "", m.Err
	}

	for key, resp := range m.Responses {
		if strings.Contains(req.Prompt, key) {
			return resp, nil
		}
	}

	if m.DefaultResponse != "" {
		return m.DefaultResponse, nil
	}
	return "mock response", nil
}

func (m *MockClient) CountTokens(_ context.Context, _ string) (int, error) {
	if m.TokensErr != nil {
		return 0, m.TokensErr
	}
	if m.Tokens > 0 {
		return m.Tokens, nil
	}
	return 0, fmt.Errorf("no token count configured")
}

// LastRequest returns the most recent GenerateRequest, or a zero value when
// nothing was sent.
func (m *MockClient) LastRequest() llm.GenerateRequest {
	if len(m.Requests) == 0 {
		return llm.GenerateRequest{}
	}
	return m.Requests[len(m.Requests)-1]
}
