package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned by clients when the model produced no text.
var ErrEmptyResponse = errors.New("llm returned an empty response")

// Request is a single-turn completion: a system instruction plus user content.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int64
}

// Client defines the interface for LLM providers used by the summarizer.
type Client interface {
	// Complete returns the model's text answer for req.
	Complete(ctx context.Context, req *Request) (string, error)

	// Name identifies the provider in logs and spans.
	Name() string
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req *Request) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req *Request) (string, error) {
	return f(ctx, req)
}

// Name implements Client.
func (f ClientFunc) Name() string {
	return "func"
}
