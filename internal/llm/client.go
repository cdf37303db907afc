// Package llm adapts hosted model APIs to the two call shapes the gateway uses:
// a schema-bound JSON generation and an incremental text stream.
package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/disha-ai/disha/internal/config"
)

// ErrMissingCredential is returned by every call when no API key is configured.
var ErrMissingCredential = errors.New("llm: no API key configured")

// Speaker is the author of a conversational turn as the providers see it.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerModel Speaker = "model"
)

// Turn is one prior message sent as chat history.
type Turn struct {
	Speaker Speaker
	Text    string
}

// JSONRequest asks for a JSON document matching Schema.
type JSONRequest struct {
	// Name identifies the shape to providers that require one ([a-zA-Z0-9_-]).
	Name   string
	Prompt string
	Schema jsonschema.Definition
}

// ChatRequest asks for a streamed reply to Message following History.
type ChatRequest struct {
	System  string
	History []Turn
	Message string
}

// Client is the minimal surface the gateway needs; it is easy to mock in tests.
type Client interface {
	// GenerateJSON returns the raw response text. An empty string means the
	// model produced no text.
	GenerateJSON(ctx context.Context, req JSONRequest) (string, error)
	// StreamChat yields text fragments in arrival order. A transport failure is
	// yielded once as a non-nil error and ends the sequence.
	StreamChat(ctx context.Context, req ChatRequest) iter.Seq2[string, error]
}

// NewClient builds the backend selected by cfg.Provider. Without an API key it
// returns a client whose calls all fail with ErrMissingCredential.
func NewClient(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	if cfg.APIKey == "" {
		return unavailable{}, nil
	}
	switch cfg.Provider {
	case config.ProviderGemini, "":
		return newGemini(ctx, cfg)
	case config.ProviderOpenAI:
		return newOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Provider)
	}
}

type unavailable struct{}

func (unavailable) GenerateJSON(context.Context, JSONRequest) (string, error) {
	return "", ErrMissingCredential
}

func (unavailable) StreamChat(context.Context, ChatRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield("", ErrMissingCredential)
	}
}
