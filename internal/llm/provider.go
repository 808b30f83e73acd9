package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Generator is the minimal interface the summarizer needs: send one prompt,
// get back the first candidate's text. An empty string with a nil error means
// the backend answered without a usable payload.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// KeyValidator is an optional capability that checks a credential against
// the backend without generating anything.
type KeyValidator interface {
	ValidateKey(ctx context.Context, key string) (bool, error)
}

// Backend is what the application wires: generation plus key validation.
type Backend interface {
	Generator
	KeyValidator
}

// ErrInvalidCredential is returned by backends when the server rejected the
// API key. Retrying cannot help.
var ErrInvalidCredential = errors.New("invalid API key")

// ValidateTimeout bounds a single credential check.
const ValidateTimeout = 4 * time.Second

// invalidKeyMarker is the error message fragment both Gemini endpoints use
// for a bad key.
const invalidKeyMarker = "API key not valid"

// Provider names accepted by New.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Options configures New.
type Options struct {
	Provider   string
	BaseURL    string
	Model      string
	APIKey     string
	HTTPClient *http.Client
}

// New builds the backend for opts.Provider. An empty provider means Gemini.
func New(opts Options) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", ProviderGemini:
		return &Gemini{BaseURL: opts.BaseURL, Model: opts.Model, APIKey: opts.APIKey, HTTPClient: opts.HTTPClient}, nil
	case ProviderOpenAI:
		if strings.TrimSpace(opts.Model) == "" {
			return nil, errors.New("llm: model is required for the openai provider")
		}
		return NewOpenAI(opts.BaseURL, opts.APIKey, opts.Model, opts.HTTPClient), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", opts.Provider)
	}
}
