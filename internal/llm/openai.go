package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider adapts an OpenAI-compatible server (including Gemini's
// compatibility endpoint) to Backend.
type OpenAIProvider struct {
	Inner *openai.Client
	Model string

	baseURL    string
	httpClient *http.Client
}

// NewOpenAI builds a provider for baseURL; an empty baseURL means the
// public OpenAI endpoint.
func NewOpenAI(baseURL, key, model string, httpClient *http.Client) *OpenAIProvider {
	p := &OpenAIProvider{Model: model, baseURL: baseURL, httpClient: httpClient}
	p.Inner = openai.NewClientWithConfig(p.config(key))
	return p
}

func (p *OpenAIProvider) config(key string) openai.ClientConfig {
	cfg := openai.DefaultConfig(key)
	if strings.TrimSpace(p.baseURL) != "" {
		cfg.BaseURL = p.baseURL
	}
	if p.httpClient != nil {
		cfg.HTTPClient = p.httpClient
	}
	return cfg
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.Inner.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		N: 1,
	})
	if err != nil {
		if isInvalidCredential(err) {
			return "", fmt.Errorf("%w: %v", ErrInvalidCredential, err)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// ValidateKey lists models with key. Any error other than a rejected key is
// returned so callers can tell an outage from a bad key.
func (p *OpenAIProvider) ValidateKey(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, ValidateTimeout)
	defer cancel()
	client := openai.NewClientWithConfig(p.config(key))
	if _, err := client.ListModels(ctx); err != nil {
		if isInvalidCredential(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func isInvalidCredential(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized {
			return true
		}
		return apiErr.HTTPStatusCode == http.StatusBadRequest && strings.Contains(apiErr.Message, invalidKeyMarker)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusUnauthorized
	}
	return false
}
