package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Gemini defaults.
const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-2.5-flash"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// Gemini calls the generateContent REST endpoint. The key travels as the
// "key" query parameter.
type Gemini struct {
	BaseURL    string
	Model      string
	APIKey     string
	HTTPClient *http.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (g *Gemini) baseURL() string {
	if strings.TrimSpace(g.BaseURL) == "" {
		return DefaultGeminiBaseURL
	}
	return strings.TrimRight(g.BaseURL, "/")
}

func (g *Gemini) model() string {
	if strings.TrimSpace(g.Model) == "" {
		return DefaultGeminiModel
	}
	return g.Model
}

func (g *Gemini) client() *http.Client {
	if g.HTTPClient != nil {
		return g.HTTPClient
	}
	return http.DefaultClient
}

// Generate sends prompt as a single user part and returns the first
// candidate's first part. A 400 carrying the invalid-key message is
// reported as ErrInvalidCredential.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL(), g.model(), url.QueryEscape(g.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode == http.StatusBadRequest && out.Error != nil && strings.Contains(out.Error.Message, invalidKeyMarker) {
		return "", fmt.Errorf("%w: %s", ErrInvalidCredential, out.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := ""
		if out.Error != nil {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode, msg)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

// ValidateKey lists models with key under a ValidateTimeout deadline. The key
// is valid iff the server answers 2xx with a "models" array.
func (g *Gemini) ValidateKey(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, ValidateTimeout)
	defer cancel()
	endpoint := fmt.Sprintf("%s/models?key=%s", g.baseURL(), url.QueryEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("new request: %w", err)
	}
	resp, err := g.client().Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, nil
	}
	var out struct {
		Models json.RawMessage `json:"models"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return false, nil
	}
	return bytes.HasPrefix(bytes.TrimSpace(out.Models), []byte("[")), nil
}
