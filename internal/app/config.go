package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperifyio/gosummarize/internal/llm"
	"github.com/hyperifyio/gosummarize/internal/summarize"
)

// DefaultBlockedPatterns match internal browser pages that carry no article.
var DefaultBlockedPatterns = []string{"chrome://*", "chrome-extension://*", "edge://*", "about:*"}

// DefaultUserAgent is sent when fetching pages by URL.
const DefaultUserAgent = "gosummarize/1.0 (+https://github.com/hyperifyio/gosummarize)"

// Config holds runtime configuration for the application.
type Config struct {
	// DataDir holds the sync and local namespaces.
	DataDir     string
	StrictPerms bool

	// LLM
	Provider   string
	LLMBaseURL string
	LLMModel   string
	// LLMAPIKey overrides the stored credential when set.
	LLMAPIKey string

	// Summarization
	Mode           string
	AttemptTimeout time.Duration

	// Sources
	BlockedPatterns []string
	UserAgent       string

	// Speech
	TTSCommand string

	Verbose bool
}

// DefaultDataDir is the per-user data directory, falling back to a dot
// directory in the working directory.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "gosummarize")
	}
	return ".gosummarize"
}

// withDefaults fills zero fields that have a fixed default.
func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = DefaultDataDir()
	}
	if strings.TrimSpace(c.Mode) == "" {
		c.Mode = string(summarize.ModeBullets)
	}
	if c.AttemptTimeout == 0 {
		c.AttemptTimeout = summarize.DefaultAttemptTimeout
	}
	if c.BlockedPatterns == nil {
		c.BlockedPatterns = append([]string{}, DefaultBlockedPatterns...)
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}

// ValidateConfig performs minimal validation of settings that would
// otherwise fail late.
func ValidateConfig(cfg Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", llm.ProviderGemini:
	case llm.ProviderOpenAI:
		if strings.TrimSpace(cfg.LLMModel) == "" {
			return errors.New("config: llm.model is required for the openai provider (or set LLM_MODEL)")
		}
	default:
		return fmt.Errorf("config: unknown llm.provider %q", cfg.Provider)
	}
	if m := strings.ToLower(strings.TrimSpace(cfg.Mode)); m != "" {
		known := false
		for _, k := range summarize.Modes {
			if string(k) == m {
				known = true
			}
		}
		if !known {
			return fmt.Errorf("config: unknown mode %q (brief, detailed, bullets)", cfg.Mode)
		}
	}
	if cfg.AttemptTimeout < 0 {
		return errors.New("config: attempt timeout must not be negative")
	}
	return nil
}
