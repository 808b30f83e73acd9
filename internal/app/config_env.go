package app

import (
	"os"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	setString(&cfg.DataDir, "GOSUMMARIZE_DATA_DIR")
	setString(&cfg.Provider, "LLM_PROVIDER")
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL")
	// GEMINI_API_KEY wins over the generic name
	setString(&cfg.LLMAPIKey, "GEMINI_API_KEY", "LLM_API_KEY")
	setString(&cfg.Mode, "SUMMARY_MODE")
	setString(&cfg.TTSCommand, "TTS_COMMAND")

	if cfg.AttemptTimeout == 0 {
		if s := os.Getenv("ATTEMPT_TIMEOUT"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.AttemptTimeout = d
			}
		}
	}

	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			if s == "1" || s == "true" || s == "yes" || s == "on" {
				*dst = true
			}
		}
	}
	setBool(&cfg.StrictPerms, "STRICT_PERMS")
	setBool(&cfg.Verbose, "VERBOSE")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment
// variables that are set. Used to let env take precedence over a config
// file while flags stay highest.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	if v := os.Getenv("GOSUMMARIZE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := os.Getenv("SUMMARY_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("TTS_COMMAND"); v != "" {
		cfg.TTSCommand = v
	}
	if s := os.Getenv("ATTEMPT_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.AttemptTimeout = d
		}
	}

	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.StrictPerms, "STRICT_PERMS")
	setBool(&cfg.Verbose, "VERBOSE")
}
