package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file configuration schema.
type FileConfig struct {
	DataDir     string `yaml:"dataDir" json:"dataDir"`
	StrictPerms bool   `yaml:"strictPerms" json:"strictPerms"`
	Verbose     bool   `yaml:"verbose" json:"verbose"`

	LLM struct {
		Provider string `yaml:"provider" json:"provider"`
		BaseURL  string `yaml:"base" json:"base"`
		Model    string `yaml:"model" json:"model"`
		APIKey   string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Summary struct {
		Mode           string        `yaml:"mode" json:"mode"`
		AttemptTimeout time.Duration `yaml:"attemptTimeout" json:"attemptTimeout"`
	} `yaml:"summary" json:"summary"`

	Sources struct {
		Blocked   []string `yaml:"blocked" json:"blocked"`
		UserAgent string   `yaml:"userAgent" json:"userAgent"`
	} `yaml:"sources" json:"sources"`

	TTS struct {
		Command string `yaml:"command" json:"command"`
	} `yaml:"tts" json:"tts"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg for any fields that are
// still unset. Flags and env have already been applied, so they win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.DataDir == "" && fc.DataDir != "" {
		cfg.DataDir = fc.DataDir
	}
	if !cfg.StrictPerms && fc.StrictPerms {
		cfg.StrictPerms = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
	if cfg.Provider == "" && fc.LLM.Provider != "" {
		cfg.Provider = fc.LLM.Provider
	}
	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if cfg.Mode == "" && fc.Summary.Mode != "" {
		cfg.Mode = fc.Summary.Mode
	}
	if cfg.AttemptTimeout == 0 && fc.Summary.AttemptTimeout > 0 {
		cfg.AttemptTimeout = fc.Summary.AttemptTimeout
	}
	if cfg.BlockedPatterns == nil && len(fc.Sources.Blocked) > 0 {
		cfg.BlockedPatterns = append([]string{}, fc.Sources.Blocked...)
	}
	if cfg.UserAgent == "" && fc.Sources.UserAgent != "" {
		cfg.UserAgent = fc.Sources.UserAgent
	}
	if cfg.TTSCommand == "" && fc.TTS.Command != "" {
		cfg.TTSCommand = fc.TTS.Command
	}
}
