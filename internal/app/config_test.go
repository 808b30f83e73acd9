package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFile_YAMLAndApply(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gosummarize.yaml")
	content := `
dataDir: /var/lib/gosummarize
llm:
  provider: openai
  base: http://localhost:8081/v1
  model: tiny
summary:
  mode: detailed
  attemptTimeout: 45s
sources:
  blocked: ["file://*"]
tts:
  command: say
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := Config{LLMModel: "from-flag"}
	ApplyFileConfig(&cfg, fc)

	if cfg.DataDir != "/var/lib/gosummarize" || cfg.Provider != "openai" || cfg.LLMBaseURL != "http://localhost:8081/v1" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.LLMModel != "from-flag" {
		t.Fatalf("flag value should win, got %q", cfg.LLMModel)
	}
	if cfg.Mode != "detailed" || cfg.AttemptTimeout != 45*time.Second || cfg.TTSCommand != "say" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if len(cfg.BlockedPatterns) != 1 || cfg.BlockedPatterns[0] != "file://*" {
		t.Fatalf("blocked = %v", cfg.BlockedPatterns)
	}
}

func TestLoadConfigFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte(`{"llm":{"model":"m","key":"k"},"strictPerms":true}`), 0o600); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.LLM.Model != "m" || fc.LLM.APIKey != "k" || !fc.StrictPerms {
		t.Fatalf("unexpected file config: %+v", fc)
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"defaults", Config{}, true},
		{"gemini", Config{Provider: "Gemini"}, true},
		{"openai without model", Config{Provider: "openai"}, false},
		{"openai with model", Config{Provider: "openai", LLMModel: "m"}, true},
		{"unknown provider", Config{Provider: "x"}, false},
		{"unknown mode", Config{Mode: "haiku"}, false},
		{"negative timeout", Config{AttemptTimeout: -time.Second}, false},
	}
	for _, tc := range cases {
		err := ValidateConfig(tc.cfg)
		if (err == nil) != tc.ok {
			t.Fatalf("%s: err=%v, want ok=%v", tc.name, err, tc.ok)
		}
	}
}

func TestBlocklist(t *testing.T) {
	b, err := NewBlocklist(DefaultBlockedPatterns)
	if err != nil {
		t.Fatal(err)
	}
	blocked := []string{"chrome://settings", "chrome-extension://id/options.html", "edge://flags", "about:blank"}
	for _, u := range blocked {
		if !b.Blocked(u) {
			t.Fatalf("%s should be blocked", u)
		}
	}
	for _, u := range []string{"https://go.dev/blog", "http://example.com/chrome://"} {
		if b.Blocked(u) {
			t.Fatalf("%s should not be blocked", u)
		}
	}
	var nilList *Blocklist
	if nilList.Blocked("chrome://x") {
		t.Fatalf("nil blocklist blocks nothing")
	}
}
