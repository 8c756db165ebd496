package config

import (
	"testing"
	"time"
)

func TestLoadImportDefaults(t *testing.T) {
	t.Setenv("IMPORT_FIELD_TIMEOUT", "")
	t.Setenv("IMPORT_MAX_ATTEMPTS", "")
	t.Setenv("LLM_TEMPERATURE", "")

	cfg := Load()
	if cfg.Import != DefaultImportConfig() {
		t.Fatalf("unexpected import config: %+v", cfg.Import)
	}
	if cfg.LLMTemperature != 0.1 {
		t.Fatalf("expected temperature 0.1, got %v", cfg.LLMTemperature)
	}
}

func TestLoadImportOverrides(t *testing.T) {
	t.Setenv("IMPORT_FIELD_TIMEOUT", "5s")
	t.Setenv("IMPORT_MAX_ATTEMPTS", "2")
	t.Setenv("IMPORT_CHUNK_CHARS", "nope")
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := Load()
	if cfg.Import.FieldTimeout != 5*time.Second {
		t.Fatalf("expected 5s, got %s", cfg.Import.FieldTimeout)
	}
	if cfg.Import.MaxAttempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", cfg.Import.MaxAttempts)
	}
	if cfg.Import.ChunkChars != 8000 {
		t.Fatalf("invalid value should fall back to default, got %d", cfg.Import.ChunkChars)
	}
	if cfg.LLMProvider != "claude" {
		t.Fatalf("expected claude provider, got %s", cfg.LLMProvider)
	}
	if cfg.LLMAPIKey != "sk-test" {
		t.Fatalf("expected OPENAI_API_KEY fallback, got %q", cfg.LLMAPIKey)
	}
}

func TestNormalizeEnv(t *testing.T) {
	cases := map[string]string{
		"prod":        "production",
		"Production":  "production",
		"staging":     "staging",
		"development": "dev",
		"":            "dev",
		"weird":       "dev",
	}
	for in, want := range cases {
		if got := normalizeEnv(in); got != want {
			t.Fatalf("normalizeEnv(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMinTextCharsIsOptIn(t *testing.T) {
	t.Setenv("IMPORT_MIN_TEXT_CHARS", "")
	if got := Load().Import.MinTextChars; got != 0 {
		t.Fatalf("expected no minimum by default, got %d", got)
	}

	t.Setenv("IMPORT_MIN_TEXT_CHARS", "80")
	if got := Load().Import.MinTextChars; got != 80 {
		t.Fatalf("expected 80, got %d", got)
	}
}
