package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"YOUTUBE_API_KEY", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GEMINI_API_KEY",
		"EMAIL_USERNAME", "EMAIL_PASSWORD", "REDIS_URL", "PORT",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
youtube:
  api_key: yt-key
ai:
  gemini_api_key: gem-key
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.AI.Model != "gemini-2.5-flash" {
		t.Errorf("AI.Model = %s, want gemini-2.5-flash", cfg.AI.Model)
	}
	if *cfg.Selector.MaxRetries != 4 || *cfg.Selector.ThresholdMinutes != 5 ||
		cfg.Selector.MinDurationMinutes != 2 || cfg.Selector.SearchLimit != 15 {
		t.Errorf("unexpected selector defaults: %+v", cfg.Selector)
	}
	if cfg.Selector.FastFirstAttempt == nil || !*cfg.Selector.FastFirstAttempt {
		t.Error("FastFirstAttempt should default to true")
	}
	if cfg.Planner.DurationSlackMinutes != 10 || cfg.Planner.Concurrency != 4 {
		t.Errorf("unexpected planner defaults: %+v", cfg.Planner)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "file" || cfg.Storage.Path != "data" {
		t.Errorf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Digest.Schedule != "0 0 9 * * *" {
		t.Errorf("Digest.Schedule = %s", cfg.Digest.Schedule)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
youtube:
  client_id: id
  client_secret: secret
ai:
  gemini_api_key: gem-key
selector:
  fast_first_attempt: false
  max_retries: 2
storage:
  backend: sqlite
digest:
  topics:
    - topic: Linear Algebra
      minutes: 90
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if *cfg.Selector.FastFirstAttempt {
		t.Error("FastFirstAttempt should be false")
	}
	if *cfg.Selector.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", *cfg.Selector.MaxRetries)
	}
	if cfg.Storage.Path != "data/plans.db" {
		t.Errorf("Storage.Path = %s, want data/plans.db", cfg.Storage.Path)
	}
	if len(cfg.Digest.Topics) != 1 || cfg.Digest.Topics[0].Minutes != 90 {
		t.Errorf("Digest.Topics = %+v", cfg.Digest.Topics)
	}
}

func TestLoadFileFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("YOUTUBE_API_KEY", "env-yt")
	t.Setenv("GEMINI_API_KEY", "env-gem")
	t.Setenv("PORT", "9090")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.YouTube.APIKey != "env-yt" || cfg.AI.GeminiAPIKey != "env-gem" {
		t.Errorf("credentials not read from env: %+v %+v", cfg.YouTube, cfg.AI)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
}

func TestLoadFileValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{"Missing YouTube credentials", "ai:\n  gemini_api_key: k\n", "YouTube credentials"},
		{"Missing Gemini key", "youtube:\n  api_key: k\n", "Gemini API key"},
		{"Bad storage backend", "youtube:\n  api_key: k\nai:\n  gemini_api_key: k\nstorage:\n  backend: mongo\n", "storage.backend"},
		{"Bad digest topic", "youtube:\n  api_key: k\nai:\n  gemini_api_key: k\ndigest:\n  topics:\n    - topic: Go\n", "digest topics"},
		{"Malformed YAML", "youtube: [", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := LoadFile(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("LoadFile() error = %v, want containing %q", err, tt.errPart)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	cfg := &Config{Email: EmailConfig{SMTPServer: "smtp.test.com", Username: "u", Password: "p"}}
	if err := cfg.ValidateEmail(); err == nil {
		t.Error("expected error without from/to addresses")
	}

	cfg.Email.FromEmail = "from@test.com"
	cfg.Email.ToEmail = "to@test.com"
	if err := cfg.ValidateEmail(); err != nil {
		t.Errorf("ValidateEmail() error = %v", err)
	}
}

func TestLoadFileKeepsExplicitZeroRetries(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
youtube:
  api_key: yt-key
ai:
  gemini_api_key: gem-key
selector:
  max_retries: 0
  threshold_minutes: 0
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if *cfg.Selector.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", *cfg.Selector.MaxRetries)
	}
	if *cfg.Selector.ThresholdMinutes != 0 {
		t.Errorf("ThresholdMinutes = %v, want 0", *cfg.Selector.ThresholdMinutes)
	}
}

func TestLoadFileRejectsNegativeSelectorValues(t *testing.T) {
	for _, content := range []string{
		"youtube:\n  api_key: k\nai:\n  gemini_api_key: k\nselector:\n  max_retries: -1\n",
		"youtube:\n  api_key: k\nai:\n  gemini_api_key: k\nselector:\n  threshold_minutes: -5\n",
	} {
		clearEnv(t)
		if _, err := LoadFile(writeConfig(t, content)); err == nil || !strings.Contains(err.Error(), "must not be negative") {
			t.Errorf("LoadFile() error = %v, want negative value rejection", err)
		}
	}
}

func TestLoadYouTubeWithoutGeminiKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeConfig(t, `
youtube:
  client_id: id
  client_secret: secret
`))

	cfg, err := LoadYouTube()
	if err != nil {
		t.Fatalf("LoadYouTube() error = %v", err)
	}
	if cfg.YouTube.ClientID != "id" || cfg.YouTube.TokenFile != "youtube_token.json" {
		t.Errorf("unexpected YouTube config: %+v", cfg.YouTube)
	}

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "Gemini API key") {
		t.Errorf("Load() error = %v, want Gemini key requirement", err)
	}
}

func TestLoadYouTubeRequiresCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeConfig(t, "ai:\n  gemini_api_key: k\n"))

	if _, err := LoadYouTube(); err == nil || !strings.Contains(err.Error(), "YouTube credentials") {
		t.Errorf("LoadYouTube() error = %v", err)
	}
}
