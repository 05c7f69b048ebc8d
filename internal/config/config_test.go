package config

import (
	"strings"
	"testing"
	"time"
)

func testConfig() *Config {
	return &Config{
		AppEnv:             EnvTest,
		AppName:            "paceline",
		Port:               "3000",
		PublicURL:          "http://localhost:3000",
		FrontendURL:        "http://localhost:3001",
		DatabaseURL:        ":memory:",
		StravaClientID:     "12345",
		StravaClientSecret: "shhh",
		SessionSecret:      strings.Repeat("s", 32),
		SessionTTL:         168 * time.Hour,
		RefreshLeeway:      60 * time.Second,
		LogLevel:           "INFO",
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(testConfig()); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_MissingSessionSecret(t *testing.T) {
	cfg := testConfig()
	cfg.SessionSecret = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for missing session secret")
	}
}

func TestValidate_ShortSessionSecret(t *testing.T) {
	cfg := testConfig()
	cfg.SessionSecret = "too-short"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for short session secret")
	}
}

func TestValidate_MissingClientCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.StravaClientID = ""
	cfg.StravaClientSecret = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for missing client credentials")
	}
}

func TestStringRedactsSecrets(t *testing.T) {
	cfg := testConfig()
	s := cfg.String()
	if strings.Contains(s, cfg.SessionSecret) || strings.Contains(s, cfg.StravaClientSecret) {
		t.Fatalf("secrets leaked in String(): %s", s)
	}
	if !strings.Contains(s, "***REDACTED***") {
		t.Fatalf("expected redaction marker in %s", s)
	}
}

func TestToSnakeCase(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"TestCamelCase", "test_camel_case"},
		{"SessionTTL", "session_ttl"},
		{"PublicURL", "public_url"},
		{"UserID", "user_id"},
		{"API", "api"},
	}

	for _, c := range cases {
		got := toSnakeCase(c.in)
		if got != c.want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
