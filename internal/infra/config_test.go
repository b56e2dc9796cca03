package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

const validYAML = `
app:
  name: betstream
  version: "1.0"
api:
  stream:
    ws_url: wss://stream.example.com/api
    app_key: file-key
    session_token: file-token
    markets: ["1.2345", "1.6789"]
    ladder_levels: 3
    heartbeat_ms: 5000
    conflate_ms: 0
  session:
    keepalive_url: https://identity.example.com/keepAlive
    poll_interval_sec: 600
engine:
  inbox_size: 8192
  record_stream: false
  liability_alert: "250.00"
logging:
  level: info
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("Valid File", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, validYAML))
		if err != nil {
			t.Fatalf("Expected config to load, got %v", err)
		}
		if cfg.API.Stream.WSURL != "wss://stream.example.com/api" {
			t.Errorf("Unexpected WS URL: %s", cfg.API.Stream.WSURL)
		}
		if len(cfg.API.Stream.Markets) != 2 {
			t.Errorf("Expected 2 markets, got %v", cfg.API.Stream.Markets)
		}
		if cfg.Engine.InboxSize != 8192 {
			t.Errorf("Expected inbox size 8192, got %d", cfg.Engine.InboxSize)
		}
		if !cfg.Engine.LiabilityAlert.Equal(decimal.NewFromInt(250)) {
			t.Errorf("Expected liability alert 250, got %s", cfg.Engine.LiabilityAlert)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("Expected an error for a missing file")
		}
	})

	t.Run("Environment Overrides Credentials", func(t *testing.T) {
		t.Setenv("BETSTREAM_APP_KEY", "env-key")
		t.Setenv("BETSTREAM_SESSION_TOKEN", "env-token")

		cfg, err := LoadConfig(writeConfig(t, validYAML))
		if err != nil {
			t.Fatalf("Expected config to load, got %v", err)
		}
		if cfg.API.Stream.AppKey != "env-key" {
			t.Errorf("Expected app key override, got %s", cfg.API.Stream.AppKey)
		}
		if cfg.API.Stream.SessionToken != "env-token" {
			t.Errorf("Expected session token override, got %s", cfg.API.Stream.SessionToken)
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.API.Stream.WSURL = "wss://stream.example.com/api"
		cfg.API.Stream.Markets = []string{"1.2345"}
		cfg.API.Stream.LadderLevels = 3
		cfg.Engine.InboxSize = 1024
		return cfg
	}

	t.Run("Valid", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("Expected valid config, got %v", err)
		}
	})

	t.Run("Bad WS URL", func(t *testing.T) {
		cfg := valid()
		cfg.API.Stream.WSURL = "https://stream.example.com"
		if err := cfg.Validate(); err == nil {
			t.Error("Expected an error for a non-websocket URL")
		}
	})

	t.Run("No Markets", func(t *testing.T) {
		cfg := valid()
		cfg.API.Stream.Markets = nil
		if err := cfg.Validate(); err == nil {
			t.Error("Expected an error for empty market list")
		}
	})

	t.Run("Ladder Levels Out Of Range", func(t *testing.T) {
		cfg := valid()
		cfg.API.Stream.LadderLevels = 11
		if err := cfg.Validate(); err == nil {
			t.Error("Expected an error for ladder levels over 10")
		}
	})

	t.Run("Inbox Size", func(t *testing.T) {
		cfg := valid()
		cfg.Engine.InboxSize = 0
		if err := cfg.Validate(); err == nil {
			t.Error("Expected an error for zero inbox size")
		}
	})
}
