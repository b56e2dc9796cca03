package infra

import (
	"fmt"
	"os"

	"betstream/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds every application setting. Credentials can be
// overridden through environment variables after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		Stream struct {
			WSURL        string   `yaml:"ws_url"`
			AppKey       string   `yaml:"app_key"`
			SessionToken string   `yaml:"session_token"`
			Markets      []string `yaml:"markets"`
			LadderLevels int      `yaml:"ladder_levels"`
			HeartbeatMS  int      `yaml:"heartbeat_ms"`
			ConflateMS   int      `yaml:"conflate_ms"`
		} `yaml:"stream"`
		Session struct {
			KeepAliveURL    string `yaml:"keepalive_url"`
			PollIntervalSec int    `yaml:"poll_interval_sec"`
		} `yaml:"session"`
	} `yaml:"api"`

	Engine struct {
		InboxSize    int  `yaml:"inbox_size"`
		RecordStream bool `yaml:"record_stream"`
		RecordPath   string `yaml:"record_path"`
		// Warn when a runner's unmatched liability crosses this value.
		LiabilityAlert decimal.Decimal `yaml:"liability_alert"`
	} `yaml:"engine"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, applies
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	s := &c.API.Stream
	if s.WSURL == "" || (!hasPrefix(s.WSURL, "ws://") && !hasPrefix(s.WSURL, "wss://")) {
		return fmt.Errorf("invalid stream WS URL: %s", s.WSURL)
	}
	if len(s.Markets) == 0 {
		return fmt.Errorf("%w: at least one market id is required", domain.ErrInvalidMarket)
	}
	if s.LadderLevels < 0 || s.LadderLevels > 10 {
		return fmt.Errorf("ladder levels must be between 0 and 10, got %d", s.LadderLevels)
	}
	if c.Engine.InboxSize <= 0 {
		return fmt.Errorf("engine inbox size must be positive")
	}
	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv overwrites credentials when environment variables are set.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("BETSTREAM_APP_KEY"); key != "" {
		cfg.API.Stream.AppKey = key
	}
	if token := os.Getenv("BETSTREAM_SESSION_TOKEN"); token != "" {
		cfg.API.Stream.SessionToken = token
	}
}
