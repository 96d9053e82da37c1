package config

import (
	"os"
	"strconv"
	"time"

	"dario.cat/mergo"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/netwatch/internal/domain"
	"github.com/hamed0406/netwatch/internal/registry"
)

// TargetConfig is one entry of the targets list. Enabled is a pointer so an
// omitted key defaults to true instead of false.
type TargetConfig struct {
	Name      string `yaml:"name"`
	URL       string `yaml:"url"`
	Enabled   *bool  `yaml:"enabled"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type Config struct {
	Listen          string         `yaml:"listen"`            // API bind address, e.g. "127.0.0.1:8080" or ":8080"
	LogDir          string         `yaml:"log_dir"`           // logs directory
	CheckIntervalMS int            `yaml:"check_interval_ms"` // time between probe cycles
	RetryAttempts   int            `yaml:"retry_attempts"`    // probe attempts per target per cycle
	RetryBackoffMS  int            `yaml:"retry_backoff_ms"`  // pause between attempts
	AlertCooldownMS int            `yaml:"alert_cooldown_ms"` // minimum gap between DOWN alerts per target
	AlertOnRecovery *bool          `yaml:"alert_on_recovery"` // nil means true
	SlackWebhook    string         `yaml:"slack_webhook"`
	WebhookURL      string         `yaml:"webhook_url"`
	PingPrivileged  bool           `yaml:"ping_privileged"` // raw ICMP sockets instead of UDP ping
	Targets         []TargetConfig `yaml:"targets"`
}

func Default() Config {
	return Config{
		Listen:          "127.0.0.1:8080",
		LogDir:          "logs",
		CheckIntervalMS: 30000,
		RetryAttempts:   3,
		RetryBackoffMS:  300,
		AlertCooldownMS: 300000,
	}
}

// Load reads the YAML file at path and merges it over Default(). A config
// with no targets or with an invalid target list is rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	cfg := Default()
	if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
		return Config{}, errors.Wrap(err, "merge config")
	}
	if len(cfg.Targets) == 0 {
		return Config{}, errors.Errorf("config %s: no targets defined", path)
	}
	if err := registry.Validate(cfg.BuildTargets()); err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// WithEnvOverrides returns a copy with NETWATCH_* environment variables
// applied on top of whatever the file set.
func (c Config) WithEnvOverrides() Config {
	if v := os.Getenv("NETWATCH_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("NETWATCH_LOG_DIR"); v != "" {
		c.LogDir = v
	}
	if v := os.Getenv("NETWATCH_SLACK_WEBHOOK"); v != "" {
		c.SlackWebhook = v
	}
	if v := os.Getenv("NETWATCH_WEBHOOK_URL"); v != "" {
		c.WebhookURL = v
	}
	if v := os.Getenv("NETWATCH_CHECK_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			c.CheckIntervalMS = ms
		}
	}
	if v := os.Getenv("NETWATCH_RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RetryAttempts = n
		}
	}
	if v := os.Getenv("NETWATCH_RETRY_BACKOFF_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			c.RetryBackoffMS = ms
		}
	}
	return c
}

// BuildTargets resolves the target list into domain targets, filling in the
// enabled and timeout defaults.
func (c Config) BuildTargets() []domain.Target {
	out := make([]domain.Target, 0, len(c.Targets))
	for _, tc := range c.Targets {
		enabled := true
		if tc.Enabled != nil {
			enabled = *tc.Enabled
		}
		timeout := domain.DefaultTimeout
		if tc.TimeoutMS > 0 {
			timeout = time.Duration(tc.TimeoutMS) * time.Millisecond
		}
		out = append(out, domain.Target{
			Name:    tc.Name,
			URL:     tc.URL,
			Enabled: enabled,
			Timeout: timeout,
		})
	}
	return out
}

func (c Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalMS) * time.Millisecond
}

func (c Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

func (c Config) AlertCooldown() time.Duration {
	return time.Duration(c.AlertCooldownMS) * time.Millisecond
}

func (c Config) RecoveryAlerts() bool {
	if c.AlertOnRecovery == nil {
		return true
	}
	return *c.AlertOnRecovery
}
