package app

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"
)

// Config holds all application configuration.
type Config struct {
	Browser  BrowserConfig   `koanf:"browser" validate:"required"`
	Walk     WalkConfig      `koanf:"walk" validate:"required"`
	Download DownloadConfig  `koanf:"download" validate:"required"`
	Logging  LoggingConfig   `koanf:"logging"`
	Backends []BackendConfig `koanf:"backends" validate:"required,min=1,dive"`
}

// BrowserConfig holds settings for the hidden Chrome instance.
type BrowserConfig struct {
	ChromePath      string        `koanf:"chrome_path"`
	Headless        bool          `koanf:"headless"`
	NoSandbox       bool          `koanf:"no_sandbox"`
	Insecure        bool          `koanf:"insecure"`
	BypassTurnstile bool          `koanf:"bypass_turnstile"`
	NavigateTimeout time.Duration `koanf:"navigate_timeout" validate:"required"`
	TurnstileSolve  time.Duration `koanf:"turnstile_solve_timeout"`
	TurnstileRetry  time.Duration `koanf:"turnstile_retry_timeout"`
}

// SettleMode selects how the walker waits for the page after an interaction.
type SettleMode string

const (
	SettleSleep SettleMode = "sleep"
	SettlePoll  SettleMode = "poll"
)

// WalkConfig holds the timing of the story walk.
type WalkConfig struct {
	Timeout        time.Duration `koanf:"timeout" validate:"required"`
	Settle         SettleMode    `koanf:"settle" validate:"required,oneof=sleep poll"`
	PollInterval   time.Duration `koanf:"poll_interval" validate:"required_if=Settle poll"`
	LoadSettle     time.Duration `koanf:"load_settle"`
	ClickSettle    time.Duration `koanf:"click_settle"`
	PopupSettle    time.Duration `koanf:"popup_settle"`
	StepInterval   time.Duration `koanf:"step_interval"`
	Slides         int           `koanf:"slides" validate:"required,min=1"`
	StopOnStale    bool          `koanf:"stop_on_stale"`
	StaleLimit     int           `koanf:"stale_limit" validate:"required_if=StopOnStale true"`
	MaxConcurrency int           `koanf:"max_concurrency" validate:"required,min=1"`
}

// DownloadConfig holds settings for fetching pages and media over HTTP.
type DownloadConfig struct {
	OutputDir      string        `koanf:"output_dir" validate:"required"`
	UserAgent      string        `koanf:"user_agent" validate:"required"`
	Timeout        time.Duration `koanf:"timeout" validate:"required"`
	Insecure       bool          `koanf:"insecure"`
	Retries        int           `koanf:"retries" validate:"min=0"`
	BackoffMin     time.Duration `koanf:"backoff_min"`
	BackoffMax     time.Duration `koanf:"backoff_max" validate:"gtefield=BackoffMin"`
	MaxConcurrency int           `koanf:"max_concurrency" validate:"required,min=1"`
	RatePerSecond  int           `koanf:"rate_per_second" validate:"min=0"`
	UpgradeVideos  bool          `koanf:"upgrade_videos"`
}

// LoggingConfig holds the optional rotating log file.
type LoggingConfig struct {
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb" validate:"min=0"`
	MaxBackups int    `koanf:"max_backups" validate:"min=0"`
	MaxAgeDays int    `koanf:"max_age_days" validate:"min=0"`
}

// BackendKind tells whether a mirror needs a browser or serves plain HTML.
type BackendKind string

const (
	KindBrowser BackendKind = "browser"
	KindStatic  BackendKind = "static"
)

// BackendConfig defines one mirror site family.
type BackendConfig struct {
	Name        string      `koanf:"name" validate:"required"`
	Kind        BackendKind `koanf:"kind" validate:"required,oneof=browser static"`
	Mirrors     []string    `koanf:"mirrors" validate:"required,min=1,dive,url"`
	ProfilePath string      `koanf:"profile_path" validate:"required,contains={username}"`
}

// Load reads and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// ConfigFrom extracts the Config from the CLI command metadata.
func ConfigFrom(cmd *cli.Command) (*Config, error) {
	v, ok := cmd.Root().Metadata["config"]
	if !ok {
		return nil, fmt.Errorf("config not found in command metadata")
	}
	cfg, ok := v.(*Config)
	if !ok {
		return nil, fmt.Errorf("config has unexpected type %T", v)
	}
	return cfg, nil
}
