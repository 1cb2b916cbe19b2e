package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Providers understood by the source factory.
const (
	Provider104      = "104"
	ProviderCake     = "cake"
	ProviderYourator = "yourator"
)

// Notification types.
const (
	NotifyTelegram = "telegram"
	NotifyLog      = "log"
)

const (
	// EnvConfigPath names the config file when --config is not given.
	EnvConfigPath     = "JOBDIGEST_CONFIG"
	defaultConfigPath = "config.yaml"

	defaultRetention      = 5 * time.Hour
	defaultInterPageDelay = 10 * time.Second
	defaultJobsPerMessage = 10
	defaultMaxPages       = 5
	defaultSchedule       = "@every 6h"
	defaultHTTPTimeout    = 30 * time.Second
	defaultWaitTimeout    = 10 * time.Second
	defaultMinInterval    = time.Second

	// A Telegram message holds 4096 characters. A rendered job with a full
	// link runs to about 300, so 12 is the most that reliably fit.
	maxJobsPerMessage = 12
)

// DefaultKeywords is the relevance set for QA roles, in English and Chinese.
var DefaultKeywords = []string{
	"qa", "測試", "test", "testing", "sdet", "quality", "品質",
	"quality assurance", "軟體測試", "軟體測試工程師", "set",
}

// Config is the root configuration for jobdigest.
type Config struct {
	Notification   NotificationConfig
	Retention      time.Duration // how long a digest stays in the channel
	InterPageDelay time.Duration
	JobsPerMessage int
	Schedule       string // cron spec for the daemon
	LedgerPath     string // empty keeps the ledger in memory
	HTTPTimeout    time.Duration
	Browser        BrowserConfig
	Keywords       []string // used by sources without their own keywords
	Sources        []SourceConfig
}

// NotificationConfig controls where digests go.
type NotificationConfig struct {
	Type        string        // "telegram" or "log"
	ChatID      string        // default destination, overridden by TELEGRAM_CHAT_ID
	MinInterval time.Duration // minimum gap between calls to the same chat
}

// BrowserConfig controls the headless browser used by browser-rendered sources.
type BrowserConfig struct {
	Headless    bool
	WaitTimeout time.Duration // bound on waiting for the listing to render
}

// SourceConfig describes a single job-listing source.
type SourceConfig struct {
	Name     string
	Provider string
	Label    string // shown in the digest header
	Enabled  bool
	URL      string // listing or API URL; provider default when empty
	BaseURL  string // origin for root-relative links; provider default when empty
	MaxPages int
	Params   map[string][]string
	Headers  map[string]string
	Keywords []string
	ChatID   string // overrides Notification.ChatID
}

// StringList accepts either a single YAML scalar or a sequence of scalars.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = StringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Notification   rawNotificationConfig `yaml:"notification"`
	Retention      string                `yaml:"retention"`
	InterPageDelay string                `yaml:"inter_page_delay"`
	JobsPerMessage int                   `yaml:"jobs_per_message"`
	Schedule       string                `yaml:"schedule"`
	LedgerPath     string                `yaml:"ledger_path"`
	HTTPTimeout    string                `yaml:"http_timeout"`
	Browser        rawBrowserConfig      `yaml:"browser"`
	Keywords       []string              `yaml:"keywords"`
	Sources        []rawSourceConfig     `yaml:"sources"`
}

type rawNotificationConfig struct {
	Type        string `yaml:"type"`
	ChatID      string `yaml:"chat_id"`
	MinInterval string `yaml:"min_interval"`
}

type rawBrowserConfig struct {
	Headless    *bool  `yaml:"headless"`
	WaitTimeout string `yaml:"wait_timeout"`
}

type rawSourceConfig struct {
	Name     string                `yaml:"name"`
	Provider string                `yaml:"provider"`
	Label    string                `yaml:"label"`
	Enabled  *bool                 `yaml:"enabled"`
	URL      string                `yaml:"url"`
	BaseURL  string                `yaml:"base_url"`
	MaxPages int                   `yaml:"max_pages"`
	Params   map[string]StringList `yaml:"params"`
	Headers  map[string]string     `yaml:"headers"`
	Keywords []string              `yaml:"keywords"`
	ChatID   string                `yaml:"chat_id"`
}

// ResolvePath picks the config file: the flag value, then $JOBDIGEST_CONFIG,
// then ./config.yaml.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return defaultConfigPath
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		JobsPerMessage: raw.JobsPerMessage,
		Schedule:       raw.Schedule,
		LedgerPath:     raw.LedgerPath,
		Keywords:       raw.Keywords,
		Notification: NotificationConfig{
			Type:   strings.ToLower(strings.TrimSpace(raw.Notification.Type)),
			ChatID: strings.TrimSpace(raw.Notification.ChatID),
		},
		Browser: BrowserConfig{Headless: true},
	}

	durations := []struct {
		key  string
		raw  string
		def  time.Duration
		dest *time.Duration
	}{
		{"retention", raw.Retention, defaultRetention, &cfg.Retention},
		{"inter_page_delay", raw.InterPageDelay, defaultInterPageDelay, &cfg.InterPageDelay},
		{"http_timeout", raw.HTTPTimeout, defaultHTTPTimeout, &cfg.HTTPTimeout},
		{"notification.min_interval", raw.Notification.MinInterval, defaultMinInterval, &cfg.Notification.MinInterval},
		{"browser.wait_timeout", raw.Browser.WaitTimeout, defaultWaitTimeout, &cfg.Browser.WaitTimeout},
	}
	for _, d := range durations {
		*d.dest = d.def
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", d.key, d.raw, err)
		}
		*d.dest = v
	}

	if cfg.Notification.Type == "" {
		cfg.Notification.Type = NotifyTelegram
	}
	if cfg.JobsPerMessage == 0 {
		cfg.JobsPerMessage = defaultJobsPerMessage
	}
	if cfg.Schedule == "" {
		cfg.Schedule = defaultSchedule
	}
	if cfg.Keywords == nil {
		cfg.Keywords = DefaultKeywords
	}
	if raw.Browser.Headless != nil {
		cfg.Browser.Headless = *raw.Browser.Headless
	}

	for _, rs := range raw.Sources {
		sc := SourceConfig{
			Name:     strings.TrimSpace(rs.Name),
			Provider: strings.ToLower(strings.TrimSpace(rs.Provider)),
			Label:    rs.Label,
			Enabled:  rs.Enabled == nil || *rs.Enabled,
			URL:      rs.URL,
			BaseURL:  rs.BaseURL,
			MaxPages: rs.MaxPages,
			Headers:  rs.Headers,
			Keywords: rs.Keywords,
			ChatID:   strings.TrimSpace(rs.ChatID),
		}
		if sc.MaxPages == 0 {
			sc.MaxPages = defaultMaxPages
		}
		if sc.Keywords == nil {
			sc.Keywords = cfg.Keywords
		}
		if len(rs.Params) > 0 {
			sc.Params = make(map[string][]string, len(rs.Params))
			for k, v := range rs.Params {
				sc.Params[k] = []string(v)
			}
		}
		cfg.Sources = append(cfg.Sources, sc)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Notification.Type {
	case NotifyTelegram, NotifyLog:
	default:
		return fmt.Errorf("notification.type must be %q or %q, got %q", NotifyTelegram, NotifyLog, cfg.Notification.Type)
	}
	if cfg.Notification.MinInterval < 0 {
		return fmt.Errorf("notification.min_interval must not be negative, got %v", cfg.Notification.MinInterval)
	}
	if cfg.Retention < 0 {
		return fmt.Errorf("retention must not be negative, got %v", cfg.Retention)
	}
	if cfg.InterPageDelay < 0 {
		return fmt.Errorf("inter_page_delay must not be negative, got %v", cfg.InterPageDelay)
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %v", cfg.HTTPTimeout)
	}
	if cfg.Browser.WaitTimeout <= 0 {
		return fmt.Errorf("browser.wait_timeout must be positive, got %v", cfg.Browser.WaitTimeout)
	}
	if cfg.JobsPerMessage < 1 || cfg.JobsPerMessage > maxJobsPerMessage {
		return fmt.Errorf("jobs_per_message must be between 1 and %d, got %d", maxJobsPerMessage, cfg.JobsPerMessage)
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.Schedule, err)
	}

	seen := make(map[string]bool)
	enabled := 0
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("sources[%d]: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = true

		switch s.Provider {
		case Provider104, ProviderCake, ProviderYourator:
		default:
			return fmt.Errorf("source %q: unknown provider %q", s.Name, s.Provider)
		}
		if s.MaxPages < 1 {
			return fmt.Errorf("source %q: max_pages must be at least 1, got %d", s.Name, s.MaxPages)
		}
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	return nil
}

// EnabledSources returns the enabled sources, or only the one called name
// when name is non-empty.
func (c *Config) EnabledSources(name string) ([]SourceConfig, error) {
	var out []SourceConfig
	for _, s := range c.Sources {
		if !s.Enabled {
			continue
		}
		if name != "" && s.Name != name {
			continue
		}
		out = append(out, s)
	}
	if name != "" && len(out) == 0 {
		return nil, fmt.Errorf("no enabled source named %q", name)
	}
	return out, nil
}

// ChatIDFor returns the destination chat of a source.
func (c *Config) ChatIDFor(s SourceConfig) string {
	if s.ChatID != "" {
		return s.ChatID
	}
	return c.Notification.ChatID
}

// Secrets are credentials read from the environment, never from the YAML file.
type Secrets struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `env:"TELEGRAM_CHAT_ID"`
}

// LoadSecrets loads envFile into the process environment, without
// overriding variables that are already set, and parses Secrets from it. A
// missing envFile is not an error.
func LoadSecrets(envFile string) (Secrets, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Secrets{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var s Secrets
	if err := env.Parse(&s); err != nil {
		return Secrets{}, fmt.Errorf("parse environment: %w", err)
	}
	s.TelegramBotToken = strings.TrimSpace(s.TelegramBotToken)
	s.TelegramChatID = strings.TrimSpace(s.TelegramChatID)
	return s, nil
}

// ApplySecrets folds environment overrides into cfg and checks that the
// chosen notification type has what it needs.
func (c *Config) ApplySecrets(s Secrets) error {
	if s.TelegramChatID != "" {
		c.Notification.ChatID = s.TelegramChatID
	}
	if c.Notification.Type != NotifyTelegram {
		return nil
	}
	if s.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required when notification.type is %q", NotifyTelegram)
	}
	for _, src := range c.Sources {
		if src.Enabled && c.ChatIDFor(src) == "" {
			return fmt.Errorf("source %q has no chat id: set notification.chat_id, TELEGRAM_CHAT_ID or sources[].chat_id", src.Name)
		}
	}
	return nil
}
