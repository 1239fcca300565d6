package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultDisplayTimezone = "Asia/Seoul"
	configPathEnv          = "EVENTRADAR_CONFIG"
	databaseDSNEnv         = "DATABASE_DSN"
	chatGPTAPIKeyEnv       = "CHATGPT_API_KEY"
	chatGPTModelEnv        = "CHATGPT_MODEL"
	telegramTokenEnv       = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv      = "TELEGRAM_CHAT_ID"
	natsURLEnv             = "NATS_URL"
	newsQueriesEnv         = "NEWS_QUERIES"
	logLevelEnv            = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Ingest        IngestConfig       `yaml:"ingest"`
	Notifications NotificationConfig `yaml:"notifications"`
	ChatGPT       ChatGPTConfig      `yaml:"chatgpt"`
	Sources       []SourceConfig     `yaml:"sources"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes the store. A postgres:// DSN selects PostgreSQL,
// anything else is a SQLite file path.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
	// RetainFor bounds how long past occurrences are kept.
	RetainFor time.Duration `yaml:"retainFor"`
}

// SchedulerConfig drives the notification tick.
type SchedulerConfig struct {
	TickInterval    time.Duration `yaml:"tickInterval"`
	Lookback        time.Duration `yaml:"lookback"`
	Lookahead       time.Duration `yaml:"lookahead"`
	LeadGrace       time.Duration `yaml:"leadGrace"`
	StartGrace      time.Duration `yaml:"startGrace"`
	NewsStartGrace  time.Duration `yaml:"newsStartGrace"`
	DisplayTimezone string        `yaml:"displayTimezone"`
	location        *time.Location
}

// TickSpec is the cron spec of the notification tick.
func (s SchedulerConfig) TickSpec() string {
	return "@every " + s.TickInterval.String()
}

// Location resolves the display timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultDisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IngestConfig controls source polling.
type IngestConfig struct {
	Schedule      string        `yaml:"schedule"`
	NewsSchedule  string        `yaml:"newsSchedule"`
	RunOnBoot     bool          `yaml:"runOnBoot"`
	HTTPTimeout   time.Duration `yaml:"httpTimeout"`
	RatePerSecond float64       `yaml:"ratePerSecond"`
	Burst         int           `yaml:"burst"`
	Summaries     bool          `yaml:"summaries"`
}

// NotificationConfig encapsulates outbound channels and the scopes served.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	NATS     NATSConfig     `yaml:"nats"`
	// Scopes are always served in addition to those known to the registry.
	Scopes []string `yaml:"scopes"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken      string        `yaml:"botToken"`
	ChatID        string        `yaml:"chatId"`
	PollTimeout   time.Duration `yaml:"pollTimeout"`
	RatePerSecond float64       `yaml:"ratePerSecond"`
	Commands      bool          `yaml:"commands"`
}

// NATSConfig publishes intents to a subject per category.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subjectPrefix"`
}

// ChatGPTConfig defines how to contact the ChatGPT API.
type ChatGPTConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"apiKey"`
	MaxTokens int    `yaml:"maxTokens"`
}

// SourceConfig describes a single source with its scanner strategy.
type SourceConfig struct {
	Name    string            `yaml:"name"`
	Scanner string            `yaml:"scanner"`
	URL     string            `yaml:"url"`
	Group   string            `yaml:"group"`
	Options map[string]string `yaml:"options"`
}

// Load reads YAML configuration (if present), applies environment overrides
// and validates the result.
func Load() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the scheduler cannot honour.
func (c Config) Validate() error {
	s := c.Scheduler
	var errs []error
	if s.TickInterval <= 0 {
		errs = append(errs, errors.New("scheduler.tickInterval must be positive"))
	}
	// A lead window narrower than the tick can fall between two ticks.
	if s.LeadGrace < s.TickInterval {
		errs = append(errs, fmt.Errorf("scheduler.leadGrace %s is shorter than tickInterval %s", s.LeadGrace, s.TickInterval))
	}
	if s.StartGrace <= 0 || s.NewsStartGrace <= 0 {
		errs = append(errs, errors.New("scheduler start grace must be positive"))
	}
	if s.Lookback <= 0 || s.Lookahead <= 0 {
		errs = append(errs, errors.New("scheduler lookback and lookahead must be positive"))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	for _, src := range c.Sources {
		if src.Name == "" || src.Scanner == "" {
			errs = append(errs, fmt.Errorf("source %q needs name and scanner", src.Name))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(natsURLEnv); v != "" {
		c.Notifications.NATS.URL = v
	}

	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}

	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(newsQueriesEnv); v != "" {
		for i := range c.Sources {
			if c.Sources[i].Scanner != "news" {
				continue
			}
			if c.Sources[i].Options == nil {
				c.Sources[i].Options = map[string]string{}
			}
			c.Sources[i].Options["queries"] = v
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.DisplayTimezone
	if tz == "" {
		tz = defaultDisplayTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultDisplayTimezone)
		loc, err = time.LoadLocation(defaultDisplayTimezone)
		if err != nil {
			loc = time.UTC
		}
	}
	c.Scheduler.location = loc
}

// Scopes returns the statically configured scopes, including the Telegram
// chat id when set.
func (c Config) Scopes() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range append([]string{c.Notifications.Telegram.ChatID}, c.Notifications.Scopes...) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.RetainFor != 0 {
		base.Database.RetainFor = override.Database.RetainFor
	}

	s := override.Scheduler
	if s.TickInterval != 0 {
		base.Scheduler.TickInterval = s.TickInterval
	}
	if s.Lookback != 0 {
		base.Scheduler.Lookback = s.Lookback
	}
	if s.Lookahead != 0 {
		base.Scheduler.Lookahead = s.Lookahead
	}
	if s.LeadGrace != 0 {
		base.Scheduler.LeadGrace = s.LeadGrace
	}
	if s.StartGrace != 0 {
		base.Scheduler.StartGrace = s.StartGrace
	}
	if s.NewsStartGrace != 0 {
		base.Scheduler.NewsStartGrace = s.NewsStartGrace
	}
	if s.DisplayTimezone != "" {
		base.Scheduler.DisplayTimezone = s.DisplayTimezone
	}

	in := override.Ingest
	if in.Schedule != "" {
		base.Ingest.Schedule = in.Schedule
	}
	if in.NewsSchedule != "" {
		base.Ingest.NewsSchedule = in.NewsSchedule
	}
	if in.RunOnBoot {
		base.Ingest.RunOnBoot = true
	}
	if in.HTTPTimeout != 0 {
		base.Ingest.HTTPTimeout = in.HTTPTimeout
	}
	if in.RatePerSecond != 0 {
		base.Ingest.RatePerSecond = in.RatePerSecond
	}
	if in.Burst != 0 {
		base.Ingest.Burst = in.Burst
	}
	if in.Summaries {
		base.Ingest.Summaries = true
	}

	tg := override.Notifications.Telegram
	if tg.BotToken != "" {
		base.Notifications.Telegram.BotToken = tg.BotToken
	}
	if tg.ChatID != "" {
		base.Notifications.Telegram.ChatID = tg.ChatID
	}
	if tg.PollTimeout != 0 {
		base.Notifications.Telegram.PollTimeout = tg.PollTimeout
	}
	if tg.RatePerSecond != 0 {
		base.Notifications.Telegram.RatePerSecond = tg.RatePerSecond
	}
	if tg.Commands {
		base.Notifications.Telegram.Commands = true
	}
	if override.Notifications.NATS.URL != "" {
		base.Notifications.NATS.URL = override.Notifications.NATS.URL
	}
	if override.Notifications.NATS.SubjectPrefix != "" {
		base.Notifications.NATS.SubjectPrefix = override.Notifications.NATS.SubjectPrefix
	}
	if len(override.Notifications.Scopes) > 0 {
		base.Notifications.Scopes = override.Notifications.Scopes
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.MaxTokens != 0 {
		base.ChatGPT.MaxTokens = override.ChatGPT.MaxTokens
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{DSN: "data/eventradar.db", RetainFor: 30 * 24 * time.Hour},
		Scheduler: SchedulerConfig{
			TickInterval:    15 * time.Minute,
			Lookback:        24 * time.Hour,
			Lookahead:       72 * time.Hour,
			LeadGrace:       18 * time.Minute,
			StartGrace:      15 * time.Minute,
			NewsStartGrace:  60 * time.Minute,
			DisplayTimezone: defaultDisplayTimezone,
		},
		Ingest: IngestConfig{
			Schedule:      "@every 30m",
			NewsSchedule:  "@every 5m",
			RunOnBoot:     true,
			HTTPTimeout:   15 * time.Second,
			RatePerSecond: 2,
			Burst:         2,
			Summaries:     true,
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{PollTimeout: 10 * time.Second, RatePerSecond: 1, Commands: true},
			NATS:     NATSConfig{SubjectPrefix: "eventradar.notify"},
		},
		ChatGPT: ChatGPTConfig{
			Endpoint:  "https://api.openai.com/v1/chat/completions",
			Model:     "gpt-4o-mini",
			MaxTokens: 180,
		},
		Sources: []SourceConfig{
			{Name: "fed-speeches", Scanner: "fed", URL: "https://www.federalreserve.gov/feeds/speeches.xml", Group: "central-banks"},
			{Name: "ecb-weekly", Scanner: "ecb", URL: "https://www.ecb.europa.eu/press/calendars/weekly/html/index.en.html", Group: "central-banks"},
			{Name: "boe-speeches", Scanner: "boe", URL: "https://www.bankofengland.co.uk/speeches", Group: "central-banks"},
			{Name: "bls-cpi", Scanner: "cpi", URL: "https://www.bls.gov/schedule/news_release/cpi.htm", Group: "releases"},
			{Name: "bls-nfp", Scanner: "nfp", URL: "https://www.bls.gov/schedule/news_release/empsit.htm", Group: "releases"},
			{Name: "fomc-calendar", Scanner: "fomc", URL: "https://www.federalreserve.gov/monetarypolicy/fomccalendars.htm", Group: "releases"},
			{Name: "google-news", Scanner: "news", URL: "https://news.google.com/rss/search", Group: "news"},
		},
	}
}
