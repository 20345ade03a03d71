package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Server configuration
	Host string `long:"host" env:"SERVER_HOST" default:"127.0.0.1" description:"HTTP server bind address"`
	Port int    `long:"port" env:"SERVER_PORT" default:"3030" description:"HTTP server port"`

	// Upstream feed
	SourceURL    string `long:"source-url" env:"RSS_SOURCE_URL" default:"https://example.com/rss.xml" description:"Upstream RSS feed URL"`
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"RSS Retitle/1.0" description:"User agent string for upstream requests"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Upstream fetch timeout in seconds"`
	FetchRetries uint64 `long:"fetch-retries" env:"FETCH_RETRIES" default:"0" description:"Retries for failed upstream fetches"`

	// Rules
	DefaultPriority uint32 `long:"default-priority" env:"CONVERSION_DEFAULT_PRIORITY" default:"100" description:"Priority for rules that do not set one"`
	RulesFile       string `long:"rules-file" env:"RULES_FILE" description:"YAML or TOML file with conversion rules (optional)"`
	WatchRules      bool   `long:"watch-rules" env:"WATCH_RULES" description:"Reload rules when the rules file changes"`
	DBPath          string `long:"db-path" env:"DB_PATH" description:"SQLite rule store path (optional)"`
	NormalizeTitles bool   `long:"normalize-titles" env:"NORMALIZE_TITLES" description:"Match rules against NFC-normalized titles"`

	// Behaviour
	ParseErrorMode string `long:"parse-error-mode" env:"PARSE_ERROR_MODE" default:"error" choice:"error" choice:"partial" description:"Response for malformed upstream XML"`
	APIAccessKey   string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for the rule management API (optional)"`

	// Application metadata
	LogLevel string `long:"log-level" env:"LOGGING_LEVEL" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Log level"`
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
}

// Load reads configuration from command line flags and environment. It returns nil, nil
// when help was requested.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Host:            raw.Host,
		Port:            raw.Port,
		SourceURL:       raw.SourceURL,
		UserAgent:       raw.UserAgent,
		FetchTimeout:    time.Duration(raw.FetchTimeout) * time.Second,
		FetchRetries:    raw.FetchRetries,
		DefaultPriority: raw.DefaultPriority,
		RulesFile:       raw.RulesFile,
		WatchRules:      raw.WatchRules,
		DBPath:          raw.DBPath,
		NormalizeTitles: raw.NormalizeTitles,
		ParseErrorMode:  strings.ToLower(raw.ParseErrorMode),
		APIAccessKey:    raw.APIAccessKey,
		LogLevel:        raw.LogLevel,
		Timezone:        raw.Timezone,
		Version:         GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func validate(cfg *Cfg) error {
	if cfg.SourceURL == "" {
		return fmt.Errorf("source URL is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Port)
	}
	if cfg.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if cfg.WatchRules && cfg.RulesFile == "" {
		return fmt.Errorf("watch-rules requires a rules file")
	}
	return nil
}

// SlogLevel maps the configured level name onto slog.
func (c *Cfg) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
