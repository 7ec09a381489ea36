package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Content store configuration
	GraphQLEndpoint string `long:"graphql-endpoint" env:"GRAPHQL_ENDPOINT" description:"Content store GraphQL endpoint (e.g., https://cms.example.com/graphql/)" required:"true"`
	StoreTimeout    int    `long:"store-timeout" env:"STORE_TIMEOUT" default:"10" description:"Content store query timeout in seconds"`

	// Redirect policy and rendering
	PolicyFile string `long:"policy-file" env:"POLICY_FILE" description:"YAML file with redirect referrer domains and tracking params (optional)"`
	Locale     string `long:"locale" env:"LOCALE" default:"en-US" description:"BCP 47 locale used for og:locale"`

	// HTTP server configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Resolution log configuration
	DBPath            string `long:"db-path" env:"DB_PATH" default:"./data/post-relay.db" description:"SQLite database file for the resolution log"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers writing the resolution log"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"3600" description:"Resolution log prune interval in seconds"`
	LogRetentionDays  int    `long:"log-retention-days" env:"LOG_RETENTION_DAYS" default:"30" description:"Days to keep resolution log entries (0 keeps forever)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" description:"User agent string for content store requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load reads configuration from a .env file, the environment and the command
// line. It returns (nil, nil) when help was requested.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		GraphQLEndpoint:   raw.GraphQLEndpoint,
		StoreTimeout:      raw.StoreTimeout,
		PolicyFile:        raw.PolicyFile,
		Locale:            raw.Locale,
		Port:              raw.Port,
		APIAccessKey:      raw.APIAccessKey,
		DBPath:            raw.DBPath,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		LogRetentionDays:  raw.LogRetentionDays,
		UserAgent:         cmp.Or(raw.UserAgent, "Post Relay/"+GetVersion()),
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func (c *Cfg) GetStoreTimeout() time.Duration {
	if c.StoreTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.StoreTimeout) * time.Second
}

func (c *Cfg) GetSchedulerInterval() time.Duration {
	if c.SchedulerInterval <= 0 {
		return time.Hour
	}
	return time.Duration(c.SchedulerInterval) * time.Second
}

func (c *Cfg) GetLogRetention() time.Duration {
	if c.LogRetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.LogRetentionDays) * 24 * time.Hour
}

func validate(cfg *Cfg) error {
	endpoint, err := url.Parse(cfg.GraphQLEndpoint)
	if err != nil {
		return fmt.Errorf("invalid GraphQL endpoint: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return fmt.Errorf("GraphQL endpoint must be an http(s) URL, got '%s'", cfg.GraphQLEndpoint)
	}
	if endpoint.Host == "" {
		return fmt.Errorf("GraphQL endpoint has no host: '%s'", cfg.GraphQLEndpoint)
	}

	nonNegativeFields := map[string]int{
		"store timeout":      cfg.StoreTimeout,
		"worker count":       cfg.WorkerCount,
		"scheduler interval": cfg.SchedulerInterval,
		"log retention days": cfg.LogRetentionDays,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	return nil
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
