package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ats-history/internal/ats"
	"ats-history/internal/feed"
)

// Defaults for configuration values.
const (
	DefaultDBPath         = "/data/ats.db"
	DefaultPort           = "8080"
	DefaultRequestTimeout = 10 * time.Second
	DefaultSyncTimeout    = 5 * time.Minute
	DefaultCacheTTL       = 10 * time.Minute
)

// Config holds all application configuration.
type Config struct {
	DBPath         string
	Port           string
	ConfigFile     string
	RequestTimeout time.Duration
	CORSOrigins    []string
	LogLevel       string
	LogFormat      string

	// Report tuning
	DampingFactor       float64
	HomeFieldAdjustment float64
	PushThreshold       float64
	TopCovers           int
	TopBeats            int
	TopUpsets           int
	ProviderPriority    []string

	// TeamAliases maps a feed spelling to the canonical team name
	TeamAliases map[string]string

	// Feed sync; an empty SyncSchedule disables the scheduler
	FeedBaseURL  string
	FeedAPIKey   string
	SyncSchedule string
	SyncTimeout  time.Duration

	// Report cache; disabled when RedisURL is empty
	RedisURL string
	CacheTTL time.Duration
}

// File is the optional YAML config file
type File struct {
	ProviderPriority []string          `yaml:"provider_priority"`
	TeamAliases      map[string]string `yaml:"team_aliases"`
}

// Load reads configuration from environment variables (and .env file if present),
// then merges the YAML file named by ATS_CONFIG_FILE.
func Load() (Config, error) {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	cfg := Config{
		DBPath:              DefaultDBPath,
		Port:                DefaultPort,
		ConfigFile:          os.Getenv("ATS_CONFIG_FILE"),
		RequestTimeout:      DefaultRequestTimeout,
		CORSOrigins:         []string{"*"},
		LogLevel:            "info",
		LogFormat:           "text",
		DampingFactor:       ats.DefaultDampingFactor,
		HomeFieldAdjustment: ats.DefaultHomeFieldAdjustment,
		PushThreshold:       ats.DefaultPushThreshold,
		TopCovers:           ats.DefaultTopCovers,
		TopBeats:            ats.DefaultTopBeats,
		TopUpsets:           ats.DefaultTopUpsets,
		ProviderPriority:    append([]string(nil), ats.DefaultProviderPriority...),
		FeedBaseURL:         feed.DefaultBaseURL,
		FeedAPIKey:          os.Getenv("CFBD_API_KEY"),
		SyncSchedule:        os.Getenv("ATS_SYNC_CRON"),
		SyncTimeout:         DefaultSyncTimeout,
		RedisURL:            os.Getenv("ATS_REDIS_URL"),
		CacheTTL:            DefaultCacheTTL,
	}

	if cfg.ConfigFile != "" {
		f, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return cfg, err
		}
		if len(f.ProviderPriority) > 0 {
			cfg.ProviderPriority = f.ProviderPriority
		}
		cfg.TeamAliases = f.TeamAliases
	}

	if v := os.Getenv("ATS_DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}

	if v := os.Getenv("ATS_REQUEST_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.RequestTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	if v := os.Getenv("ATS_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	if v := os.Getenv("ATS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("ATS_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	if v := os.Getenv("ATS_DAMPING_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.DampingFactor = f
		}
	}

	if v := os.Getenv("ATS_HOME_FIELD_ADJUSTMENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.HomeFieldAdjustment = f
		}
	}

	if v := os.Getenv("ATS_PUSH_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.PushThreshold = f
		}
	}

	if v := os.Getenv("ATS_TOP_COVERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TopCovers = n
		}
	}

	if v := os.Getenv("ATS_TOP_BEATS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TopBeats = n
		}
	}

	if v := os.Getenv("ATS_TOP_UPSETS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TopUpsets = n
		}
	}

	// Env wins over the file
	if v := os.Getenv("ATS_PROVIDER_PRIORITY"); v != "" {
		cfg.ProviderPriority = splitList(v)
	}

	if v := os.Getenv("ATS_FEED_URL"); v != "" {
		cfg.FeedBaseURL = strings.TrimRight(v, "/")
	}

	if v := os.Getenv("ATS_SYNC_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.SyncTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	if v := os.Getenv("ATS_CACHE_TTL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.CacheTTL = time.Duration(ms) * time.Millisecond
		}
	}

	return cfg, nil
}

// LoadFile parses the YAML config file at path
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return f, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that configuration values are within acceptable ranges.
func Validate(cfg Config) error {
	if cfg.DampingFactor < 0 || cfg.DampingFactor > 1 {
		return fmt.Errorf("ATS_DAMPING_FACTOR must be between 0 and 1, got %f", cfg.DampingFactor)
	}
	if cfg.HomeFieldAdjustment < 0 {
		return fmt.Errorf("ATS_HOME_FIELD_ADJUSTMENT must be non-negative, got %f", cfg.HomeFieldAdjustment)
	}
	if cfg.PushThreshold <= 0 || cfg.PushThreshold > 1 {
		return fmt.Errorf("ATS_PUSH_THRESHOLD must be in (0, 1], got %f", cfg.PushThreshold)
	}
	if cfg.TopCovers < 0 || cfg.TopBeats < 0 || cfg.TopUpsets < 0 {
		return fmt.Errorf("notable list sizes must be non-negative, got %d/%d/%d", cfg.TopCovers, cfg.TopBeats, cfg.TopUpsets)
	}
	if cfg.RequestTimeout < 100*time.Millisecond {
		return fmt.Errorf("ATS_REQUEST_TIMEOUT_MS must be at least 100ms, got %v", cfg.RequestTimeout)
	}
	if cfg.SyncSchedule != "" {
		if cfg.FeedAPIKey == "" {
			return fmt.Errorf("CFBD_API_KEY is required when ATS_SYNC_CRON is set")
		}
		if cfg.SyncTimeout <= 0 {
			return fmt.Errorf("ATS_SYNC_TIMEOUT_MS must be positive, got %v", cfg.SyncTimeout)
		}
	}
	if cfg.RedisURL != "" && cfg.CacheTTL <= 0 {
		return fmt.Errorf("ATS_CACHE_TTL_MS must be positive, got %v", cfg.CacheTTL)
	}
	for variant, canonical := range cfg.TeamAliases {
		if strings.TrimSpace(variant) == "" || strings.TrimSpace(canonical) == "" {
			return fmt.Errorf("team alias %q -> %q must name both teams", variant, canonical)
		}
	}
	return nil
}

// ReportOptions turns the tuning knobs into report options
func (c Config) ReportOptions() ats.Options {
	return ats.Options{
		ProviderPriority: c.ProviderPriority,
		Reconciler: ats.Reconciler{
			Estimator: ats.Estimator{
				DampingFactor:       c.DampingFactor,
				HomeFieldAdjustment: c.HomeFieldAdjustment,
			},
			PushThreshold: c.PushThreshold,
		},
		Limits: &ats.TrackerLimits{
			Covers: c.TopCovers,
			Beats:  c.TopBeats,
			Upsets: c.TopUpsets,
		},
		Matcher: ats.NewNameMatcher(c.TeamAliases),
	}
}
