package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrNoDatabase is returned alongside a usable Config when DATABASE_URL is unset.
// Callers that need storage treat it as fatal; one-shot commands ignore it.
var ErrNoDatabase = errors.New("DATABASE_URL not set")

type Scanner struct {
	Bin       string              `yaml:"bin"`
	Timeout   time.Duration       `yaml:"timeout"`
	WorkDir   string              `yaml:"workdir"`
	Templates map[string][]string `yaml:"templates"`
}

type Config struct {
	Env         string `yaml:"env"`
	ListenAddr  string `yaml:"listen_addr"`
	DatabaseURL string `yaml:"database_url"`
	AutoMigrate bool   `yaml:"auto_migrate"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`

	// ScanWorkers > 0 enables pull-mode dispatch from the scans table.
	ScanWorkers       int           `yaml:"scan_workers"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	MaxConcurrentJobs int           `yaml:"max_concurrent_jobs"`
	MonitorInterval   time.Duration `yaml:"monitor_interval"`

	Scanner Scanner `yaml:"scanner"`

	DNSServer      string        `yaml:"dns_server"`
	DNSTimeout     time.Duration `yaml:"dns_timeout"`
	DNSConcurrency int           `yaml:"dns_concurrency"`
	WhoisTimeout   time.Duration `yaml:"whois_timeout"`

	// ReportBucket enables report uploads when set.
	ReportBucket string `yaml:"report_bucket"`
}

func defaults() Config {
	return Config{
		Env:               "development",
		ListenAddr:        ":8080",
		LogLevel:          "info",
		LogFormat:         "text",
		PollInterval:      500 * time.Millisecond,
		MaxConcurrentJobs: 4,
		Scanner: Scanner{
			Bin:     "nuclei",
			Timeout: 20 * time.Minute,
			Templates: map[string][]string{
				"FULL": {"http/misconfiguration", "http/exposures"},
			},
		},
		DNSTimeout:     2 * time.Second,
		DNSConcurrency: 8,
		WhoisTimeout:   10 * time.Second,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if out, err := strconv.Atoi(v); err == nil {
			return out
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if out, err := time.ParseDuration(v); err == nil {
			return out
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if out, err := strconv.ParseBool(v); err == nil {
			return out
		}
	}
	return def
}

// Load builds the configuration from defaults, then the optional YAML file at
// path, then the environment (including a local .env file).
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.Env = getenv("APP_ENV", cfg.Env)
	cfg.ListenAddr = getenv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.AutoMigrate = getenvBool("AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("LOG_FORMAT", cfg.LogFormat)
	cfg.LogFile = getenv("LOG_FILE", cfg.LogFile)
	cfg.ScanWorkers = getenvInt("SCAN_WORKERS", cfg.ScanWorkers)
	cfg.PollInterval = getenvDuration("POLL_INTERVAL", cfg.PollInterval)
	cfg.MaxConcurrentJobs = getenvInt("MAX_CONCURRENT_JOBS", cfg.MaxConcurrentJobs)
	cfg.MonitorInterval = getenvDuration("MONITOR_INTERVAL", cfg.MonitorInterval)
	cfg.Scanner.Bin = getenv("SCANNER_BIN", cfg.Scanner.Bin)
	cfg.Scanner.Timeout = getenvDuration("SCAN_TIMEOUT", cfg.Scanner.Timeout)
	cfg.Scanner.WorkDir = getenv("SCAN_WORKDIR", cfg.Scanner.WorkDir)
	cfg.DNSServer = getenv("DNS_SERVER", cfg.DNSServer)
	cfg.DNSTimeout = getenvDuration("DNS_TIMEOUT", cfg.DNSTimeout)
	cfg.DNSConcurrency = getenvInt("DNS_CONCURRENCY", cfg.DNSConcurrency)
	cfg.WhoisTimeout = getenvDuration("WHOIS_TIMEOUT", cfg.WhoisTimeout)
	cfg.ReportBucket = getenv("REPORT_BUCKET", cfg.ReportBucket)

	if cfg.DatabaseURL == "" {
		// Not fatal for one-shot runs; callers decide.
		return cfg, ErrNoDatabase
	}
	return cfg, nil
}
