package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Progress backends.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Config holds all application configuration.
type Config struct {
	DataDir           string
	ProgressBackend   string
	ProgressPath      string
	VulnDBPath        string
	WorldFile         string // empty uses the embedded city
	TemplateDir       string // overrides embedded host skeletons file by file
	Difficulty        string
	WebAddr           string // empty disables the web terminal
	AllowedOrigins    []string
	EnableConsole     bool
	LogFile           string
	ReportDir         string
	ConnectionTimeout time.Duration
	SweepSchedule     string
	AuditRetention    time.Duration // zero keeps audit records forever
	Seed              int64
	Debug             bool
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() (*Config, error) {
	return LoadFrom(flag.CommandLine, os.Args[1:])
}

// LoadFrom is Load over an explicit flag set and argument list.
func LoadFrom(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.DataDir = getEnv("NETCITY_DATA_DIR", getDefaultDataDir())
	cfg.ProgressBackend = getEnv("NETCITY_PROGRESS_BACKEND", BackendSQLite)
	cfg.ProgressPath = getEnv("NETCITY_PROGRESS", "")
	cfg.VulnDBPath = getEnv("NETCITY_VULNDB", "")
	cfg.WorldFile = getEnv("NETCITY_WORLD", "")
	cfg.TemplateDir = getEnv("NETCITY_TEMPLATES", "")
	cfg.Difficulty = getEnv("NETCITY_DIFFICULTY", "standard")
	cfg.WebAddr = getEnv("NETCITY_ADDR", "")
	origins := getEnv("NETCITY_ALLOWED_ORIGINS", "")
	cfg.EnableConsole = getEnvBool("NETCITY_CONSOLE", true)
	cfg.LogFile = getEnv("NETCITY_LOG_FILE", "")
	cfg.ReportDir = getEnv("NETCITY_REPORT_DIR", "")
	cfg.ConnectionTimeout = getEnvDuration("NETCITY_CONNECTION_TIMEOUT", 30*time.Minute)
	cfg.SweepSchedule = getEnv("NETCITY_SWEEP", "@every 1m")
	cfg.AuditRetention = getEnvDuration("NETCITY_AUDIT_RETENTION", 30*24*time.Hour)
	cfg.Seed = int64(getEnvInt("NETCITY_SEED", 0))
	cfg.Debug = getEnvBool("NETCITY_DEBUG", false)

	// Command Line Flags (Override Env)
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "Directory for databases and reports")
	fs.StringVar(&cfg.ProgressBackend, "backend", cfg.ProgressBackend, "Progress store backend (sqlite or bolt)")
	fs.StringVar(&cfg.ProgressPath, "progress", cfg.ProgressPath, "Path to the progress database (default inside -data)")
	fs.StringVar(&cfg.VulnDBPath, "vulndb", cfg.VulnDBPath, "Path to the vulnerability catalog (default inside -data)")
	fs.StringVar(&cfg.WorldFile, "world", cfg.WorldFile, "World definition YAML (empty for the built-in city)")
	fs.StringVar(&cfg.TemplateDir, "templates", cfg.TemplateDir, "Directory overriding host skeleton files")
	fs.StringVar(&cfg.Difficulty, "difficulty", cfg.Difficulty, "Difficulty: standard, beginner or expert")
	fs.StringVar(&cfg.WebAddr, "addr", cfg.WebAddr, "Web terminal address (empty to disable)")
	fs.StringVar(&origins, "origins", origins, "Extra allowed websocket origins (comma separated)")
	fs.BoolVar(&cfg.EnableConsole, "console", cfg.EnableConsole, "Read commands from stdin")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Write logs to a rotating file instead of stderr")
	fs.StringVar(&cfg.ReportDir, "reports", cfg.ReportDir, "Directory for exported reports (default inside -data)")
	fs.DurationVar(&cfg.ConnectionTimeout, "conn-timeout", cfg.ConnectionTimeout, "Idle time before a network connection drops")
	fs.StringVar(&cfg.SweepSchedule, "sweep", cfg.SweepSchedule, "Cron schedule of the idle connection sweep")
	fs.DurationVar(&cfg.AuditRetention, "audit-retention", cfg.AuditRetention, "Age after which audit records are pruned (0 keeps them)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "World generation seed")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.AllowedOrigins = parseList(origins)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults places unset paths inside DataDir.
func (c *Config) applyDefaults() {
	if c.ProgressPath == "" {
		name := "progress.db"
		if c.ProgressBackend == BackendBolt {
			name = "progress.bolt"
		}
		c.ProgressPath = filepath.Join(c.DataDir, name)
	}
	if c.VulnDBPath == "" {
		c.VulnDBPath = filepath.Join(c.DataDir, "vulndb.sqlite")
	}
	if c.ReportDir == "" {
		c.ReportDir = filepath.Join(c.DataDir, "reports")
	}
}

func (c *Config) Validate() error {
	switch c.ProgressBackend {
	case BackendSQLite, BackendBolt:
	default:
		return fmt.Errorf("unknown progress backend %q", c.ProgressBackend)
	}
	switch c.Difficulty {
	case "standard", "beginner", "expert":
	default:
		return fmt.Errorf("unknown difficulty %q", c.Difficulty)
	}
	if c.ConnectionTimeout <= 0 {
		return fmt.Errorf("connection timeout must be positive, got %s", c.ConnectionTimeout)
	}
	if c.AuditRetention < 0 {
		return fmt.Errorf("audit retention cannot be negative")
	}
	if !c.EnableConsole && c.WebAddr == "" {
		return fmt.Errorf("nothing to run: console disabled and no web address")
	}
	return nil
}

func parseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getDefaultDataDir returns ~/.netcity, creating it if needed.
func getDefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Warn("Could not get user home directory, using current dir", "error", err)
		return ".netcity"
	}

	dir := filepath.Join(home, ".netcity")
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Warn("Could not create data directory, using current dir", "error", err)
		return ".netcity"
	}
	return dir
}
