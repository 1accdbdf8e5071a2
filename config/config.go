/*
config.go - Process configuration

PURPOSE:
  Reads server settings from the environment, optionally seeded from a
  .env file. Command-line flags in cmd/server override what is read here.

VARIABLES:
  APP_ADDR             listen address            (default :8080)
  DB_DRIVER            sqlite | postgres         (default sqlite)
  DB_PATH              SQLite path or :memory:   (default attendance.db)
  DATABASE_URL         PostgreSQL DSN, required when DB_DRIVER=postgres
  APP_ENV              development | production  (default development)
  LOG_LEVEL            debug | info | warn | error (default info)
  DEFAULT_POLICY       policy for employees with no role mapping (default Standard)
  ROLE_POLICIES        role=policy pairs, comma separated
                       e.g. "intern=Part Time,operator=Shift"
  POLICIES_FILE        JSON policy document imported at startup (optional)
  CORS_ORIGINS         comma separated allowed origins (default *)
  LEAVE_OVERRIDES      classify approved leave days as OnLeave (default true)
  MAX_BODY_BYTES       request body limit (default 1 MiB)
  SHUTDOWN_TIMEOUT     graceful shutdown window (default 30s)
  REPORT_DIR           write yesterday's daily report here as XLSX (optional)
  REPORT_INTERVAL      how often the report scheduler checks (default 1h)

SEE ALSO:
  - cmd/server/main.go: flag overrides and wiring
*/
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/attendance-engine/generic"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Addr            string
	DBDriver        string
	DBPath          string
	DatabaseURL     string
	Environment     string
	LogLevel        string
	DefaultPolicy   generic.PolicyName
	RolePolicies    map[generic.Role]generic.PolicyName
	PoliciesFile    string
	CORSOrigins     []string
	LeaveOverrides  bool
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
	ReportDir       string
	ReportInterval  time.Duration
}

// Load reads the environment. A missing .env file is not an error; the
// process environment always wins over values from the file.
func Load(envFiles ...string) Config {
	_ = godotenv.Load(envFiles...)

	return Config{
		Addr:            getEnv("APP_ADDR", ":8080"),
		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DBPath:          getEnv("DB_PATH", "attendance.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		Environment:     getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DefaultPolicy:   generic.PolicyName(getEnv("DEFAULT_POLICY", "Standard")),
		RolePolicies:    parseRolePolicies(getEnv("ROLE_POLICIES", "")),
		PoliciesFile:    getEnv("POLICIES_FILE", ""),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "*")),
		LeaveOverrides:  getEnvBool("LEAVE_OVERRIDES", true),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		ReportDir:       getEnv("REPORT_DIR", ""),
		ReportInterval:  getEnvDuration("REPORT_INTERVAL", time.Hour),
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("APP_ADDR is required")
	}
	switch c.DBDriver {
	case DriverSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			return fmt.Errorf("DB_PATH is required")
		}
		if c.Environment == "production" && c.DBPath == ":memory:" {
			return fmt.Errorf("DB_PATH must be a file in production")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	default:
		return fmt.Errorf("DB_DRIVER %q is not one of sqlite, postgres", c.DBDriver)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.ReportDir != "" && c.ReportInterval < time.Minute {
		return fmt.Errorf("REPORT_INTERVAL must be at least 1m")
	}
	for role, policy := range c.RolePolicies {
		if role == "" || policy == "" {
			return fmt.Errorf("ROLE_POLICIES entries must be role=policy")
		}
	}
	return nil
}

// ParseLevel maps LOG_LEVEL to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", s)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseRolePolicies reads "role=policy,role=policy". Malformed pairs are
// kept with an empty side so that Validate reports them.
func parseRolePolicies(value string) map[generic.Role]generic.PolicyName {
	out := make(map[generic.Role]generic.PolicyName)
	for _, pair := range splitList(value) {
		role, policy, _ := strings.Cut(pair, "=")
		out[generic.Role(strings.TrimSpace(role))] = generic.PolicyName(strings.TrimSpace(policy))
	}
	return out
}
