package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Database connection fields are only required for
// the networked drivers; the sqlite driver only needs DBPath.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	DBDriver     string // mysql | postgres | sqlite
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	DBPath       string // sqlite database file
	JWTSecret    string // secret used to sign JWTs
	AccessTTLMin int    // access token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password hashing
}

// LoadDotEnv reads KEY=VALUE pairs from the given files (".env" when none are
// given) into the process environment.  Variables that are already set win.
// A missing file is not an error.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				slog.Debug("no env file", "file", f)
				continue
			}
			slog.Warn("failed to read env file", "file", f, "error", err)
		}
	}
}

// Load reads configuration values from the environment.  Every missing or
// malformed required variable is reported in the returned error so a
// misconfigured deployment can be fixed in one pass.
func Load() (Config, error) {
	var errs []error
	must := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("missing required env var: %s", key))
		}
		return v
	}
	intOr := func(key string, def int) int {
		s := os.Getenv(key)
		if s == "" {
			return def
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid int for %s: %q", key, s))
			return def
		}
		return n
	}

	cfg := Config{
		Env:          getenv("APP_ENV", "dev"),
		Port:         getenv("APP_PORT", "8080"),
		DBDriver:     strings.ToLower(getenv("DB_DRIVER", "mysql")),
		DBPass:       os.Getenv("DB_PASS"),
		DBPath:       getenv("DB_PATH", "./data/smoothmove.db"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: intOr("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:   intOr("BCRYPT_COST", 10),
	}

	switch cfg.DBDriver {
	case "mysql", "postgres":
		cfg.DBUser = must("DB_USER")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	case "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER: %q", cfg.DBDriver))
	}

	if cfg.AccessTTLMin < 1 {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_TTL_MIN must be positive"))
	}
	return cfg, errors.Join(errs...)
}

// getenv returns the value of key or def when unset or empty.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
