package server

import (
	"errors"
	"flag"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/iafilius/StateScatter/src/dataset"
)

// Config is the serve-mode configuration.
type Config struct {
	Addr           string
	DataSource     string
	LogLevel       string
	CacheTTL       time.Duration
	AllowedOrigins []string
}

const (
	defaultAddr     = ":8080"
	defaultCacheTTL = 10 * time.Minute
)

// LoadEnv loads the first .env file found in paths (default: ./.env,
// ../.env, $SCATTER_ENV). Variables already set in the environment win.
// It returns the loaded path, or "" when no file exists.
func LoadEnv(paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = []string{".env", "../.env", os.Getenv("SCATTER_ENV")}
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return "", err
		}
		return p, nil
	}
	return "", nil
}

// LoadConfig parses args with environment fallbacks: SCATTER_ADDR,
// SCATTER_DATA, SCATTER_LOG_LEVEL, SCATTER_CACHE_TTL, SCATTER_CORS_ORIGINS.
func LoadConfig(args []string, stderr io.Writer) (Config, error) {
	fset := flag.NewFlagSet("scatterserver", flag.ContinueOnError)
	fset.SetOutput(stderr)
	var cfg Config
	var origins string
	fset.StringVar(&cfg.Addr, "addr", getEnvWithDefault("SCATTER_ADDR", defaultAddr), "listen address")
	fset.StringVar(&cfg.DataSource, "data", getEnvWithDefault("SCATTER_DATA", dataset.DefaultSource), "CSV path or http(s) URL")
	fset.StringVar(&cfg.LogLevel, "log-level", getEnvWithDefault("SCATTER_LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	fset.DurationVar(&cfg.CacheTTL, "cache-ttl", getEnvAsDuration("SCATTER_CACHE_TTL", defaultCacheTTL), "rendered chart cache TTL")
	fset.StringVar(&origins, "cors-origins", getEnvWithDefault("SCATTER_CORS_ORIGINS", "*"), "comma separated allowed CORS origins")
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}
	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
