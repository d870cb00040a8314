// Package config loads driver configuration from a .env file in the project
// root, overridable by environment variables, in the teacher's own
// find-project-root-then-parse-env-file style (internal/config/config.go).
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DriverConfig holds every setting the fsct-driverd entry point needs.
type DriverConfig struct {
	PollInterval time.Duration
	IPCAddr      string
	StatusAddr   string
	LogLevel     string
}

var (
	driverConfig *DriverConfig
	configLoaded bool
)

// LoadDriverConfig loads and caches the driver's configuration. Defaults are
// applied first, then a .env file, then environment variables, in that
// increasing order of precedence.
func LoadDriverConfig() (*DriverConfig, error) {
	if driverConfig != nil && configLoaded {
		return driverConfig, nil
	}

	cfg := &DriverConfig{
		PollInterval: time.Second,
		IPCAddr:      "127.0.0.1:9631",
		StatusAddr:   "127.0.0.1:9632",
		LogLevel:     "info",
	}

	projectRoot := findProjectRoot()
	envPath := filepath.Join(projectRoot, ".env")

	data, err := os.ReadFile(envPath)
	if err == nil {
		parseEnvFile(string(data), cfg)
	}

	if v := os.Getenv("FSCT_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = d
		}
	}
	if v := os.Getenv("FSCT_IPC_ADDR"); v != "" {
		cfg.IPCAddr = v
	}
	if v := os.Getenv("FSCT_STATUS_ADDR"); v != "" {
		cfg.StatusAddr = v
	}
	if v := os.Getenv("FSCT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	driverConfig = cfg
	configLoaded = true
	return cfg, nil
}

func parseEnvFile(content string, cfg *DriverConfig) {
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "FSCT_POLL_INTERVAL":
			if d, err := time.ParseDuration(value); err == nil {
				cfg.PollInterval = d
			}
		case "FSCT_IPC_ADDR":
			cfg.IPCAddr = value
		case "FSCT_STATUS_ADDR":
			cfg.StatusAddr = value
		case "FSCT_LOG_LEVEL":
			cfg.LogLevel = value
		}
	}
}

func findProjectRoot() string {
	cwd, _ := os.Getwd()
	if _, err := os.Stat(filepath.Join(cwd, ".env")); err == nil {
		return cwd
	}
	for {
		if _, err := os.Stat(filepath.Join(cwd, "go.mod")); err == nil {
			return cwd
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return cwd
		}
		cwd = parent
	}
}

// PollIntervalFromEnv parses a raw override string (e.g. a -poll-interval
// flag default sourced from an env var) falling back to def on any error.
func PollIntervalFromEnv(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}
