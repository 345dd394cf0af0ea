// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Cache   CacheConfig
	Remote  RemoteConfig
	Catalog CatalogConfig
	Server  ServerConfig
	Sync    SyncConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// CacheConfig holds local cache storage configuration.
type CacheConfig struct {
	// Path is the directory for the Badger cache (default: ~/.readsync/cache).
	Path string
}

// RemoteConfig holds remote store client configuration.
type RemoteConfig struct {
	// BaseURL of the hosted store's REST endpoint. Empty disables remote
	// sync entirely; the engine then runs from the local cache only.
	BaseURL string
	// APIKey sent with every request (anon key for the hosted store).
	APIKey string
	// Timeout for individual remote calls (default: 10s).
	Timeout time.Duration
}

// CatalogConfig holds book catalog configuration.
type CatalogConfig struct {
	// Path to a catalog JSON file. Empty uses the embedded catalog.
	// When set, the file is watched and changes trigger a reload.
	Path string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	WebOrigin    string        // Allowed CORS origin for the web reader (default: *)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// SyncConfig holds tunables for the synchronization engine.
type SyncConfig struct {
	// HistoryCapacity is the per-owner bound on history records (default: 5).
	HistoryCapacity int
	// ReconcileDebounce is the delay used to coalesce bursts of remote
	// change notifications into one reconciliation pass (default: 400ms).
	ReconcileDebounce time.Duration
	// WarnInterval bounds how often a remote-read failure is surfaced
	// to the user per owner (default: 60s).
	WarnInterval time.Duration
	// CleanupWorkers is the concurrency of the fire-and-forget remote
	// delete queue for evicted history rows (default: 2).
	CleanupWorkers int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	cachePath := flag.String("cache-path", "", "Directory for the local cache")
	remoteURL := flag.String("remote-url", "", "Remote store REST endpoint")
	remoteKey := flag.String("remote-key", "", "Remote store API key")
	catalogPath := flag.String("catalog-path", "", "Path to a catalog JSON file (default: embedded catalog)")

	serverPort := flag.String("port", "", "Server port (default: 8080)")
	webOrigin := flag.String("web-origin", "", "Allowed CORS origin (default: *)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	remoteTimeout := flag.String("remote-timeout", "", "Remote call timeout (default: 10s)")
	reconcileDebounce := flag.String("reconcile-debounce", "", "Remote change debounce window (default: 400ms)")
	warnInterval := flag.String("warn-interval", "", "Minimum interval between surfaced load warnings (default: 60s)")
	historyCapacity := flag.String("history-capacity", "", "Per-owner history capacity (default: 5)")
	cleanupWorkers := flag.String("cleanup-workers", "", "Remote cleanup worker count (default: 2)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Cache: CacheConfig{
			Path: getConfigValue(*cachePath, "CACHE_PATH", ""),
		},
		Remote: RemoteConfig{
			BaseURL: getConfigValue(*remoteURL, "REMOTE_URL", ""),
			APIKey:  getConfigValue(*remoteKey, "REMOTE_API_KEY", ""),
		},
		Catalog: CatalogConfig{
			Path: getConfigValue(*catalogPath, "CATALOG_PATH", ""),
		},
		Server: ServerConfig{
			Port:      getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			WebOrigin: getConfigValue(*webOrigin, "WEB_ORIGIN", "*"),
		},
		Sync: SyncConfig{
			HistoryCapacity: getIntConfigValue(*historyCapacity, "HISTORY_CAPACITY", 5),
			CleanupWorkers:  getIntConfigValue(*cleanupWorkers, "CLEANUP_WORKERS", 2),
		},
	}

	// Parse durations.
	var err error
	if cfg.Remote.Timeout, err = parseDurationValue(*remoteTimeout, "REMOTE_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = parseDurationValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDurationValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseDurationValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Sync.ReconcileDebounce, err = parseDurationValue(*reconcileDebounce, "RECONCILE_DEBOUNCE", "400ms"); err != nil {
		return nil, err
	}
	if cfg.Sync.WarnInterval, err = parseDurationValue(*warnInterval, "WARN_INTERVAL", "60s"); err != nil {
		return nil, err
	}

	// Expand and validate the cache path.
	if err := cfg.expandCachePath(); err != nil {
		return nil, fmt.Errorf("invalid cache path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Cache.Path == "" {
		return errors.New("cache path cannot be empty after expansion")
	}

	if c.Sync.HistoryCapacity <= 0 {
		return fmt.Errorf("history capacity must be positive, got %d", c.Sync.HistoryCapacity)
	}

	if c.Sync.CleanupWorkers <= 0 {
		return fmt.Errorf("cleanup workers must be positive, got %d", c.Sync.CleanupWorkers)
	}

	// Remote.BaseURL can be empty - the engine degrades to local-only mode.

	return nil
}

// expandCachePath expands ~ and makes the path absolute.
// Defaults to ~/.readsync/cache when unset.
func (c *Config) expandCachePath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, ".readsync", "cache")

	expanded, err := expandPath(c.Cache.Path, defaultPath)
	if err != nil {
		return err
	}
	c.Cache.Path = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// parseDurationValue resolves a duration from flag, env var, or default.
func parseDurationValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), strValue, err)
	}
	return d, nil
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Env vars take precedence over .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
