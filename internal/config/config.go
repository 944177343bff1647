package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// EnvHome is the environment variable to override the default build-env home directory
	EnvHome = "BUILD_ENV_HOME"

	// EnvAPITimeout is the environment variable to configure the source download timeout
	EnvAPITimeout = "BUILD_ENV_API_TIMEOUT"

	// EnvConfigFile is the environment variable to point at a different config.toml
	EnvConfigFile = "BUILD_ENV_CONFIG"

	// DefaultAPITimeout is the default timeout for source downloads (30 seconds)
	DefaultAPITimeout = 30 * time.Second

	minAPITimeout = 1 * time.Second
	maxAPITimeout = 10 * time.Minute
)

// GetAPITimeout returns the configured download timeout from BUILD_ENV_API_TIMEOUT.
// If not set or invalid, returns DefaultAPITimeout (30 seconds).
// Accepts duration strings like "30s", "1m", "2m30s".
func GetAPITimeout() time.Duration {
	envValue := os.Getenv(EnvAPITimeout)
	if envValue == "" {
		return DefaultAPITimeout
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			EnvAPITimeout, envValue, DefaultAPITimeout)
		return DefaultAPITimeout
	}

	// Validate reasonable range (1 second to 10 minutes)
	if duration < minAPITimeout {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum 1s\n",
			EnvAPITimeout, duration)
		return minAPITimeout
	}
	if duration > maxAPITimeout {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum 10m\n",
			EnvAPITimeout, duration)
		return maxAPITimeout
	}

	return duration
}

// Config holds build-env paths
type Config struct {
	HomeDir          string // $BUILD_ENV_HOME
	CacheDir         string // $BUILD_ENV_HOME/cache
	DownloadCacheDir string // $BUILD_ENV_HOME/cache/downloads (source archives)
	ConfigFile       string // $BUILD_ENV_HOME/config.toml, or $BUILD_ENV_CONFIG
}

// DefaultConfig returns the default configuration
func DefaultConfig() (*Config, error) {
	home := os.Getenv(EnvHome)
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		home = filepath.Join(userHome, ".build-env")
	}

	configFile := os.Getenv(EnvConfigFile)
	if configFile == "" {
		configFile = filepath.Join(home, "config.toml")
	}

	return &Config{
		HomeDir:          home,
		CacheDir:         filepath.Join(home, "cache"),
		DownloadCacheDir: filepath.Join(home, "cache", "downloads"),
		ConfigFile:       configFile,
	}, nil
}

// EnsureDirectories creates all necessary directories
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.HomeDir, c.CacheDir, c.DownloadCacheDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DownloadPath returns where an archive with the given file name is cached.
func (c *Config) DownloadPath(name string) string {
	return filepath.Join(c.DownloadCacheDir, name)
}
