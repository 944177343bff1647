// Package userconfig provides user configuration management for build-env.
// Configuration is stored in ~/.build-env/config.toml and can be modified
// via the `build-env config` command.
package userconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/fastogt/build-env/internal/config"
)

// Source overrides where a component is fetched from. Exactly one of
// Git or Archive is set.
type Source struct {
	Git     string `toml:"git,omitempty"`
	Branch  string `toml:"branch,omitempty"`
	Archive string `toml:"archive,omitempty"`
}

// Validate checks that s names exactly one origin.
func (s Source) Validate() error {
	switch {
	case s.Git != "" && s.Archive != "":
		return fmt.Errorf("git and archive are mutually exclusive")
	case s.Git == "" && s.Archive == "":
		return fmt.Errorf("one of git or archive is required")
	case s.Archive != "" && !strings.HasPrefix(s.Archive, "https://"):
		return fmt.Errorf("archive URL must use https: %s", s.Archive)
	case s.Archive != "" && s.Branch != "":
		return fmt.Errorf("branch only applies to git sources")
	}
	return nil
}

// Config represents user-configurable settings.
type Config struct {
	// UseSudo prefixes package manager commands with sudo when not
	// running as root. Default is true.
	UseSudo bool `toml:"use_sudo"`

	// Prefix is the default install prefix. --prefix overrides it.
	Prefix string `toml:"prefix,omitempty"`

	// Sources maps a component name (json-c, libev, common,
	// fastotv_protocol) to its source override.
	Sources map[string]Source `toml:"sources,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		UseSudo: true,
	}
}

// Load reads the config file and returns the configuration.
// Returns default values if the file doesn't exist.
// Returns an error only for file parsing issues, not missing files.
func Load() (*Config, error) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return DefaultConfig(), nil // Silently use defaults
	}

	return loadFromPath(cfg.ConfigFile)
}

// loadFromPath reads config from a specific file path (for testing).
func loadFromPath(path string) (*Config, error) {
	userCfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return userCfg, nil // File doesn't exist, use defaults
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), userCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	for name, src := range userCfg.Sources {
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("invalid source for %s in %s: %w", name, path, err)
		}
	}

	return userCfg, nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	return c.saveToPath(cfg.ConfigFile)
}

// saveToPath writes config to a specific file path (for testing).
func (c *Config) saveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get returns the value of a config key as a string.
// Source keys have the form sources.<component>.<field>.
// Returns empty string and false if the key doesn't exist.
func (c *Config) Get(key string) (string, bool) {
	key = strings.ToLower(key)
	switch key {
	case "use_sudo":
		return strconv.FormatBool(c.UseSudo), true
	case "prefix":
		return c.Prefix, true
	}

	component, field, ok := splitSourceKey(key)
	if !ok {
		return "", false
	}
	src, exists := c.Sources[component]
	if !exists {
		return "", false
	}
	switch field {
	case "git":
		return src.Git, true
	case "branch":
		return src.Branch, true
	case "archive":
		return src.Archive, true
	}
	return "", false
}

// Set updates a config value from a string.
// Returns an error if the key doesn't exist or the value is invalid.
func (c *Config) Set(key, value string) error {
	key = strings.ToLower(key)
	switch key {
	case "use_sudo":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for use_sudo: must be true or false")
		}
		c.UseSudo = b
		return nil
	case "prefix":
		c.Prefix = value
		return nil
	}

	component, field, ok := splitSourceKey(key)
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	src := c.Sources[component]
	switch field {
	case "git":
		src.Git = value
	case "branch":
		src.Branch = value
	case "archive":
		src.Archive = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	if c.Sources == nil {
		c.Sources = make(map[string]Source)
	}
	c.Sources[component] = src
	return nil
}

// splitSourceKey splits "sources.<component>.<field>".
func splitSourceKey(key string) (component, field string, ok bool) {
	parts := strings.Split(key, ".")
	if len(parts) != 3 || parts[0] != "sources" || parts[1] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// Components returns the names of all configured source overrides, sorted.
func (c *Config) Components() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AvailableKeys returns a list of all configurable keys with descriptions.
func AvailableKeys() map[string]string {
	return map[string]string{
		"use_sudo":                    "Run the package manager through sudo when not root (true/false)",
		"prefix":                      "Default install prefix for built libraries",
		"sources.<component>.git":     "Git repository to clone the component from",
		"sources.<component>.branch":  "Branch to clone (git sources only)",
		"sources.<component>.archive": "HTTPS URL of a source archive for the component",
	}
}
