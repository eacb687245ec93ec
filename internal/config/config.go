// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management
// for answerline.
//
// Supports both TOML and JSON configuration formats, with sensible
// defaults, environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.answerline/config.toml
//   - ~/.answerline/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/answerline/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete answerline configuration.
type Config struct {
	// Version of the config schema, for future migrations.
	Version string `toml:"version" json:"version"`

	// Service holds the answer service connection settings.
	Service ServiceConfig `toml:"service" json:"service"`

	// Output holds presentation settings.
	Output OutputConfig `toml:"output" json:"output"`
}

// ServiceConfig contains answer service connection configuration.
type ServiceConfig struct {
	// Endpoint is the base URL of the answer service.
	Endpoint string `toml:"endpoint" json:"endpoint"`
	// APIKey is sent as a bearer token when non-empty. Optional.
	APIKey string `toml:"api_key" json:"api_key"`
	// TimeoutSecs bounds connection setup, not streaming reads.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// RequestsPerSecond throttles asks client-side. Zero disables.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// OutputConfig contains presentation configuration.
type OutputConfig struct {
	// Markdown renders final answers as markdown when stdout is a TTY.
	Markdown bool `toml:"markdown" json:"markdown"`
	// Quiet suppresses status lines and summaries.
	Quiet bool `toml:"quiet" json:"quiet"`
	// Verbose prints transport detail that is normally hidden behind
	// the fixed user-facing error message.
	Verbose bool `toml:"verbose" json:"verbose"`
}

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1"

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Service: ServiceConfig{
			Endpoint:    "http://127.0.0.1:8080",
			TimeoutSecs: 30,
		},
		Output: OutputConfig{
			Markdown: true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the answerline config directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".answerline"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
// CONFIG: Comprehensive validation ensures safe configuration
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// Try TOML first
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// Try JSON as fallback
	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// finishLoad applies env overrides, defaults, and validation.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Used by --config and by the watcher on reload.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default TOML path.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# answerline configuration file\n")
	buf.WriteString("# Generated by answerline - edit with care\n")
	buf.WriteString("\n")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// CONFIG: Comprehensive validation ensures safe configuration

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Endpoint must parse and speak http(s)
	if c.Service.Endpoint == "" {
		errs = append(errs, ValidationError{
			Field:   "service.endpoint",
			Message: "endpoint is required",
		})
	} else {
		u, err := url.Parse(c.Service.Endpoint)
		if err != nil || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "service.endpoint",
				Message: fmt.Sprintf("'%s' is not a valid URL", c.Service.Endpoint),
			})
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, ValidationError{
				Field:   "service.endpoint",
				Message: fmt.Sprintf("unsupported scheme '%s', must be http or https", u.Scheme),
			})
		}
	}

	if c.Service.TimeoutSecs < 1 || c.Service.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "service.timeout_secs",
			Message: fmt.Sprintf("%d is out of range, must be 1-600", c.Service.TimeoutSecs),
		})
	}

	if c.Service.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{
			Field:   "service.requests_per_second",
			Message: "must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills in zero values with defaults after loading.
func (c *Config) SetDefaults() {
	def := Default()
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.Service.Endpoint == "" {
		c.Service.Endpoint = def.Service.Endpoint
	}
	if c.Service.TimeoutSecs == 0 {
		c.Service.TimeoutSecs = def.Service.TimeoutSecs
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies ANSWERLINE_* environment variables on top
// of whatever the file provided. Environment wins.
func (c *Config) ApplyEnvOverrides() {
	if endpoint := os.Getenv("ANSWERLINE_ENDPOINT"); endpoint != "" {
		c.Service.Endpoint = endpoint
	}

	if key := os.Getenv("ANSWERLINE_API_KEY"); key != "" {
		c.Service.APIKey = key
	}

	if timeout := os.Getenv("ANSWERLINE_TIMEOUT"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil && secs > 0 {
			c.Service.TimeoutSecs = secs
		}
	}

	if rps := os.Getenv("ANSWERLINE_RPS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil && v >= 0 {
			c.Service.RequestsPerSecond = v
		}
	}

	if markdown := os.Getenv("ANSWERLINE_MARKDOWN"); markdown != "" {
		c.Output.Markdown = markdown == "1" || strings.EqualFold(markdown, "true")
	}

	if verbose := os.Getenv("ANSWERLINE_VERBOSE"); verbose != "" {
		c.Output.Verbose = verbose == "1" || strings.EqualFold(verbose, "true")
	}
}

// =============================================================================
// COPY AND DISPLAY
// =============================================================================

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config for debugging.
// SECURITY: Redacts the API key to prevent accidental exposure in logs,
// error messages, or debug output.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Service.APIKey != "" {
		safe.Service.APIKey = "[REDACTED]"
	}

	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
