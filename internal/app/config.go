// Package app provides configuration and run sessions for the CPU core.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"nescore/internal/memory"
)

// ErrInvalidAddress is returned for an address field that is not a 16-bit
// hex number.
var ErrInvalidAddress = errors.New("invalid address")

// Config holds all application configuration
type Config struct {
	CPU    CPUConfig    `json:"cpu"`
	Memory MemoryConfig `json:"memory"`
	Debug  DebugConfig  `json:"debug"`
	Paths  PathsConfig  `json:"paths"`

	// Internal state
	configPath string
	loaded     bool
}

// CPUConfig contains start-up overrides for the CPU
type CPUConfig struct {
	// ResetPC replaces the reset vector when set, e.g. "C000" for nestest's
	// automated mode. "$" and "0x" prefixes are accepted.
	ResetPC string `json:"reset_pc"`
	// StartCycles overrides the cycle counter after reset; 0 keeps the 7
	// cycles the reset sequence takes.
	StartCycles uint64 `json:"start_cycles"`
}

// MemoryConfig contains address bus configuration
type MemoryConfig struct {
	PowerUpPattern     string `json:"power_up_pattern"` // "zero", "mixed", "ones"
	OpenBusDiagnostics bool   `json:"open_bus_diagnostics"`
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	EnableLogging   bool     `json:"enable_logging"`
	LogLevel        string   `json:"log_level"` // "DEBUG", "INFO", "WARN", "ERROR"
	CPUTracing      bool     `json:"cpu_tracing"`
	LoopDetection   bool     `json:"loop_detection"`
	MemoryDebugging bool     `json:"memory_debugging"`
	Watchpoints     []string `json:"watchpoints"`
}

// PathsConfig contains file and directory paths
type PathsConfig struct {
	Logs     string `json:"logs"`
	TraceLog string `json:"trace_log"`
}

var logLevels = []string{"DEBUG", "INFO", "WARN", "ERROR"}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Memory: MemoryConfig{
			PowerUpPattern: memory.PowerUpZero.String(),
		},
		Debug: DebugConfig{
			LogLevel: "INFO",
		},
		Paths: PathsConfig{
			Logs: "./logs",
		},
	}
}

// LoadFromFile loads configuration from a JSON file, or from
// GetDefaultConfigPath when path is empty. A missing file is created with
// the current values.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = GetDefaultConfigPath()
	}
	c.configPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := c.createDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the current config file
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("no config file path set")
	}

	return c.SaveToFile(c.configPath)
}

// validate rejects values the session cannot start with and resets soft
// fields to their defaults.
func (c *Config) validate() error {
	if _, _, err := c.ResetAddress(); err != nil {
		return err
	}

	if _, err := c.PowerUp(); err != nil {
		return err
	}

	if _, err := c.WatchpointAddresses(); err != nil {
		return err
	}

	level := strings.ToUpper(c.Debug.LogLevel)
	c.Debug.LogLevel = "INFO"
	for _, l := range logLevels {
		if level == l {
			c.Debug.LogLevel = l
		}
	}

	return nil
}

// createDirectories creates the log directories when something will be
// written to them
func (c *Config) createDirectories() error {
	var dirs []string
	if c.Debug.EnableLogging && c.Paths.Logs != "" {
		dirs = append(dirs, c.Paths.Logs)
	}
	if c.Paths.TraceLog != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.TraceLog))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// ResetAddress returns the configured reset PC override and whether one is
// set.
func (c *Config) ResetAddress() (uint16, bool, error) {
	if c.CPU.ResetPC == "" {
		return 0, false, nil
	}
	address, err := parseAddress(c.CPU.ResetPC)
	if err != nil {
		return 0, false, &ConfigError{Field: "cpu.reset_pc", Value: c.CPU.ResetPC, Err: err}
	}
	return address, true, nil
}

// PowerUp returns the configured RAM power-up pattern; empty means zero.
func (c *Config) PowerUp() (memory.PowerUpPattern, error) {
	if c.Memory.PowerUpPattern == "" {
		return memory.PowerUpZero, nil
	}
	pattern, err := memory.ParsePowerUpPattern(c.Memory.PowerUpPattern)
	if err != nil {
		return 0, &ConfigError{Field: "memory.power_up_pattern", Value: c.Memory.PowerUpPattern, Err: err}
	}
	return pattern, nil
}

// WatchpointAddresses parses the configured watchpoints.
func (c *Config) WatchpointAddresses() ([]uint16, error) {
	addresses := make([]uint16, 0, len(c.Debug.Watchpoints))
	for _, w := range c.Debug.Watchpoints {
		address, err := parseAddress(w)
		if err != nil {
			return nil, &ConfigError{Field: "debug.watchpoints", Value: w, Err: err}
		}
		addresses = append(addresses, address)
	}
	return addresses, nil
}

func parseAddress(s string) (uint16, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "$"), "0x")
	value, err := strconv.ParseUint(trimmed, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return uint16(value), nil
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	data, err := json.Marshal(c)
	if err != nil {
		return NewConfig()
	}

	clone := &Config{}
	if err := json.Unmarshal(data, clone); err != nil {
		return NewConfig()
	}

	// Copy non-serialized fields
	clone.configPath = c.configPath
	clone.loaded = c.loaded

	return clone
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/nescore.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
