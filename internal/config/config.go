// Package config handles zmirror configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Snapshot persistence settings
	Snapshot SnapshotConfig `yaml:"snapshot" mapstructure:"snapshot"`

	// Journal settings
	Journal JournalConfig `yaml:"journal" mapstructure:"journal"`

	// Outbox settings
	Outbox OutboxConfig `yaml:"outbox" mapstructure:"outbox"`

	// Presence settings
	Presence PresenceConfig `yaml:"presence" mapstructure:"presence"`

	// Typing-indicator settings
	Typing TypingConfig `yaml:"typing" mapstructure:"typing"`
}

// GlobalConfig contains global settings.
type GlobalConfig struct {
	// DataDir is where zmirror stores its data (default: ~/.local/share/zmirror).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// SnapshotConfig contains state-snapshot persistence settings.
type SnapshotConfig struct {
	// Path is the snapshot file path (default: <data_dir>/state.json).
	Path string `yaml:"path" mapstructure:"path"`

	// SaveDebounce is how long to coalesce state changes before writing.
	SaveDebounce time.Duration `yaml:"save_debounce" mapstructure:"save_debounce"`
}

// JournalConfig contains action-journal settings.
type JournalConfig struct {
	// Path is the SQLite journal file path (default: <data_dir>/journal.db).
	Path string `yaml:"path" mapstructure:"path"`

	// Enabled turns action journaling on.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// OutboxConfig contains outbox send-state settings.
type OutboxConfig struct {
	// DecayWindow is how long a transient outbox record may live before
	// it is forced into the terminal age status.
	DecayWindow time.Duration `yaml:"decay_window" mapstructure:"decay_window"`

	// SweepInterval is how often the age sweep runs.
	SweepInterval time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`

	// SentAnomalyAfter is how long a record may sit in the sent status
	// before a warning is logged.
	SentAnomalyAfter time.Duration `yaml:"sent_anomaly_after" mapstructure:"sent_anomaly_after"`
}

// PresenceConfig contains presence-aggregation settings.
type PresenceConfig struct {
	// OfflineThreshold is the freshness window for a client's presence
	// report; the server's register value overrides it.
	OfflineThreshold time.Duration `yaml:"offline_threshold" mapstructure:"offline_threshold"`
}

// TypingConfig contains typing-indicator settings.
type TypingConfig struct {
	// StalenessWindow is how old a typing entry may get before the sweep
	// drops it.
	StalenessWindow time.Duration `yaml:"staleness_window" mapstructure:"staleness_window"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		Global: GlobalConfig{
			DataDir: dataDir,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Snapshot: SnapshotConfig{
			Path:         filepath.Join(dataDir, "state.json"),
			SaveDebounce: time.Second,
		},
		Journal: JournalConfig{
			Path:    filepath.Join(dataDir, "journal.db"),
			Enabled: false,
		},
		Outbox: OutboxConfig{
			DecayWindow:      2 * time.Hour,
			SweepInterval:    time.Minute,
			SentAnomalyAfter: 10 * time.Second,
		},
		Presence: PresenceConfig{
			OfflineThreshold: 140 * time.Second,
		},
		Typing: TypingConfig{
			StalenessWindow: 15 * time.Second,
		},
	}
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "zmirror")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "zmirror")
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Outbox.DecayWindow <= 0 {
		return fmt.Errorf("outbox.decay_window must be positive")
	}
	if c.Outbox.SweepInterval <= 0 {
		return fmt.Errorf("outbox.sweep_interval must be positive")
	}
	if c.Presence.OfflineThreshold <= 0 {
		return fmt.Errorf("presence.offline_threshold must be positive")
	}
	if c.Typing.StalenessWindow <= 0 {
		return fmt.Errorf("typing.staleness_window must be positive")
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
