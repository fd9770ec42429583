package types

import "time"

// BackendKind names a conversion backend choice.
type BackendKind string

const (
	// BackendAuto picks automation on Windows and headless elsewhere.
	BackendAuto       BackendKind = "auto"
	BackendAutomation BackendKind = "automation"
	BackendHeadless   BackendKind = "headless"
)

// ConversionConfig holds settings for the per-file conversion backends.
type ConversionConfig struct {
	// Backend selects auto, automation, or headless.
	Backend BackendKind `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Program is the headless converter binary (default "soffice").
	Program string `json:"program" yaml:"program" mapstructure:"program"`

	// Timeout bounds a single job. Zero disables the bound.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// ContainerImage, when set, runs the headless converter inside this image.
	ContainerImage string `json:"container_image,omitempty" yaml:"container_image,omitempty" mapstructure:"container_image"`

	// Runtime forces "docker" or "podman" for ContainerImage; empty detects.
	Runtime string `json:"runtime,omitempty" yaml:"runtime,omitempty" mapstructure:"runtime"`
}

// DiscoveryConfig holds settings for the file discoverer.
type DiscoveryConfig struct {
	// Patterns are matched against file names, case as given.
	Patterns []string `json:"patterns" yaml:"patterns" mapstructure:"patterns"`
}

// HistoryConfig holds settings for the optional SQLite run ledger.
type HistoryConfig struct {
	// Path is the database file. Empty disables recording.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings loaded from file, environment, and flags.
type Config struct {
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Discovery  DiscoveryConfig  `json:"discovery" yaml:"discovery" mapstructure:"discovery"`
	History    HistoryConfig    `json:"history" yaml:"history" mapstructure:"history"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}
