// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads pptpdf settings from a YAML file, PPTPDF_* environment
// variables, and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/pptpdf/internal/discover"
	"github.com/pdiddy/pptpdf/pkg/types"
)

const (
	// EnvPrefix is prepended to environment overrides, e.g.
	// PPTPDF_CONVERSION_TIMEOUT overrides conversion.timeout.
	EnvPrefix = "PPTPDF"

	configName = "pptpdf"

	DefaultTimeout = 2 * time.Minute
)

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("conversion.backend", string(types.BackendAuto))
	v.SetDefault("conversion.program", "soffice")
	v.SetDefault("conversion.timeout", DefaultTimeout)
	v.SetDefault("conversion.container_image", "")
	v.SetDefault("conversion.runtime", "")
	v.SetDefault("discovery.patterns", discover.DefaultPatterns)
	v.SetDefault("history.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// FlagKeys maps config keys to the command-line flags that override them.
var FlagKeys = map[string]string{
	"conversion.backend":         "backend",
	"conversion.program":         "program",
	"conversion.timeout":         "timeout",
	"conversion.container_image": "container-image",
	"conversion.runtime":         "runtime",
	"history.path":               "history",
	"log.level":                  "log-level",
	"log.format":                 "log-format",
}

// BindFlags binds every flag of FlagKeys present in fs to its key. Flags
// that fs does not define are skipped.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range FlagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load reads configuration into a types.Config. When cfgFile is empty it
// looks for pptpdf.yaml in the working directory and in
// ~/.config/pptpdf/; a missing file there is not an error. It returns the
// config file actually used, or "".
func Load(v *viper.Viper, cfgFile string) (types.Config, string, error) {
	var cfg types.Config
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return cfg, "", fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, "", fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, "", err
	}
	return cfg, v.ConfigFileUsed(), nil
}

// Validate rejects settings the driver cannot act on.
func Validate(cfg types.Config) error {
	switch cfg.Conversion.Backend {
	case types.BackendAuto, types.BackendAutomation, types.BackendHeadless:
	default:
		return fmt.Errorf("conversion.backend: unknown backend %q", cfg.Conversion.Backend)
	}
	if cfg.Conversion.Timeout < 0 {
		return fmt.Errorf("conversion.timeout: must not be negative, got %s", cfg.Conversion.Timeout)
	}
	if len(cfg.Discovery.Patterns) == 0 {
		return errors.New("discovery.patterns: at least one pattern is required")
	}
	for _, p := range cfg.Discovery.Patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("discovery.patterns: invalid pattern %q: %w", p, err)
		}
	}
	return nil
}
