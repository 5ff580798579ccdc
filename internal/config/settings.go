// Package config provides the bridge's settings: typed defaults, TOML file
// loading, change observers, and live reload.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Settings holds every configurable value. Persisted storage of settings
// is the host's concern; this package only loads and watches a file the
// host points it at.
type Settings struct {
	// ServiceURL is the base URL of the local code-intelligence service.
	ServiceURL string `toml:"service_url"`

	// Editor identifies the host editor in request payloads.
	Editor string `toml:"editor"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// RequestTimeoutMS bounds a single service round trip.
	RequestTimeoutMS int `toml:"request_timeout_ms"`

	// MaxFileSize is the size ceiling in bytes; 0 uses the default (1 MiB).
	MaxFileSize int `toml:"max_file_size"`

	// ShowPopularPatterns toggles the popular-patterns popup section.
	ShowPopularPatterns bool `toml:"show_popular_patterns"`

	// ShowKeywordArguments toggles the keyword-arguments popup section.
	ShowKeywordArguments bool `toml:"show_keyword_arguments"`

	// Keymap holds the keybinding hints rendered next to the toggles.
	Keymap KeymapSettings `toml:"keymap"`
}

// KeymapSettings are display-only hints; the host editor owns the actual
// keybindings.
type KeymapSettings struct {
	TogglePopularPatterns  string `toml:"toggle_popular_patterns"`
	ToggleKeywordArguments string `toml:"toggle_keyword_arguments"`
}

// Default returns the default settings.
func Default() Settings {
	return Settings{
		ServiceURL:           "http://127.0.0.1:46624",
		Editor:               "codelens",
		LogLevel:             "info",
		RequestTimeoutMS:     5000,
		ShowPopularPatterns:  false,
		ShowKeywordArguments: true,
	}
}

// Load reads settings from a TOML file, applying it over defaults. A
// missing file is not an error; the defaults stand.
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return s, nil
}
