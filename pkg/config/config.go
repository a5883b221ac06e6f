// Package config loads the layered application configuration: defaults, an
// optional vaultgraph.toml, VAULTGRAPH_* environment variables, then flags,
// each layer overriding the one below.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	configFile = "vaultgraph.toml"
	envPrefix  = "VAULTGRAPH_"
)

// Config holds every runtime setting.
type Config struct {
	Vault       string `koanf:"vault"`
	WebMode     bool   `koanf:"web"`
	Port        int    `koanf:"port"`
	Watch       bool   `koanf:"watch"`
	OpenBrowser bool   `koanf:"open"`
	MaxFiles    int    `koanf:"max-files"`
	DebounceMs  int    `koanf:"debounce-ms"`
	Verbosity   string `koanf:"verbosity"`
	VerboseCnt  int    `koanf:"verbose"`
}

var defaults = map[string]any{
	"vault":       ".",
	"web":         false,
	"port":        8080,
	"watch":       false,
	"open":        true,
	"max-files":   300,
	"debounce-ms": 200,
	"verbosity":   "",
	"verbose":     0,
}

// Load assembles the configuration. The flag set may be nil; only flags the
// user actually set override lower layers.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// The config file is optional; a missing one is not an error.
	_ = k.Load(file.Provider(configFile), toml.Parser())

	// VAULTGRAPH_MAX_FILES=100 maps onto the "max-files" key.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, envPrefix)), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// mapProvider adapts a plain map to koanf's Provider interface.
type mapProvider map[string]any

func (p mapProvider) Read() (map[string]any, error) {
	return p, nil
}

func (p mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
