package config

import (
	"fmt"

	"github.com/yndnr/sharded-go/internal/infra/confloader"
)

// Load builds the configuration from defaults, the optional file at path,
// SHARDKV_ environment variables and overrides, then verifies it. The
// returned loader can reload the same sources later.
func Load(path string, overrides map[string]any) (*ServerConfig, *confloader.Loader, error) {
	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOverrides(overrides),
	)

	cfg := Default()
	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, loader, nil
}

// Reload re-reads every source of loader into a fresh configuration.
func Reload(loader *confloader.Loader) (*ServerConfig, error) {
	cfg := Default()
	if err := loader.Reload(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
