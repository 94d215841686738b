package file

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

const (
	// ConfigFileName is the configuration file name inside the
	// paperdex directory.
	ConfigFileName = "config.toml"

	// DefaultDirName is the per-user paperdex directory.
	DefaultDirName = ".paperdex"

	// IndexDirName is the default index location inside the paperdex
	// directory.
	IndexDirName = "index"

	// EnvPrefix is the prefix for environment overrides, e.g.
	// PAPERDEX_WINDOW_SIZE.
	EnvPrefix = "paperdex"
)

// DefaultPath returns the default configuration file path,
// ~/.paperdex/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName, ConfigFileName), nil
}

// Load assembles the effective configuration: defaults, then the TOML
// file at path (if it exists), then PAPERDEX_* environment variables.
// A .env file in the working directory is loaded first so provider
// credentials can live next to the project. The result is validated
// once, here; unknown TOML keys are rejected.
func Load(path string) (domain.Config, error) {
	// Best effort: a missing .env is the normal case.
	_ = godotenv.Load()

	cfg := domain.DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return domain.Config{}, fmt.Errorf("%w: unknown keys in %s:\n%s",
					domain.ErrInvalidConfig, path, strict.String())
			}
			return domain.Config{}, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidConfig, path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// No file: defaults plus environment.
	default:
		return domain.Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("%w: environment overrides: %v", domain.ErrInvalidConfig, err)
	}

	if cfg.IndexLocation == "" {
		cfg.IndexLocation = filepath.Join(filepath.Dir(path), IndexDirName)
	}

	if err := cfg.Validate(); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Save writes the configuration as TOML at path, creating the parent
// directory if needed.
func Save(path string, cfg domain.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
