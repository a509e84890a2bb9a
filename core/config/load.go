package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads and validates the configuration from the directory.
func Load(path string) (*Configuration, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs is like Load but reads from the given filesystem.
func LoadFs(fsys afero.Fs, path string) (*Configuration, error) {
	// If given the path to a hooksh.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	configContents, err := afero.ReadFile(fsys, filepath.Join(path, ConfigurationName))
	if err != nil {
		return nil, err
	}
	var out Configuration
	if err := yaml.UnmarshalStrict(configContents, &out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigurationName, err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigurationName, err)
	}
	out.configFs = fsys
	out.dir = path
	return &out, nil
}

// LoadOrDefault loads the configuration in the directory, falling back to the
// default if none exists.
func LoadOrDefault(path string) (*Configuration, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		cfg.dir = path
		return cfg, nil
	}
	return cfg, err
}

// Initialize writes the default configuration into dir, creating it if
// needed. An existing configuration is left alone.
func Initialize(dir string, logger *log.Logger) error {
	return InitializeFs(afero.NewOsFs(), dir, logger)
}

// InitializeFs is like Initialize but writes to the given filesystem.
func InitializeFs(fsys afero.Fs, dir string, logger *log.Logger) error {
	logger.Printf("Initializing configuration in %q\n", dir)
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %q: %w", dir, err)
	}

	path := filepath.Join(dir, ConfigurationName)
	switch exists, err := afero.Exists(fsys, path); {
	case err != nil:
		return err
	case exists:
		logger.Printf("- %s already exists, skipping\n", ConfigurationName)
		return nil
	}

	logger.Printf("- Writing %s\n", ConfigurationName)
	if err := afero.WriteFile(fsys, path, defaultConfigData, os.FileMode(0644)); err != nil {
		return fmt.Errorf("writing %s: %w", ConfigurationName, err)
	}
	return nil
}
