package storage

import (
	"errors"
	"os"
)

// LoadConfig loads the configuration from config.json.
// If the file doesn't exist, it returns default configuration.
// If the file is corrupted, it returns an error.
func (s *Store) LoadConfig() (*Config, error) {
	path := s.ConfigPath()

	if _, err := s.fs.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	config := &Config{}
	if err := ReadJSON(s.fs, path, config); err != nil {
		return nil, err
	}

	// Apply any migration for older config versions
	return migrateConfig(config), nil
}

// SaveConfig saves the configuration to config.json atomically
func (s *Store) SaveConfig(config *Config) error {
	return AtomicWriteJSON(s.fs, s.ConfigPath(), config)
}

// CreateConfigIfMissing creates a default config.json if it doesn't exist
func (s *Store) CreateConfigIfMissing() error {
	if _, err := s.fs.Stat(s.ConfigPath()); errors.Is(err, os.ErrNotExist) {
		return s.SaveConfig(DefaultConfig())
	}
	return nil
}

// DeleteConfig removes the config.json file
func (s *Store) DeleteConfig() error {
	if err := s.fs.Remove(s.ConfigPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// migrateConfig handles any necessary migrations from older config versions
func migrateConfig(config *Config) *Config {
	// Currently at version 1, no migrations needed
	if config.Version == 0 {
		config.Version = 1
	}

	// Ensure defaults for any missing fields
	if config.Audio.Volume == 0 {
		config.Audio.Volume = 1.0
	}
	if config.Library.SortBy == "" {
		config.Library.SortBy = "title"
	}
	if config.CoreOptions == nil {
		config.CoreOptions = make(map[string]string)
	}

	return config
}
