// Package storage persists host state: configuration, the game library,
// and the directory layout for metadata, artwork, and per-game saves. All
// writes go through atomic temp-file renames so an interrupted write never
// corrupts existing state.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Store is a handle on one host's data directory.
type Store struct {
	fs   afero.Fs
	base string
}

// Option configures a Store.
type Option func(*Store)

// WithFS sets the filesystem the store reads and writes. Defaults to the
// OS filesystem.
func WithFS(fs afero.Fs) Option {
	return func(s *Store) { s.fs = fs }
}

// WithBaseDir overrides the data directory. Without it the store lives
// under the user config directory (e.g. ~/.config/<dirName> on Linux).
func WithBaseDir(dir string) Option {
	return func(s *Store) { s.base = dir }
}

// New returns a Store rooted at the user config directory for dirName,
// usually the DataDirName from the core's SystemInfo.
func New(dirName string, opts ...Option) (*Store, error) {
	s := &Store{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(s)
	}

	if s.base == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate user config directory: %w", err)
		}
		s.base = filepath.Join(configDir, dirName)
	}

	if err := s.fs.MkdirAll(s.base, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return s, nil
}

// Fs returns the filesystem the store operates on.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// BaseDir returns the root of the data directory.
func (s *Store) BaseDir() string {
	return s.base
}

// ConfigPath returns the path of config.json.
func (s *Store) ConfigPath() string {
	return filepath.Join(s.base, "config.json")
}

// LibraryPath returns the path of library.json.
func (s *Store) LibraryPath() string {
	return filepath.Join(s.base, "library.json")
}

// MetadataDir returns the directory for ROM databases.
func (s *Store) MetadataDir() string {
	return filepath.Join(s.base, "metadata")
}

// DATPath returns the path of a named ROM database file.
func (s *Store) DATPath(name string) string {
	return filepath.Join(s.MetadataDir(), name+".dat")
}

// ArtworkDir returns the directory for downloaded game artwork.
func (s *Store) ArtworkDir() string {
	return filepath.Join(s.base, "artwork")
}

// GameArtworkPath returns the artwork path for a game by CRC32 hex.
func (s *Store) GameArtworkPath(crc string) string {
	return filepath.Join(s.ArtworkDir(), crc+".png")
}

// SavesDir returns the directory holding per-game save data.
func (s *Store) SavesDir() string {
	return filepath.Join(s.base, "saves")
}

// GameSaveDir returns the save directory for a game by CRC32 hex. Save
// states and battery saves for the game live here.
func (s *Store) GameSaveDir(crc string) string {
	return filepath.Join(s.SavesDir(), crc)
}
