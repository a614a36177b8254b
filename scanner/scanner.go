// Package scanner builds the game library. A scan walks the configured
// directories for ROM files and archives, loads and hashes each candidate
// through the ROM loader, identifies what it can against a ROM database,
// and folds the results into the library without losing per-game settings
// or play statistics.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/user-none/retrocore/rdb"
	"github.com/user-none/retrocore/romloader"
	"github.com/user-none/retrocore/storage"
)

const defaultWorkers = 4

// Progress reports scan advancement after each processed file.
type Progress struct {
	Current int // files processed so far
	Total   int // candidate files found
	Path    string
}

// Scanner scans directories for ROMs. The zero value is not usable; use
// New.
type Scanner struct {
	loader   *romloader.Loader
	db       *rdb.DB
	fs       afero.Fs
	workers  int
	progress func(Progress)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithDB sets the ROM database used to identify scanned files. Without it
// every ROM falls back to a filename-derived display name.
func WithDB(db *rdb.DB) Option {
	return func(s *Scanner) { s.db = db }
}

// WithFS sets the filesystem walked for candidates and statted for missing
// files. It should match the loader's filesystem. Defaults to the OS
// filesystem.
func WithFS(fs afero.Fs) Option {
	return func(s *Scanner) { s.fs = fs }
}

// WithWorkers sets how many files are loaded and hashed concurrently.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithProgress sets a callback invoked after each processed file. Calls
// are serialized; the callback never runs concurrently with itself.
func WithProgress(cb func(Progress)) Option {
	return func(s *Scanner) { s.progress = cb }
}

// New returns a Scanner that loads candidates through loader.
func New(loader *romloader.Loader, opts ...Option) *Scanner {
	s := &Scanner{
		loader:  loader,
		fs:      afero.NewOsFs(),
		workers: defaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks dirs for ROM candidates and returns a library entry for every
// loadable image found. Excluded paths and, for non-recursive directories,
// subdirectories are skipped. Files that fail to load are skipped rather
// than failing the scan. Cancelling ctx stops the scan with ctx's error.
//
// Entries come back sorted by file path, one per loadable file; results
// are not folded into a library until Apply.
func (s *Scanner) Scan(ctx context.Context, dirs []storage.ScanDirectory, excluded []string) ([]*storage.GameEntry, error) {
	paths, err := s.enumerate(dirs, excluded)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		entries []*storage.GameEntry
		done    int
	)
	total := len(paths)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			entry := s.scanFile(path)

			mu.Lock()
			defer mu.Unlock()
			done++
			if entry != nil {
				entries = append(entries, entry)
			}
			if s.progress != nil {
				s.progress(Progress{Current: done, Total: total, Path: path})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Deterministic order regardless of worker scheduling.
	sort.Slice(entries, func(i, j int) bool { return entries[i].File < entries[j].File })
	return entries, nil
}

// Apply folds scan results into the library: new games are added, known
// games keep their settings and play statistics while the scan refreshes
// their identification, and every library entry whose file no longer
// exists is marked missing. It returns how many games were added, updated,
// and left missing.
func (s *Scanner) Apply(lib *storage.Library, entries []*storage.GameEntry) (added, updated, missing int) {
	for _, entry := range entries {
		existing := lib.GetGame(entry.CRC32)
		if existing == nil {
			lib.AddGame(entry)
			added++
			continue
		}

		existing.File = entry.File
		existing.Name = entry.Name
		existing.DisplayName = entry.DisplayName
		existing.Region = entry.Region
		existing.Size = entry.Size
		existing.Serial = entry.Serial
		existing.Missing = false
		updated++
	}

	for _, game := range lib.Games {
		if _, err := s.fs.Stat(game.File); err != nil {
			game.Missing = true
			missing++
		} else {
			game.Missing = false
		}
	}
	return added, updated, missing
}

// enumerate collects candidate file paths from the scan directories.
func (s *Scanner) enumerate(dirs []storage.ScanDirectory, excluded []string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string

	for _, dir := range dirs {
		root := filepath.Clean(dir.Path)
		err := afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				if path == root {
					return err
				}
				// Unreadable entries below the root are skipped.
				return nil
			}

			if info.IsDir() {
				if isExcluded(path, excluded) {
					return filepath.SkipDir
				}
				if !dir.Recursive && path != root {
					return filepath.SkipDir
				}
				return nil
			}

			if isExcluded(path, excluded) || !s.loader.CandidatePath(path) {
				return nil
			}
			if _, dup := seen[path]; dup {
				return nil
			}
			seen[path] = struct{}{}
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", dir.Path, err)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// scanFile loads and identifies one candidate. Files that cannot be loaded
// return nil; a scan skips them.
func (s *Scanner) scanFile(path string) *storage.GameEntry {
	rom, err := s.loader.Load(path)
	if err != nil {
		return nil
	}

	entry := &storage.GameEntry{
		CRC32: rom.CRC32Hex(),
		File:  path,
		Name:  rom.Name,
		Size:  int64(len(rom.Data)),
	}

	if s.db != nil {
		if game := s.db.FindByCRC32(rom.CRC32); game != nil {
			entry.Name = game.Name
			entry.DisplayName = game.DisplayName()
			entry.Serial = game.Serial
			if region, ok := game.Region(); ok {
				entry.Region = strings.ToLower(region.String())
			}
			return entry
		}
	}

	base := strings.TrimSuffix(rom.Name, filepath.Ext(rom.Name))
	entry.DisplayName = rdb.CleanName(base)
	return entry
}

// isExcluded reports whether path matches an excluded path or lives under
// an excluded directory. Same matching as the library's exclusion list.
func isExcluded(path string, excluded []string) bool {
	for _, p := range excluded {
		if path == p || strings.HasPrefix(path, p+string(os.PathSeparator)) || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
