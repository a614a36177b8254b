package storage

import (
	"errors"
	"os"
	"sort"
	"strings"
	"time"
)

// LoadLibrary loads the game library from library.json.
// If the file doesn't exist, it returns an empty library.
func (s *Store) LoadLibrary() (*Library, error) {
	path := s.LibraryPath()

	if _, err := s.fs.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultLibrary(), nil
	}

	lib := &Library{}
	if err := ReadJSON(s.fs, path, lib); err != nil {
		return nil, err
	}

	if lib.Version == 0 {
		lib.Version = 1
	}
	if lib.Games == nil {
		lib.Games = make(map[string]*GameEntry)
	}

	return lib, nil
}

// SaveLibrary saves the game library to library.json atomically
func (s *Store) SaveLibrary(lib *Library) error {
	return AtomicWriteJSON(s.fs, s.LibraryPath(), lib)
}

// AddGame adds or replaces a game entry, keyed by CRC32
func (l *Library) AddGame(game *GameEntry) {
	if game.Added == 0 {
		game.Added = time.Now().Unix()
	}
	l.Games[game.CRC32] = game
}

// GetGame returns the entry for a CRC32 hex string, or nil
func (l *Library) GetGame(crc string) *GameEntry {
	return l.Games[crc]
}

// RemoveGame removes the entry for a CRC32 hex string
func (l *Library) RemoveGame(crc string) {
	delete(l.Games, crc)
}

// GameCount returns the number of games in the library
func (l *Library) GameCount() int {
	return len(l.Games)
}

// GetGamesSorted returns games sorted by the given key: "title",
// "lastPlayed", or "playTime". Unknown keys sort by title. Ties always
// break the same way (title, region, full name, CRC32) so repeated calls
// return an identical order.
func (l *Library) GetGamesSorted(sortBy string, favoritesOnly bool) []*GameEntry {
	games := make([]*GameEntry, 0, len(l.Games))
	for _, g := range l.Games {
		if favoritesOnly && !g.Favorite {
			continue
		}
		games = append(games, g)
	}

	sort.Slice(games, func(i, j int) bool {
		a, b := games[i], games[j]

		switch sortBy {
		case "lastPlayed":
			if a.LastPlayed != b.LastPlayed {
				return a.LastPlayed > b.LastPlayed
			}
		case "playTime":
			if a.PlayTimeSeconds != b.PlayTimeSeconds {
				return a.PlayTimeSeconds > b.PlayTimeSeconds
			}
		}

		an, bn := strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)
		if an != bn {
			return an < bn
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.CRC32 < b.CRC32
	})

	return games
}

// AddScanDirectory adds a directory to scan for ROMs. Duplicate paths are
// ignored.
func (l *Library) AddScanDirectory(path string, recursive bool) {
	for _, d := range l.ScanDirectories {
		if d.Path == path {
			return
		}
	}
	l.ScanDirectories = append(l.ScanDirectories, ScanDirectory{Path: path, Recursive: recursive})
}

// RemoveScanDirectory removes a scan directory by path
func (l *Library) RemoveScanDirectory(path string) {
	for i, d := range l.ScanDirectories {
		if d.Path == path {
			l.ScanDirectories = append(l.ScanDirectories[:i], l.ScanDirectories[i+1:]...)
			return
		}
	}
}

// AddExcludedPath excludes a file or directory from scans. Duplicates are
// ignored.
func (l *Library) AddExcludedPath(path string) {
	for _, p := range l.ExcludedPaths {
		if p == path {
			return
		}
	}
	l.ExcludedPaths = append(l.ExcludedPaths, path)
}

// RemoveExcludedPath removes a path from the exclusion list
func (l *Library) RemoveExcludedPath(path string) {
	for i, p := range l.ExcludedPaths {
		if p == path {
			l.ExcludedPaths = append(l.ExcludedPaths[:i], l.ExcludedPaths[i+1:]...)
			return
		}
	}
}

// IsPathExcluded reports whether path matches an excluded path or lives
// under an excluded directory.
func (l *Library) IsPathExcluded(path string) bool {
	for _, p := range l.ExcludedPaths {
		if path == p || strings.HasPrefix(path, p+string(os.PathSeparator)) || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// UpdatePlayTime adds seconds to a game's total play time and stamps
// LastPlayed with the current time
func (l *Library) UpdatePlayTime(crc string, seconds int64) {
	game := l.Games[crc]
	if game == nil {
		return
	}
	game.PlayTimeSeconds += seconds
	game.LastPlayed = time.Now().Unix()
}
