// Package rdb reads ROM databases in the Logiqx DAT format published by
// the No-Intro and Redump projects. A database maps ROM hashes to canonical
// game names, which hosts use for library display, artwork lookup, and
// region detection.
package rdb

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	emucore "github.com/user-none/retrocore/api"
)

// Game is one entry from a DAT file. Hashes identify the ROM image;
// Name is the canonical No-Intro name including region and revision tags,
// e.g. "Alex Kidd in Miracle World (USA, Europe) (Rev 1)".
type Game struct {
	Name        string
	Description string
	ROMName     string
	Size        int64
	CRC32       uint32
	MD5         string
	SHA1        string
	Serial      string
}

// DisplayName returns the name with parenthesized and bracketed tags
// stripped, for library listings.
func (g *Game) DisplayName() string {
	return CleanName(g.Name)
}

// CleanName strips the parenthesized and bracketed tags from a No-Intro
// style name. Scanners also apply it to bare filenames, which tend to
// carry the same "(USA) [!]" suffixes.
func CleanName(name string) string {
	if i := strings.IndexAny(name, "(["); i > 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// Region tag sets from No-Intro naming conventions. Brazil ran 60 Hz
// (PAL-M) consoles, so it groups with NTSC.
var (
	ntscTags = map[string]struct{}{
		"USA": {}, "Japan": {}, "World": {}, "Brazil": {},
		"Korea": {}, "Taiwan": {}, "Canada": {}, "Mexico": {},
	}
	palTags = map[string]struct{}{
		"Europe": {}, "Australia": {}, "France": {}, "Germany": {},
		"Spain": {}, "Italy": {}, "Sweden": {}, "Netherlands": {},
		"United Kingdom": {}, "New Zealand": {}, "Portugal": {},
	}
)

// Region derives the video region from the name tags. Multi-region
// releases such as "(USA, Europe)" prefer NTSC since those games run at
// 60 Hz. The bool is false when the name carries no recognized region tag.
func (g *Game) Region() (emucore.Region, bool) {
	sawPAL := false
	for _, group := range parenGroups(g.Name) {
		for _, tag := range strings.Split(group, ",") {
			tag = strings.TrimSpace(tag)
			if _, ok := ntscTags[tag]; ok {
				return emucore.RegionNTSC, true
			}
			if _, ok := palTags[tag]; ok {
				sawPAL = true
			}
		}
	}
	if sawPAL {
		return emucore.RegionPAL, true
	}
	return emucore.DefaultRegion(), false
}

// parenGroups returns the contents of each top-level (...) group in name.
func parenGroups(name string) []string {
	var groups []string
	depth := 0
	start := 0
	for i, r := range name {
		switch r {
		case '(':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case ')':
			depth--
			if depth == 0 && i > start {
				groups = append(groups, name[start:i])
			}
		}
	}
	return groups
}

// DB is a parsed DAT indexed by ROM hashes.
type DB struct {
	Name    string // from the DAT header, e.g. "Sega - Master System - Mark III"
	Version string

	games  []*Game
	byCRC  map[uint32]*Game
	bySHA1 map[string]*Game
}

// Logiqx datafile XML structure
type datafileXML struct {
	XMLName xml.Name  `xml:"datafile"`
	Header  headerXML `xml:"header"`
	Games   []gameXML `xml:"game"`
}

type headerXML struct {
	Name    string `xml:"name"`
	Version string `xml:"version"`
}

type gameXML struct {
	Name        string   `xml:"name,attr"`
	Description string   `xml:"description"`
	ROMs        []romXML `xml:"rom"`
}

type romXML struct {
	Name   string `xml:"name,attr"`
	Size   int64  `xml:"size,attr"`
	CRC    string `xml:"crc,attr"`
	MD5    string `xml:"md5,attr"`
	SHA1   string `xml:"sha1,attr"`
	Serial string `xml:"serial,attr"`
}

// Parse reads a Logiqx DAT from r. Entries without a parseable CRC are
// skipped rather than failing the whole file; DATs in the wild carry the
// occasional bad row.
func Parse(r io.Reader) (*DB, error) {
	var df datafileXML
	if err := xml.NewDecoder(r).Decode(&df); err != nil {
		return nil, fmt.Errorf("failed to parse DAT: %w", err)
	}

	db := &DB{
		Name:    df.Header.Name,
		Version: df.Header.Version,
		byCRC:   make(map[uint32]*Game, len(df.Games)),
		bySHA1:  make(map[string]*Game, len(df.Games)),
	}

	for _, gx := range df.Games {
		for _, rx := range gx.ROMs {
			crc, err := strconv.ParseUint(strings.TrimSpace(rx.CRC), 16, 32)
			if err != nil {
				continue
			}
			g := &Game{
				Name:        gx.Name,
				Description: gx.Description,
				ROMName:     rx.Name,
				Size:        rx.Size,
				CRC32:       uint32(crc),
				MD5:         strings.ToLower(rx.MD5),
				SHA1:        strings.ToLower(rx.SHA1),
				Serial:      rx.Serial,
			}
			db.games = append(db.games, g)
			db.byCRC[g.CRC32] = g
			if g.SHA1 != "" {
				db.bySHA1[g.SHA1] = g
			}
		}
	}

	return db, nil
}

// Load parses a DAT file from the filesystem.
func Load(fs afero.Fs, path string) (*DB, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DAT: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// GameCount returns the number of ROM entries in the database.
func (db *DB) GameCount() int {
	return len(db.games)
}

// Games returns all entries in DAT order.
func (db *DB) Games() []*Game {
	return db.games
}

// FindByCRC32 looks up a game by ROM CRC32. Returns nil if not found.
func (db *DB) FindByCRC32(crc uint32) *Game {
	return db.byCRC[crc]
}

// FindBySHA1 looks up a game by ROM SHA1 (hex, any case). Returns nil if
// not found.
func (db *DB) FindBySHA1(sha string) *Game {
	return db.bySHA1[strings.ToLower(sha)]
}

// DetectRegion returns the region for a known ROM. The bool is false when
// the ROM is not in the database or its name has no region tag.
func (db *DB) DetectRegion(crc uint32) (emucore.Region, bool) {
	g := db.byCRC[crc]
	if g == nil {
		return emucore.DefaultRegion(), false
	}
	return g.Region()
}
