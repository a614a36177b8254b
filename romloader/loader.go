// Package romloader loads ROM images from files and from compressed
// archives (ZIP, 7z, gzip, tar.gz, RAR, xz). Which files count as ROM
// images is decided by the extension list the loader is built with, so one
// loader serves any core.
package romloader

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
)

// Magic bytes for format detection
var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06} // empty zip
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{0x52, 0x61, 0x72, 0x21} // "Rar!"
	magicXZ     = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}
)

// Archive extensions the loader opens regardless of the registered ROM
// extensions.
var archiveExts = map[string]struct{}{
	".zip": {}, ".7z": {}, ".gz": {}, ".tgz": {}, ".rar": {}, ".xz": {},
}

// Default maximum ROM size. Large enough for any cartridge system this
// module hosts, small enough that a hostile archive cannot exhaust memory.
const defaultMaxSize = 64 * 1024 * 1024

// ErrNoROMFile is returned when no file matching a registered extension is
// found in an archive
var ErrNoROMFile = errors.New("no matching ROM file found in archive")

// ErrUnsupportedFormat is returned for unrecognized file formats
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrFileTooLarge is returned when extracted content exceeds size limit
var ErrFileTooLarge = errors.New("file exceeds maximum size limit")

// formatType represents the detected file format
type formatType int

const (
	formatUnknown formatType = iota
	formatRaw
	formatZIP
	format7z
	formatGzip
	formatRAR
	formatXZ
)

// ROM is a loaded image plus the identity hashes hosts key databases and
// save directories on. Data is shared with the loader's cache and must not
// be modified.
type ROM struct {
	Data  []byte
	Name  string // filename of the image, from inside the archive when applicable
	CRC32 uint32
	SHA1  string
}

// CRC32Hex returns the CRC32 as the 8-digit lowercase hex string used for
// library keys and save directories.
func (r *ROM) CRC32Hex() string {
	return fmt.Sprintf("%08x", r.CRC32)
}

// Loader loads ROM images for one family of file extensions.
type Loader struct {
	fs      afero.Fs
	exts    map[string]struct{}
	maxSize int64
	cache   *lru.Cache[string, *ROM]
}

// Option configures a Loader.
type Option func(*Loader)

// WithFS sets the filesystem the loader reads from. Defaults to the OS
// filesystem.
func WithFS(fs afero.Fs) Option {
	return func(l *Loader) { l.fs = fs }
}

// WithMaxSize sets the maximum accepted ROM size in bytes.
func WithMaxSize(n int64) Option {
	return func(l *Loader) { l.maxSize = n }
}

// WithCache keeps the n most recently loaded ROMs in memory, keyed by path
// plus modification time so a changed file misses. Useful for library
// rescans where the same archives are opened repeatedly.
func WithCache(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.cache, _ = lru.New[string, *ROM](n)
		}
	}
}

// New returns a Loader that treats files with the given extensions
// (including the dot, any case) as ROM images.
func New(exts []string, opts ...Option) *Loader {
	l := &Loader{
		fs:      afero.NewOsFs(),
		exts:    make(map[string]struct{}, len(exts)),
		maxSize: defaultMaxSize,
	}
	for _, e := range exts {
		l.exts[strings.ToLower(e)] = struct{}{}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Extensions returns the registered ROM extensions, sorted, lowercase,
// with the dot.
func (l *Loader) Extensions() []string {
	exts := make([]string, 0, len(l.exts))
	for ext := range l.exts {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// CandidatePath reports whether path names something the loader could
// load: a file with a registered ROM extension or a supported archive.
// Library scans use it to pick candidates before opening anything.
func (l *Loader) CandidatePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := l.exts[ext]; ok {
		return true
	}
	_, ok := archiveExts[ext]
	return ok
}

// LoadROM loads a ROM from a file path using a one-shot loader with the
// given extensions. It automatically detects and extracts from archives.
// Returns the ROM data, the filename of the ROM (useful for display), and
// any error encountered.
func LoadROM(path string, exts []string) ([]byte, string, error) {
	rom, err := New(exts).Load(path)
	if err != nil {
		return nil, "", err
	}
	return rom.Data, rom.Name, nil
}

// Load loads a ROM from a file path. Archives are detected by magic bytes
// and extracted automatically; the first entry with a registered extension
// wins.
func (l *Loader) Load(path string) (*ROM, error) {
	key, cacheable := l.cacheKey(path)
	if cacheable {
		if rom, hit := l.cache.Get(key); hit {
			return rom, nil
		}
	}

	f, err := l.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	// Read header for magic byte detection
	header := make([]byte, 16)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file header: %w", err)
	}
	header = header[:n]

	format := l.detectFormat(header, path)

	// Reset file position
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek file: %w", err)
	}

	var data []byte
	var name string

	switch format {
	case formatRaw:
		data, err = l.limitedRead(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read ROM: %w", err)
		}
		name = filepath.Base(path)

	case formatZIP:
		data, name, err = l.extractFromZIP(f)

	case format7z:
		data, name, err = l.extractFrom7z(f)

	case formatGzip:
		data, name, err = l.extractFromGzip(f, path)

	case formatRAR:
		data, name, err = l.extractFromRAR(f)

	case formatXZ:
		data, name, err = l.extractFromXZ(f, path)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}

	rom := &ROM{
		Data:  data,
		Name:  name,
		CRC32: crc32.ChecksumIEEE(data),
		SHA1:  fmt.Sprintf("%x", sha1.Sum(data)),
	}
	if cacheable {
		l.cache.Add(key, rom)
	}
	return rom, nil
}

// cacheKey builds a cache key that goes stale when the file changes. The
// bool is false when caching is off or the file cannot be stat'd.
func (l *Loader) cacheKey(path string) (string, bool) {
	if l.cache == nil {
		return "", false
	}
	fi, err := l.fs.Stat(path)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s|%d|%d", path, fi.ModTime().UnixNano(), fi.Size()), true
}

// detectFormat determines the file format based on magic bytes and extension
func (l *Loader) detectFormat(header []byte, path string) formatType {
	// Check magic bytes first (more reliable)
	if len(header) >= 4 {
		if bytes.HasPrefix(header, magicZIP) || bytes.HasPrefix(header, magicZIPEnd) {
			return formatZIP
		}
		if bytes.HasPrefix(header, magicRAR) {
			return formatRAR
		}
	}
	if len(header) >= 6 {
		if bytes.HasPrefix(header, magic7z) {
			return format7z
		}
		if bytes.HasPrefix(header, magicXZ) {
			return formatXZ
		}
	}
	if len(header) >= 2 && bytes.HasPrefix(header, magicGzip) {
		return formatGzip
	}

	// Fall back to extension
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := l.exts[ext]; ok {
		return formatRaw
	}
	switch ext {
	case ".zip":
		return formatZIP
	case ".7z":
		return format7z
	case ".gz", ".tgz":
		return formatGzip
	case ".rar":
		return formatRAR
	case ".xz":
		return formatXZ
	}

	// Check for .tar.gz
	if strings.HasSuffix(strings.ToLower(path), ".tar.gz") {
		return formatGzip
	}

	return formatUnknown
}

// isROMFile checks if a filename has a registered extension (case-insensitive)
func (l *Loader) isROMFile(name string) bool {
	_, ok := l.exts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// limitedRead reads from r up to the size limit, returning an error if exceeded
func (l *Loader) limitedRead(r io.Reader) ([]byte, error) {
	lr := io.LimitReader(r, l.maxSize+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.maxSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
