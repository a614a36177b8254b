package romloader

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"
)

// extractFromZIP extracts the first matching ROM file from a ZIP archive
func (l *Loader) extractFromZIP(f afero.File) ([]byte, string, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("failed to stat zip: %w", err)
	}

	zr, err := zip.NewReader(f, fi.Size())
	if err != nil {
		return nil, "", fmt.Errorf("failed to open zip: %w", err)
	}

	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if !l.isROMFile(entry.Name) {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s: %w", entry.Name, err)
		}
		data, err := l.limitedRead(rc)
		rc.Close()
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", entry.Name, err)
		}
		return data, filepath.Base(entry.Name), nil
	}

	return nil, "", ErrNoROMFile
}

// extractFrom7z extracts the first matching ROM file from a 7z archive
func (l *Loader) extractFrom7z(f afero.File) ([]byte, string, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("failed to stat 7z: %w", err)
	}

	sr, err := sevenzip.NewReader(f, fi.Size())
	if err != nil {
		return nil, "", fmt.Errorf("failed to open 7z: %w", err)
	}

	for _, entry := range sr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if !l.isROMFile(entry.Name) {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s: %w", entry.Name, err)
		}
		data, err := l.limitedRead(rc)
		rc.Close()
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", entry.Name, err)
		}
		return data, filepath.Base(entry.Name), nil
	}

	return nil, "", ErrNoROMFile
}

// extractFromGzip extracts a ROM from a gzip stream. Plain .gz holds a
// single file; .tar.gz and .tgz are detected by sniffing the decompressed
// bytes for a tar header and searched like any other archive.
func (l *Loader) extractFromGzip(f io.Reader, path string) ([]byte, string, error) {
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open gzip: %w", err)
	}
	defer gz.Close()

	data, err := l.limitedRead(gz)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read gzip: %w", err)
	}

	if isTar(data) {
		return l.extractFromTar(bytes.NewReader(data))
	}

	// Single compressed file. Prefer the original name from the gzip
	// header; fall back to the path with the .gz suffix stripped.
	name := gz.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), ".gz")
	}
	if !l.isROMFile(name) {
		return nil, "", ErrNoROMFile
	}
	return data, filepath.Base(name), nil
}

// extractFromXZ extracts a single ROM from an xz stream. The xz container
// carries no filename, so the name comes from the path with the .xz suffix
// stripped.
func (l *Loader) extractFromXZ(f io.Reader, path string) ([]byte, string, error) {
	xr, err := xz.NewReader(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open xz: %w", err)
	}

	data, err := l.limitedRead(xr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read xz: %w", err)
	}

	if isTar(data) {
		return l.extractFromTar(bytes.NewReader(data))
	}

	name := strings.TrimSuffix(filepath.Base(path), ".xz")
	if !l.isROMFile(name) {
		return nil, "", ErrNoROMFile
	}
	return data, filepath.Base(name), nil
}

// extractFromTar extracts the first matching ROM file from a tar stream
func (l *Loader) extractFromTar(f io.Reader) ([]byte, string, error) {
	tr := tar.NewReader(f)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to read tar entry: %w", err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}
		if !l.isROMFile(header.Name) {
			continue
		}

		data, err := l.limitedRead(tr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		return data, filepath.Base(header.Name), nil
	}

	return nil, "", ErrNoROMFile
}

// isTar reports whether data starts with a tar header. POSIX tar carries
// "ustar" at offset 257.
func isTar(data []byte) bool {
	return len(data) >= 263 && bytes.Equal(data[257:262], []byte("ustar"))
}
