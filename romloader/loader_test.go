package romloader

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"
)

var testExts = []string{".bin", ".rom"}

// createTestROMFile creates a temporary ROM file with test data
func createTestROMFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to create test ROM file: %v", err)
	}
	return path
}

// createTestZipFile creates a temporary .zip file containing one entry
func createTestZipFile(t *testing.T, entryName string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zip")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	fw, err := w.Create(entryName)
	if err != nil {
		t.Fatalf("Failed to create file in zip: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("Failed to write to zip: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return path
}

// createTestGzipFile creates a temporary .gz file containing ROM data
func createTestGzipFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create gzip file: %v", err)
	}
	defer f.Close()

	w := gzip.NewWriter(f)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Failed to write to gzip: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close gzip: %v", err)
	}
	return path
}

// createTestTarGzFile creates a temporary .tar.gz with one entry
func createTestTarGzFile(t *testing.T, entryName string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.tar.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create tar.gz file: %v", err)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	hdr := &tar.Header{
		Name:     entryName,
		Mode:     0644,
		Size:     int64(len(data)),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		t.Fatalf("Failed to write tar header: %v", err)
	}
	if _, err := tw.Write(data); err != nil {
		t.Fatalf("Failed to write to tar: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Failed to close tar: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("Failed to close gzip: %v", err)
	}
	return path
}

// createTestXZFile creates a temporary .xz file containing ROM data
func createTestXZFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create xz file: %v", err)
	}
	defer f.Close()

	w, err := xz.NewWriter(f)
	if err != nil {
		t.Fatalf("Failed to create xz writer: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Failed to write to xz: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close xz: %v", err)
	}
	return path
}

// TestLoader_RawLoad tests loading plain ROM files
func TestLoader_RawLoad(t *testing.T) {
	testData := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	path := createTestROMFile(t, "test.bin", testData)

	rom, err := New(testExts).Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !bytes.Equal(rom.Data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, rom.Data)
	}

	if rom.Name != "test.bin" {
		t.Errorf("Name mismatch: expected test.bin, got %s", rom.Name)
	}
}

// TestLoader_ZipLoad tests loading a ROM from ZIP archives
func TestLoader_ZipLoad(t *testing.T) {
	testData := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	path := createTestZipFile(t, "game.bin", testData)

	rom, err := New(testExts).Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !bytes.Equal(rom.Data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, rom.Data)
	}

	if rom.Name != "game.bin" {
		t.Errorf("Name mismatch: expected game.bin, got %s", rom.Name)
	}
}

// TestLoader_GzipLoad tests loading a ROM from gzip files
func TestLoader_GzipLoad(t *testing.T) {
	testData := []byte{0x11, 0x22, 0x33, 0x44, 0x55}
	path := createTestGzipFile(t, "test.bin.gz", testData)

	rom, err := New(testExts).Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !bytes.Equal(rom.Data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, rom.Data)
	}
}

// TestLoader_TarGzLoad tests loading a ROM from tar.gz archives
func TestLoader_TarGzLoad(t *testing.T) {
	testData := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	path := createTestTarGzFile(t, "roms/game.rom", testData)

	rom, err := New(testExts).Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !bytes.Equal(rom.Data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, rom.Data)
	}

	if rom.Name != "game.rom" {
		t.Errorf("Name mismatch: expected game.rom, got %s", rom.Name)
	}
}

// TestLoader_XZLoad tests loading a ROM from xz files
func TestLoader_XZLoad(t *testing.T) {
	testData := []byte{0x99, 0x88, 0x77, 0x66}
	path := createTestXZFile(t, "game.bin.xz", testData)

	rom, err := New(testExts).Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !bytes.Equal(rom.Data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, rom.Data)
	}

	if rom.Name != "game.bin" {
		t.Errorf("Name mismatch: expected game.bin, got %s", rom.Name)
	}
}

// TestLoader_Hashes tests CRC32 and SHA1 computation on known vectors
func TestLoader_Hashes(t *testing.T) {
	path := createTestROMFile(t, "abc.bin", []byte("abc"))

	rom, err := New(testExts).Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if rom.CRC32 != 0x352441C2 {
		t.Errorf("CRC32 mismatch: expected 352441c2, got %08x", rom.CRC32)
	}
	if rom.CRC32Hex() != "352441c2" {
		t.Errorf("CRC32Hex mismatch: got %s", rom.CRC32Hex())
	}
	if rom.SHA1 != "a9993e364706816aba3e25717850c26c9cd0d89d" {
		t.Errorf("SHA1 mismatch: got %s", rom.SHA1)
	}
}

// TestLoader_LoadROMCompat tests the package-level convenience function
func TestLoader_LoadROMCompat(t *testing.T) {
	testData := []byte{0x0F, 0x0E}
	path := createTestROMFile(t, "test.rom", testData)

	data, name, err := LoadROM(path, testExts)
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	if !bytes.Equal(data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, data)
	}
	if name != "test.rom" {
		t.Errorf("Name mismatch: expected test.rom, got %s", name)
	}
}

// TestLoader_FormatDetectionMagic tests detection via magic bytes
func TestLoader_FormatDetectionMagic(t *testing.T) {
	l := New(testExts)

	testCases := []struct {
		header   []byte
		path     string
		expected formatType
	}{
		{[]byte{0x50, 0x4B, 0x03, 0x04}, "file.dat", formatZIP},
		{[]byte{0x50, 0x4B, 0x05, 0x06}, "file.dat", formatZIP},
		{[]byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, "file.dat", format7z},
		{[]byte{0x1F, 0x8B}, "file.dat", formatGzip},
		{[]byte{0x52, 0x61, 0x72, 0x21}, "file.dat", formatRAR},
		{[]byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}, "file.dat", formatXZ},
	}

	for _, tc := range testCases {
		result := l.detectFormat(tc.header, tc.path)
		if result != tc.expected {
			t.Errorf("detectFormat(%v, %s): expected %d, got %d", tc.header, tc.path, tc.expected, result)
		}
	}
}

// TestLoader_FormatDetectionExtension tests fallback to extension
func TestLoader_FormatDetectionExtension(t *testing.T) {
	l := New(testExts)

	testCases := []struct {
		path     string
		expected formatType
	}{
		{"game.bin", formatRaw},
		{"game.BIN", formatRaw},
		{"game.rom", formatRaw},
		{"game.zip", formatZIP},
		{"game.ZIP", formatZIP},
		{"game.7z", format7z},
		{"game.gz", formatGzip},
		{"game.tgz", formatGzip},
		{"game.tar.gz", formatGzip},
		{"game.rar", formatRAR},
		{"game.xz", formatXZ},
		{"game.unknown", formatUnknown},
	}

	for _, tc := range testCases {
		// Use empty header to force extension-based detection
		result := l.detectFormat([]byte{}, tc.path)
		if result != tc.expected {
			t.Errorf("detectFormat([], %s): expected %d, got %d", tc.path, tc.expected, result)
		}
	}
}

// TestLoader_NoROMInArchive tests error when no matching file found in archive
func TestLoader_NoROMInArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.zip")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip: %v", err)
	}

	w := zip.NewWriter(f)
	fw, _ := w.Create("readme.txt")
	fw.Write([]byte("hello"))
	w.Close()
	f.Close()

	_, err = New(testExts).Load(path)
	if err == nil {
		t.Error("Expected error when no ROM file in archive")
	}
	if !errors.Is(err, ErrNoROMFile) {
		t.Errorf("Expected ErrNoROMFile, got %v", err)
	}
}

// TestLoader_UnsupportedFormat tests error for unrecognized files
func TestLoader_UnsupportedFormat(t *testing.T) {
	path := createTestROMFile(t, "game.unknown", []byte{0x00, 0x01})

	_, err := New(testExts).Load(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

// TestLoader_FileTooLarge tests rejection of files exceeding the size limit
func TestLoader_FileTooLarge(t *testing.T) {
	largeData := make([]byte, 2048)
	l := New(testExts, WithMaxSize(1024))

	// Raw file over the limit
	path := createTestROMFile(t, "large.bin", largeData)
	if _, err := l.Load(path); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Expected ErrFileTooLarge for raw file, got %v", err)
	}

	// Compressed file that inflates over the limit
	gzPath := createTestGzipFile(t, "large.bin.gz", largeData)
	if _, err := l.Load(gzPath); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Expected ErrFileTooLarge for gzip file, got %v", err)
	}
}

// TestLoader_FileNotFound tests error for missing files
func TestLoader_FileNotFound(t *testing.T) {
	_, err := New(testExts).Load("/nonexistent/path/game.bin")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

// TestLoader_IsROMFile tests the extension check
func TestLoader_IsROMFile(t *testing.T) {
	l := New(testExts)

	testCases := []struct {
		name     string
		expected bool
	}{
		{"game.bin", true},
		{"game.BIN", true},
		{"game.Rom", true},
		{"game.txt", false},
		{"game.bin.bak", false},
		{"game", false},
		{"bin", false},
		{".bin", true},
	}

	for _, tc := range testCases {
		result := l.isROMFile(tc.name)
		if result != tc.expected {
			t.Errorf("isROMFile(%q): expected %v, got %v", tc.name, tc.expected, result)
		}
	}
}

// TestLoader_Extensions tests the registered extension list
func TestLoader_Extensions(t *testing.T) {
	l := New([]string{".ROM", ".bin"})

	exts := l.Extensions()
	if len(exts) != 2 || exts[0] != ".bin" || exts[1] != ".rom" {
		t.Errorf("Extensions mismatch: %v", exts)
	}
}

// TestLoader_CandidatePath tests candidate matching for library scans
func TestLoader_CandidatePath(t *testing.T) {
	l := New(testExts)

	testCases := []struct {
		path     string
		expected bool
	}{
		{"/roms/game.bin", true},
		{"/roms/game.ROM", true},
		{"/roms/game.zip", true},
		{"/roms/game.7z", true},
		{"/roms/game.rar", true},
		{"/roms/game.tar.gz", true},
		{"/roms/game.xz", true},
		{"/roms/readme.txt", false},
		{"/roms/cover.png", false},
		{"/roms/noext", false},
	}

	for _, tc := range testCases {
		if got := l.CandidatePath(tc.path); got != tc.expected {
			t.Errorf("CandidatePath(%q): expected %v, got %v", tc.path, tc.expected, got)
		}
	}
}

// TestLoader_ZipWithSubdirectory tests extracting a ROM from a nested directory
func TestLoader_ZipWithSubdirectory(t *testing.T) {
	testData := []byte{0x12, 0x34, 0x56}
	path := createTestZipFile(t, "roms/games/test.bin", testData)

	rom, err := New(testExts).Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !bytes.Equal(rom.Data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, rom.Data)
	}

	if rom.Name != "test.bin" {
		t.Errorf("Name should be just the filename, got %s", rom.Name)
	}
}

// TestLoader_EmptyFile tests handling of empty files
func TestLoader_EmptyFile(t *testing.T) {
	path := createTestROMFile(t, "test.bin", []byte{})

	rom, err := New(testExts).Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(rom.Data) != 0 {
		t.Errorf("Expected empty data, got %d bytes", len(rom.Data))
	}
}

// TestLoader_Cache tests that repeated loads of an unchanged file hit the cache
func TestLoader_Cache(t *testing.T) {
	testData := []byte{0x42, 0x43}
	path := createTestROMFile(t, "test.bin", testData)

	l := New(testExts, WithCache(4))

	first, err := l.Load(path)
	if err != nil {
		t.Fatalf("First load failed: %v", err)
	}
	second, err := l.Load(path)
	if err != nil {
		t.Fatalf("Second load failed: %v", err)
	}

	if first != second {
		t.Error("Expected second load to return the cached ROM")
	}
}

// TestLoader_MemMapFS tests loading through an in-memory filesystem
func TestLoader_MemMapFS(t *testing.T) {
	fs := afero.NewMemMapFs()
	testData := []byte{0x01, 0x02}
	if err := afero.WriteFile(fs, "/roms/game.bin", testData, 0644); err != nil {
		t.Fatalf("Failed to write mem file: %v", err)
	}

	rom, err := New(testExts, WithFS(fs)).Load("/roms/game.bin")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(rom.Data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, rom.Data)
	}
}

// TestLoader_MagicBytesDefinition tests that magic byte arrays are correct
func TestLoader_MagicBytesDefinition(t *testing.T) {
	// ZIP magic: "PK\x03\x04"
	if !bytes.Equal(magicZIP, []byte{0x50, 0x4B, 0x03, 0x04}) {
		t.Error("ZIP magic bytes incorrect")
	}

	// 7z magic
	if !bytes.Equal(magic7z, []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}) {
		t.Error("7z magic bytes incorrect")
	}

	// Gzip magic
	if !bytes.Equal(magicGzip, []byte{0x1F, 0x8B}) {
		t.Error("Gzip magic bytes incorrect")
	}

	// RAR magic: "Rar!"
	if !bytes.Equal(magicRAR, []byte{0x52, 0x61, 0x72, 0x21}) {
		t.Error("RAR magic bytes incorrect")
	}

	// XZ magic: 0xFD "7zXZ" 0x00
	if !bytes.Equal(magicXZ, []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}) {
		t.Error("XZ magic bytes incorrect")
	}
}
