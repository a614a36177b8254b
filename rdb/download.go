package rdb

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// DATs are fetched from the libretro-database mirror of the No-Intro set.
const defaultBaseURL = "https://github.com/libretro/libretro-database/raw/refs/heads/master/metadat/no-intro"

const httpTimeout = 10 * time.Second

// Downloader fetches DAT files over HTTP.
type Downloader struct {
	client  *http.Client
	fs      afero.Fs
	baseURL string
}

// DownloadOption configures a Downloader.
type DownloadOption func(*Downloader)

// WithDownloadFS sets the filesystem downloads are written to.
func WithDownloadFS(fs afero.Fs) DownloadOption {
	return func(d *Downloader) { d.fs = fs }
}

// WithBaseURL overrides the database mirror URL. Used for tests and for
// self-hosted mirrors.
func WithBaseURL(u string) DownloadOption {
	return func(d *Downloader) { d.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) DownloadOption {
	return func(d *Downloader) { d.client = c }
}

// NewDownloader returns a Downloader writing to the OS filesystem with a
// timeout HTTP client.
func NewDownloader(opts ...DownloadOption) *Downloader {
	d := &Downloader{
		client:  &http.Client{Timeout: httpTimeout},
		fs:      afero.NewOsFs(),
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download fetches the DAT for a system by its database name (e.g.
// "Sega - Master System - Mark III") and writes it to destPath.
// Downloads to a temp file first, then renames on success.
func (d *Downloader) Download(datName, destPath string) error {
	if err := d.fs.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	datURL := fmt.Sprintf("%s/%s.dat", d.baseURL, url.PathEscape(datName))

	resp, err := d.client.Get(datURL)
	if err != nil {
		return fmt.Errorf("failed to download DAT: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("DAT download failed with status: %d", resp.StatusCode)
	}

	// Read entire response into memory first
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read DAT data: %w", err)
	}

	// Write to temp file
	tempPath := destPath + ".tmp"
	if err := afero.WriteFile(d.fs, tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write DAT temp file: %w", err)
	}

	// Rename temp file to final location (atomic)
	if err := d.fs.Rename(tempPath, destPath); err != nil {
		d.fs.Remove(tempPath) // Clean up on failure
		return fmt.Errorf("failed to rename DAT file: %w", err)
	}

	return nil
}

// DownloadAndLoad fetches a DAT if destPath does not already exist, then
// parses it. A corrupt existing file is deleted and fetched again once.
func (d *Downloader) DownloadAndLoad(datName, destPath string) (*DB, error) {
	if exists, _ := afero.Exists(d.fs, destPath); !exists {
		if err := d.Download(datName, destPath); err != nil {
			return nil, err
		}
		return Load(d.fs, destPath)
	}

	db, err := Load(d.fs, destPath)
	if err == nil {
		return db, nil
	}

	// Corrupted file on disk. Refresh it.
	d.fs.Remove(destPath)
	if err := d.Download(datName, destPath); err != nil {
		return nil, err
	}
	return Load(d.fs, destPath)
}
