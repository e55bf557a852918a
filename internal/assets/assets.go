// Package assets gives bears a per-bear data directory and a cached
// download facility for external files they depend on.
package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"resty.dev/v3"

	"github.com/RaiVaibhav/coala/internal/ctxlog"
)

// downloadTimeout bounds a single cached-file download.
const downloadTimeout = 20 * time.Second

// DataDir returns the directory a bear may use to store longer-lived
// artifacts. Every bear gets its own directory keyed by name.
func DataDir(bearName string) (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "coala", bearName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// Fetcher downloads files into a bear's data directory, reusing cached
// copies on later calls.
type Fetcher struct {
	bearName string
	dir      string
	client   *resty.Client
}

// NewFetcher creates a Fetcher for the named bear.
func NewFetcher(bearName string) (*Fetcher, error) {
	dir, err := DataDir(bearName)
	if err != nil {
		return nil, err
	}
	client := resty.New().SetTimeout(downloadTimeout)
	return &Fetcher{bearName: bearName, dir: dir, client: client}, nil
}

// Close releases the underlying HTTP client.
func (f *Fetcher) Close() error {
	return f.client.Close()
}

// DownloadCachedFile returns the local path of the named file, downloading
// it first if no cached copy exists. The user is informed when a download
// actually happens.
func (f *Fetcher) DownloadCachedFile(ctx context.Context, url, filename string) (string, error) {
	path := filepath.Join(f.dir, filename)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	ctxlog.FromContext(ctx).Info("Downloading file for bear.",
		"bear", f.bearName, "filename", filename, "url", url)

	res, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", err
	}
	if res.IsError() {
		return "", fmt.Errorf("download of %s failed with status %s", url, res.Status())
	}
	if err := os.WriteFile(path, res.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
