// Package fetcher keeps local copies of the remote source files.
//
// A file present at its destination path is a cache hit; nothing checks its
// age or contents. Downloads stream into a temp file next to the destination
// and are renamed into place only once complete, so an interrupted transfer
// never looks like a cached file.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	chunkSize      = 32 * 1024
	defaultTimeout = 10 * time.Minute
)

// DownloadError reports a failed transfer of URL.
// StatusCode is 0 when the server never answered.
type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to download %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Fetcher downloads source files on cache miss
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a fetcher whose transfers fail after timeout.
// A non-positive timeout falls back to ten minutes.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// EnsureLocal makes sure destination exists, downloading url into it if not
func (f *Fetcher) EnsureLocal(ctx context.Context, url, destination string) error {
	if _, err := os.Stat(destination); err == nil {
		log.WithField("path", destination).Info("File already exists")
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", destination, err)
	}

	dir := filepath.Dir(destination)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	start := time.Now()
	written, err := f.download(ctx, url, destination)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"url":     url,
		"path":    destination,
		"bytes":   written,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("Downloaded")
	return nil
}

func (f *Fetcher) download(ctx context.Context, url, destination string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, &DownloadError{URL: url, Err: err}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, &DownloadError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &DownloadError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	tmp, err := os.CreateTemp(filepath.Dir(destination), "."+filepath.Base(destination)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	written, err := io.CopyBuffer(tmp, resp.Body, make([]byte, chunkSize))
	if err != nil {
		return written, &DownloadError{URL: url, Err: err}
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		return written, &DownloadError{URL: url, Err: fmt.Errorf("short body: got %d of %d bytes", written, resp.ContentLength)}
	}

	if err := tmp.Sync(); err != nil {
		return written, fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return written, fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, destination); err != nil {
		return written, fmt.Errorf("failed to move download into place: %w", err)
	}
	committed = true
	return written, nil
}
