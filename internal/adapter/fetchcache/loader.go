// Package fetchcache implements the cache-or-fetch contract shared by both
// ingestion sources: a local cache file short-circuits network access; a
// fetch persists the raw payload verbatim before anything parses it.
package fetchcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Loader fetches one URL with a local file cache in front of it.
type Loader struct {
	url        string
	cacheFile  string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Loader for one source URL and cache path.
func New(url, cacheFile string, timeout time.Duration, logger *slog.Logger) *Loader {
	return &Loader{
		url:        url,
		cacheFile:  cacheFile,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Load returns the raw payload and whether it came from the cache file.
// On a network fetch the payload is persisted to the cache file verbatim
// before returning, so the next run never touches the network. There are no
// retries; the caller aborts on error.
func (l *Loader) Load(ctx context.Context) (payload []byte, fromCache bool, err error) {
	data, err := os.ReadFile(l.cacheFile)
	if err == nil {
		l.logger.Info("using cached payload", "file", l.cacheFile, "bytes", len(data))
		return data, true, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, fmt.Errorf("read cache %s: %w", l.cacheFile, err)
	}

	data, err = l.fetch(ctx)
	if err != nil {
		return nil, false, err
	}

	if err := l.persist(data); err != nil {
		return nil, false, err
	}
	l.logger.Info("fetched and cached payload", "url", l.url, "file", l.cacheFile, "bytes", len(data))
	return data, false, nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", l.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: status %d: %s", l.url, resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return data, nil
}

// persist writes via a temp file and rename so a crash mid-write never
// leaves a truncated cache to be trusted on the next run.
func (l *Loader) persist(data []byte) error {
	dir := filepath.Dir(l.cacheFile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(l.cacheFile)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.cacheFile); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename cache: %w", err)
	}
	return nil
}
