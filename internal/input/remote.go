package input

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var httpClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	},
	Timeout: 5 * time.Minute,
}

// fetchAttempts bounds how often a remote list is requested.
const fetchAttempts = 3

// IsURL reports whether src names an http(s) resource rather than a file.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Localize returns a local path for src. URLs are downloaded (and
// gunzipped) into a temp file that cleanup removes; plain paths are
// returned unchanged with a no-op cleanup.
func Localize(ctx context.Context, src string) (string, func(), error) {
	if !IsURL(src) {
		return src, func() {}, nil
	}
	p, err := Fetch(ctx, src, "")
	if err != nil {
		return "", nil, err
	}
	return p, func() { os.Remove(p) }, nil
}

// Fetch downloads url into a temp file under tmpDir (system temp if empty),
// decompressing gzip bodies. Server errors and transport failures are
// retried with backoff; 4xx responses are not.
func Fetch(ctx context.Context, url, tmpDir string) (string, error) {
	var resp *http.Response
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		r, err := httpClient.Do(req)
		if err != nil {
			return err
		}
		if r.StatusCode == http.StatusOK {
			resp = r
			return nil
		}
		r.Body.Close()
		err = fmt.Errorf("HTTP %d", r.StatusCode)
		if r.StatusCode >= 400 && r.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 2 * time.Second
	b := backoff.WithContext(backoff.WithMaxRetries(eb, fetchAttempts-1), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return "", fmt.Errorf("downloading %s: %w", FileNameFromURL(url), err)
	}
	defer resp.Body.Close()

	body, closeFn, err := maybeGunzip(resp.Body)
	if err != nil {
		return "", err
	}
	defer closeFn()

	ext := path.Ext(strings.TrimSuffix(FileNameFromURL(url), ".gz"))
	tmpFile, err := os.CreateTemp(tmpDir, "npi-input-*"+ext)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	_, err = io.Copy(tmpFile, body)
	if closeErr := tmpFile.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("writing %s: %w", tmpFile.Name(), err)
	}
	return tmpFile.Name(), nil
}

// FileNameFromURL extracts the last path element of a URL, ignoring the
// query string.
func FileNameFromURL(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	return path.Base(url)
}
