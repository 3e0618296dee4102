// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// downloadTimeout bounds the whole download, connection included. A single
// failure is terminal for the fetch; there is no retry.
const downloadTimeout = 60 * time.Second

// downloadFile fetches rawURL into destPath using a bounded-timeout client.
func downloadFile(ctx context.Context, rawURL, destPath string) error {
	client := &http.Client{Timeout: downloadTimeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &NetworkError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &NetworkError{URL: rawURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating download file: %w", err)
	}

	_, err = io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err != nil {
		return &NetworkError{URL: rawURL, Err: err}
	}
	return closeErr
}

// urlArchiveName returns the basename of an archive URL path.
func urlArchiveName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "module"
	}
	return path.Base(parsed.Path)
}

func isHTTPURL(source string) (*url.URL, bool) {
	parsed, err := url.Parse(source)
	if err != nil {
		return nil, false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, false
	}
	return parsed, true
}

// zipURLHandler claims http(s) URLs whose path ends in .zip.
type zipURLHandler struct{}

func (*zipURLHandler) Type() Type { return TypeZipURL }

func (*zipURLHandler) Claims(source string) bool {
	parsed, ok := isHTTPURL(source)
	return ok && strings.HasSuffix(strings.ToLower(parsed.Path), ".zip")
}

func (*zipURLHandler) Fetch(ctx context.Context, source, destDir string) (string, error) {
	staging, err := os.MkdirTemp("", "lola-zipurl-*")
	if err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	filename := urlArchiveName(source)
	archivePath := filepath.Join(staging, filename)
	if err := downloadFile(ctx, source, archivePath); err != nil {
		return "", err
	}

	extractDir := filepath.Join(staging, "extracted")
	if err := os.Mkdir(extractDir, 0o755); err != nil {
		return "", fmt.Errorf("creating extraction directory: %w", err)
	}
	if err := extractZip(archivePath, extractDir); err != nil {
		return "", err
	}

	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	return placeExtracted(extractDir, stem, destDir)
}

// tarURLHandler claims http(s) URLs whose path ends in a tar extension.
type tarURLHandler struct{}

func (*tarURLHandler) Type() Type { return TypeTarURL }

func (*tarURLHandler) Claims(source string) bool {
	parsed, ok := isHTTPURL(source)
	return ok && isTarName(parsed.Path)
}

func (*tarURLHandler) Fetch(ctx context.Context, source, destDir string) (string, error) {
	staging, err := os.MkdirTemp("", "lola-tarurl-*")
	if err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	filename := urlArchiveName(source)
	archivePath := filepath.Join(staging, filename)
	if err := downloadFile(ctx, source, archivePath); err != nil {
		return "", err
	}

	extractDir := filepath.Join(staging, "extracted")
	if err := os.Mkdir(extractDir, 0o755); err != nil {
		return "", fmt.Errorf("creating extraction directory: %w", err)
	}
	if err := extractTar(archivePath, extractDir); err != nil {
		return "", err
	}

	return placeExtracted(extractDir, tarStem(filename), destDir)
}
