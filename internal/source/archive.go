// SPDX-License-Identifier: MPL-2.0

package source

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// maxArchiveFileBytes bounds a single extracted file (500 MB). Guards
// against decompression bombs in untrusted archives.
const maxArchiveFileBytes = 500 << 20

// extractZip extracts a zip archive into dest. All member paths are
// resolved against dest before anything is written; a member that is not
// dest or a descendant of dest aborts the extraction with PathEscapeError.
func extractZip(zipPath, dest string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("opening zip: %w", err)
	}
	defer zr.Close()

	destAbs, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("resolving destination: %w", err)
	}

	// Containment pass first: detect escapes before a single byte lands.
	for _, f := range zr.File {
		target := filepath.Join(destAbs, filepath.FromSlash(f.Name))
		if !contained(destAbs, target) {
			return &PathEscapeError{Member: f.Name}
		}
	}

	for _, f := range zr.File {
		target := filepath.Join(destAbs, filepath.FromSlash(f.Name))
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating parent directory: %w", err)
		}
		if err := extractZipFile(f, target); err != nil {
			return fmt.Errorf("extracting %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractZipFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, clampFileMode(f.Mode()))
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, io.LimitReader(rc, maxArchiveFileBytes))
	return err
}

// extractTar extracts a tar archive (optionally gzip/bzip2/xz compressed,
// selected by filename extension) into dest using a data policy: device and
// other special entries are dropped, symlinks are dropped, absolute paths
// and ".." segments fail the whole extraction, and permission bits are
// clamped to 0755/0644.
func extractTar(tarPath, dest string) error {
	f, err := os.Open(tarPath)
	if err != nil {
		return fmt.Errorf("opening tar: %w", err)
	}
	defer f.Close()

	r, err := tarDecompressor(tarPath, f)
	if err != nil {
		return err
	}

	destAbs, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("resolving destination: %w", err)
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar: %w", err)
		}

		name := filepath.FromSlash(hdr.Name)
		if filepath.IsAbs(name) || escapes(hdr.Name) {
			return &PathEscapeError{Member: hdr.Name}
		}
		target := filepath.Join(destAbs, name)
		if !contained(destAbs, target) {
			return &PathEscapeError{Member: hdr.Name}
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("creating parent directory: %w", err)
			}
			out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, clampFileMode(os.FileMode(hdr.Mode)))
			if err != nil {
				return fmt.Errorf("creating file: %w", err)
			}
			_, err = io.Copy(out, io.LimitReader(tr, maxArchiveFileBytes))
			closeErr := out.Close()
			if err != nil {
				return fmt.Errorf("extracting %s: %w", hdr.Name, err)
			}
			if closeErr != nil {
				return fmt.Errorf("closing %s: %w", hdr.Name, closeErr)
			}
		default:
			// Symlinks, devices, FIFOs and other special entries are dropped.
		}
	}
}

// tarDecompressor wraps f with the decompressor matching the archive
// filename extension.
func tarDecompressor(tarPath string, f io.Reader) (io.Reader, error) {
	lower := strings.ToLower(tarPath)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return gz, nil
	case strings.HasSuffix(lower, ".tar.bz2"):
		return bzip2.NewReader(f), nil
	case strings.HasSuffix(lower, ".tar.xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening xz stream: %w", err)
		}
		return xr, nil
	default:
		return f, nil
	}
}

// contained reports whether target equals base or is a descendant of it.
func contained(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator)))
}

// escapes reports whether a slash-separated archive member name contains a
// ".." segment.
func escapes(name string) bool {
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

// clampFileMode reduces file permission bits to 0755 for executables and
// 0644 for everything else.
func clampFileMode(mode os.FileMode) os.FileMode {
	if mode&0o111 != 0 {
		return 0o755
	}
	return 0o644
}

// isTarName reports whether name carries a recognized tar extension.
func isTarName(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range []string{".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tar.xz"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// tarStem strips the tar extension from an archive filename.
func tarStem(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range []string{".tar.gz", ".tar.bz2", ".tar.xz", ".tgz", ".tar"} {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}
