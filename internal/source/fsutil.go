// SPDX-License-Identifier: MPL-2.0

package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyDir recursively copies src into dst. dst must not exist yet.
func CopyDir(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("reading source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("listing %s: %w", src, err)
	}
	for _, e := range entries {
		srcPath := filepath.Join(src, e.Name())
		dstPath := filepath.Join(dst, e.Name())
		switch {
		case e.IsDir():
			if err := CopyDir(srcPath, dstPath); err != nil {
				return err
			}
		case e.Type()&os.ModeSymlink != 0:
			// Symlinks are not carried into the registry.
		default:
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, clampFileMode(info.Mode()))
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	_, err = io.Copy(out, in)
	closeErr := out.Close()
	if err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return closeErr
}

// replaceDir installs src at dst, removing any existing entry first.
// Replacement is remove-then-write, not atomic; a crash between the two
// steps leaves dst missing.
func replaceDir(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("removing existing %s: %w", dst, err)
	}
	return moveDir(src, dst)
}

// moveDir renames src to dst, falling back to copy+remove when the rename
// crosses filesystems (staging lives in the system temp dir, the registry
// in the lola home).
func moveDir(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := CopyDir(src, dst); err != nil {
		return err
	}
	return os.RemoveAll(src)
}
