// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SecKatie/lola/pkg/module"
)

// placeExtracted detects the module root inside extractDir, validates the
// resulting name, and installs the module into destDir, replacing any
// existing entry of the same name. When the detected root is the extraction
// directory itself (flat archive), defaultName supplies the module name.
func placeExtracted(extractDir, defaultName, destDir string) (string, error) {
	root := detectModuleRoot(extractDir)
	name := filepath.Base(root)
	if root == extractDir {
		name = defaultName
	}
	name, err := module.ValidateName(name)
	if err != nil {
		return "", err
	}

	final := filepath.Join(destDir, name)
	if err := replaceDir(root, final); err != nil {
		return "", err
	}
	return final, nil
}

// zipHandler claims existing local .zip files.
type zipHandler struct{}

func (*zipHandler) Type() Type { return TypeZip }

func (*zipHandler) Claims(source string) bool {
	if !strings.HasSuffix(strings.ToLower(source), ".zip") {
		return false
	}
	info, err := os.Stat(source)
	return err == nil && !info.IsDir()
}

func (*zipHandler) Fetch(ctx context.Context, source, destDir string) (string, error) {
	staging, err := os.MkdirTemp("", "lola-zip-*")
	if err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	extractDir := filepath.Join(staging, "extracted")
	if err := os.Mkdir(extractDir, 0o755); err != nil {
		return "", fmt.Errorf("creating extraction directory: %w", err)
	}
	if err := extractZip(source, extractDir); err != nil {
		return "", err
	}

	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return placeExtracted(extractDir, stem, destDir)
}

// tarHandler claims existing local tar archives (.tar, .tar.gz, .tgz,
// .tar.bz2, .tar.xz).
type tarHandler struct{}

func (*tarHandler) Type() Type { return TypeTar }

func (*tarHandler) Claims(source string) bool {
	if !isTarName(source) {
		return false
	}
	info, err := os.Stat(source)
	return err == nil && !info.IsDir()
}

func (*tarHandler) Fetch(ctx context.Context, source, destDir string) (string, error) {
	staging, err := os.MkdirTemp("", "lola-tar-*")
	if err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	extractDir := filepath.Join(staging, "extracted")
	if err := os.Mkdir(extractDir, 0o755); err != nil {
		return "", fmt.Errorf("creating extraction directory: %w", err)
	}
	if err := extractTar(source, extractDir); err != nil {
		return "", err
	}

	return placeExtracted(extractDir, tarStem(filepath.Base(source)), destDir)
}

// folderHandler claims any existing local directory. The folder is copied
// wholesale into the destination under its own basename.
type folderHandler struct{}

func (*folderHandler) Type() Type { return TypeFolder }

func (*folderHandler) Claims(source string) bool {
	info, err := os.Stat(source)
	return err == nil && info.IsDir()
}

func (*folderHandler) Fetch(ctx context.Context, source, destDir string) (string, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", fmt.Errorf("resolving source path: %w", err)
	}

	name, err := module.ValidateName(filepath.Base(abs))
	if err != nil {
		return "", err
	}

	staging, err := os.MkdirTemp("", "lola-folder-*")
	if err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	staged := filepath.Join(staging, name)
	if err := CopyDir(abs, staged); err != nil {
		return "", err
	}

	final := filepath.Join(destDir, name)
	if err := replaceDir(staged, final); err != nil {
		return "", err
	}
	return final, nil
}
