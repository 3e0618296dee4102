// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// ErrNotUpdatable is returned when a module carries no provenance record.
var ErrNotUpdatable = errors.New("module has no source information")

// Update re-fetches a module from its recorded source and replaces it in
// place. The fresh copy is fetched into a staging location first; the old
// module directory is only removed after the fetch succeeded, so a failed
// update leaves the installed module untouched.
func Update(ctx context.Context, modulePath string) error {
	info, err := LoadSourceInfo(modulePath)
	if err != nil {
		return err
	}
	if info == nil {
		return fmt.Errorf("%w: cannot update", ErrNotUpdatable)
	}
	if info.Source == "" || info.Type == "" {
		return fmt.Errorf("invalid source information for %s", filepath.Base(modulePath))
	}

	// Local sources must still exist before anything is touched.
	switch info.Type {
	case TypeFolder:
		if _, err := os.Stat(info.Source); err != nil {
			return fmt.Errorf("source folder no longer exists: %s", info.Source)
		}
	case TypeZip, TypeTar:
		if _, err := os.Stat(info.Source); err != nil {
			return fmt.Errorf("source archive no longer exists: %s", info.Source)
		}
	}

	handler, ok := handlerFor(info.Type)
	if !ok {
		return fmt.Errorf("unknown source type: %s", info.Type)
	}

	staging, err := os.MkdirTemp("", "lola-update-*")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	log.Debug("updating module", "module", filepath.Base(modulePath), "type", info.Type)

	fetched, err := handler.Fetch(ctx, info.Source, staging)
	if err != nil {
		return fmt.Errorf("update fetch failed: %w", err)
	}

	// Swap only after the fetch succeeded, restoring the original module
	// name if the handler derived a different one.
	if err := replaceDir(fetched, modulePath); err != nil {
		return fmt.Errorf("replacing module: %w", err)
	}

	return SaveSourceInfo(modulePath, info.Source, info.Type)
}
