// SPDX-License-Identifier: MPL-2.0

package source

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// provenancePath is the source record location relative to a module root.
const provenancePath = ".lola/source.yml"

// SourceInfo records the origin of a fetched module so it can be re-fetched
// on update. Its absence is a normal state: manually added modules simply
// cannot be updated.
type SourceInfo struct {
	Source string `yaml:"source"`
	Type   Type   `yaml:"type"`
}

// SaveSourceInfo writes the provenance record beside a fetched module.
// Local sources are resolved to absolute paths so updates work from any
// working directory.
func SaveSourceInfo(modulePath, source string, t Type) error {
	if t == TypeFolder || t == TypeZip || t == TypeTar {
		abs, err := filepath.Abs(source)
		if err != nil {
			return fmt.Errorf("resolving source path: %w", err)
		}
		source = abs
	}

	file := filepath.Join(modulePath, filepath.FromSlash(provenancePath))
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("creating provenance directory: %w", err)
	}

	data, err := yaml.Marshal(SourceInfo{Source: source, Type: t})
	if err != nil {
		return fmt.Errorf("encoding provenance: %w", err)
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("writing provenance: %w", err)
	}
	return nil
}

// LoadSourceInfo reads the provenance record of a module. A missing record
// returns (nil, nil).
func LoadSourceInfo(modulePath string) (*SourceInfo, error) {
	raw, err := os.ReadFile(filepath.Join(modulePath, filepath.FromSlash(provenancePath)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading provenance: %w", err)
	}

	var info SourceInfo
	if err := yaml.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("parsing provenance: %w", err)
	}
	return &info, nil
}
