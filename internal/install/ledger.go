// SPDX-License-Identifier: MPL-2.0

package install

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ledgerVersion is written into every saved ledger file.
const ledgerVersion = "1.0"

type (
	// Installation is one ledger row: a module rendered for one assistant
	// in one scope. Skills hold the prefixed installed identifiers;
	// commands and agents hold bare item names.
	Installation struct {
		Module      string   `yaml:"module"`
		Assistant   string   `yaml:"assistant"`
		Scope       string   `yaml:"scope"`
		ProjectPath string   `yaml:"project_path,omitempty"`
		Skills      []string `yaml:"skills,omitempty"`
		Commands    []string `yaml:"commands,omitempty"`
		Agents      []string `yaml:"agents,omitempty"`
	}

	// Ledger is the installed.yml registry. Every mutation persists
	// immediately; there is no separate save step to forget.
	Ledger struct {
		path string
		rows []Installation
	}

	// Filter narrows ledger matches. Empty fields match anything.
	Filter struct {
		Assistant   string
		Scope       string
		ProjectPath string
	}

	ledgerFile struct {
		Version       string         `yaml:"version"`
		Installations []Installation `yaml:"installations"`
	}
)

// OpenLedger loads the ledger at path. A missing file yields an empty
// ledger rather than an error.
func OpenLedger(path string) (*Ledger, error) {
	l := &Ledger{path: path}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var file ledgerFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	l.rows = file.Installations
	return l, nil
}

// Add records an installation, replacing any existing row with the same
// (module, assistant, scope, project path) key.
func (l *Ledger) Add(inst Installation) error {
	kept := make([]Installation, 0, len(l.rows)+1)
	for _, row := range l.rows {
		if row.Module == inst.Module &&
			row.Assistant == inst.Assistant &&
			row.Scope == inst.Scope &&
			row.ProjectPath == inst.ProjectPath {
			continue
		}
		kept = append(kept, row)
	}
	l.rows = append(kept, inst)
	return l.save()
}

// Remove deletes rows for a module matching the filter and returns them.
func (l *Ledger) Remove(moduleName string, filter Filter) ([]Installation, error) {
	var removed, kept []Installation
	for _, row := range l.rows {
		if row.Module == moduleName && filter.matches(row) {
			removed = append(removed, row)
			continue
		}
		kept = append(kept, row)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	l.rows = kept
	if err := l.save(); err != nil {
		return nil, err
	}
	return removed, nil
}

// Find returns all rows for a module.
func (l *Ledger) Find(moduleName string) []Installation {
	var found []Installation
	for _, row := range l.rows {
		if row.Module == moduleName {
			found = append(found, row)
		}
	}
	return found
}

// All returns a copy of every row.
func (l *Ledger) All() []Installation {
	rows := make([]Installation, len(l.rows))
	copy(rows, l.rows)
	return rows
}

func (f Filter) matches(row Installation) bool {
	if f.Assistant != "" && row.Assistant != f.Assistant {
		return false
	}
	if f.Scope != "" && row.Scope != f.Scope {
		return false
	}
	if f.ProjectPath != "" && row.ProjectPath != f.ProjectPath {
		return false
	}
	return true
}

func (l *Ledger) save() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(l.path), err)
	}
	file := ledgerFile{Version: ledgerVersion, Installations: l.rows}
	raw, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}
	if err := os.WriteFile(l.path, raw, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", l.path, err)
	}
	return nil
}
