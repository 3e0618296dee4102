// SPDX-License-Identifier: MPL-2.0

// Package market manages marketplace catalogs: named YAML indexes of
// installable modules fetched from a URL. Each marketplace is stored as
// two files — a small reference (name, url, enabled) and a cached copy
// of the fetched catalog — so listing works offline.
package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

const fetchTimeout = 60 * time.Second

var (
	// ErrExists is returned by Add when a marketplace name is taken.
	ErrExists = errors.New("marketplace already exists")

	// ErrNotFound is returned when no marketplace has the given name.
	ErrNotFound = errors.New("marketplace not found")

	// ErrInvalidCatalog wraps catalog validation failures.
	ErrInvalidCatalog = errors.New("invalid marketplace catalog")
)

type (
	// ModuleEntry is one installable module listed by a catalog.
	ModuleEntry struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Version     string `yaml:"version"`
		Repository  string `yaml:"repository"`
	}

	// Catalog is the document a marketplace URL serves.
	Catalog struct {
		Name        string        `yaml:"name"`
		Description string        `yaml:"description,omitempty"`
		Version     string        `yaml:"version"`
		URL         string        `yaml:"url,omitempty"`
		Enabled     bool          `yaml:"enabled"`
		Modules     []ModuleEntry `yaml:"modules"`
	}

	// Reference is the locally chosen identity of a marketplace.
	Reference struct {
		Name    string `yaml:"name"`
		URL     string `yaml:"url"`
		Enabled bool   `yaml:"enabled"`
	}

	// Marketplace pairs a reference with its cached catalog.
	Marketplace struct {
		Reference
		Catalog Catalog
	}

	// Registry stores marketplace references and catalog caches on disk.
	Registry struct {
		marketDir string
		cacheDir  string
	}
)

// Validate checks a fetched catalog before it is cached. It returns one
// message per problem.
func (c *Catalog) Validate() []string {
	var problems []string
	if c.Name == "" {
		problems = append(problems, "catalog has no name")
	}
	if len(c.Modules) > 0 && c.Version == "" {
		problems = append(problems, "catalog lists modules but has no version")
	}
	for i, m := range c.Modules {
		if m.Name == "" {
			problems = append(problems, fmt.Sprintf("module %d has no name", i))
		}
		if m.Repository == "" {
			problems = append(problems, fmt.Sprintf("module %q has no repository", m.Name))
		}
	}
	return problems
}

// FindModule returns the catalog entry with the given name, or nil.
func (c *Catalog) FindModule(name string) *ModuleEntry {
	for i := range c.Modules {
		if c.Modules[i].Name == name {
			return &c.Modules[i]
		}
	}
	return nil
}

// NewRegistry opens (creating if needed) a registry rooted at the given
// directories.
func NewRegistry(marketDir, cacheDir string) (*Registry, error) {
	for _, dir := range []string{marketDir, cacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return &Registry{marketDir: marketDir, cacheDir: cacheDir}, nil
}

// Add fetches the catalog at url, validates it, and stores it under name.
func (r *Registry) Add(ctx context.Context, name, url string) (*Marketplace, error) {
	refFile := r.refPath(name)
	if _, err := os.Stat(refFile); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, name)
	}

	catalog, err := fetchCatalog(ctx, url)
	if err != nil {
		return nil, err
	}
	if problems := catalog.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
	}

	mp := &Marketplace{
		Reference: Reference{Name: name, URL: url, Enabled: true},
		Catalog:   *catalog,
	}
	mp.Catalog.URL = url
	mp.Catalog.Enabled = true

	if err := writeYAML(refFile, mp.Reference); err != nil {
		return nil, err
	}
	if err := writeYAML(r.cachePath(name), mp.Catalog); err != nil {
		return nil, err
	}
	log.Debug("added marketplace", "name", name, "modules", len(mp.Catalog.Modules))
	return mp, nil
}

// Refresh refetches a marketplace's catalog and rewrites its cache.
func (r *Registry) Refresh(ctx context.Context, name string) (*Marketplace, error) {
	mp, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	catalog, err := fetchCatalog(ctx, mp.URL)
	if err != nil {
		return nil, err
	}
	if problems := catalog.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
	}

	mp.Catalog = *catalog
	mp.Catalog.URL = mp.URL
	mp.Catalog.Enabled = mp.Enabled
	if err := writeYAML(r.cachePath(name), mp.Catalog); err != nil {
		return nil, err
	}
	return mp, nil
}

// Get loads one marketplace by name. A missing cache is tolerated: the
// reference alone still identifies the marketplace.
func (r *Registry) Get(name string) (*Marketplace, error) {
	var ref Reference
	if err := readYAML(r.refPath(name), &ref); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}

	mp := &Marketplace{Reference: ref}
	if err := readYAML(r.cachePath(name), &mp.Catalog); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return mp, nil
}

// List returns all marketplaces sorted by name.
func (r *Registry) List() ([]Marketplace, error) {
	entries, err := os.ReadDir(r.marketDir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", r.marketDir, err)
	}

	var all []Marketplace
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yml") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".yml")
		mp, err := r.Get(name)
		if err != nil {
			log.Warn("skipping unreadable marketplace", "name", name, "err", err)
			continue
		}
		all = append(all, *mp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

// Remove deletes a marketplace's reference and cache.
func (r *Registry) Remove(name string) error {
	if err := os.Remove(r.refPath(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return err
	}
	if err := os.Remove(r.cachePath(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// LookupModule searches enabled marketplaces for a module entry.
func (r *Registry) LookupModule(name string) (*ModuleEntry, *Marketplace, error) {
	all, err := r.List()
	if err != nil {
		return nil, nil, err
	}
	for i := range all {
		if !all[i].Enabled {
			continue
		}
		if entry := all[i].Catalog.FindModule(name); entry != nil {
			return entry, &all[i], nil
		}
	}
	return nil, nil, fmt.Errorf("%w: no marketplace lists module %q", ErrNotFound, name)
}

func (r *Registry) refPath(name string) string {
	return filepath.Join(r.marketDir, name+".yml")
}

func (r *Registry) cachePath(name string) string {
	return filepath.Join(r.cacheDir, name+".yml")
}

func fetchCatalog(ctx context.Context, url string) (*Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}

	client := &http.Client{Timeout: fetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog from %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching catalog from %s: HTTP %d", url, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading catalog from %s: %w", url, err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return &catalog, nil
}

// writeYAML and readYAML are the registry's small persistence helpers.
func writeYAML(path string, v any) error {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func readYAML(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
