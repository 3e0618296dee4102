// SPDX-License-Identifier: MPL-2.0

// Package module defines the lola module model: a named bundle of skill,
// command, and agent definitions described by a .lola/module.yml manifest.
//
// Skills are declared in the manifest as relative paths. Commands and agents
// are discovered by listing commands/*.md and agents/*.md — the manifest
// never declares them. Loading a directory whose manifest is missing or has
// the wrong type sentinel yields no module (nil, nil): the directory is
// simply not a lola module.
package module

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/SecKatie/lola/pkg/frontmatter"
)

const (
	// ManifestPath is the manifest location relative to the module root.
	ManifestPath = ".lola/module.yml"

	// ManifestType is the sentinel value the manifest's type field must carry.
	ManifestType = "lola/module"

	// SkillFile is the skill definition filename inside a skill directory.
	SkillFile = "SKILL.md"

	// DefaultVersion is used when the manifest omits a version.
	DefaultVersion = "0.1.0"
)

type (
	// Module represents a loaded lola module.
	Module struct {
		// Name is the module's registry name (the directory basename).
		Name string
		// Path is the module's directory, exclusively owned by the registry.
		Path string
		// Version is the manifest version string.
		Version string
		// Description is the optional manifest description.
		Description string
		// Skills are manifest-declared skill paths relative to the module root.
		Skills []string
		// Commands are command names discovered from commands/*.md.
		Commands []string
		// Agents are agent names discovered from agents/*.md.
		Agents []string
	}

	// manifest mirrors the on-disk .lola/module.yml structure.
	manifest struct {
		Type        string   `yaml:"type"`
		Version     string   `yaml:"version"`
		Description string   `yaml:"description"`
		Skills      []string `yaml:"skills"`
	}
)

// Load reads the module at dir. It returns (nil, nil) when dir holds no
// recognizable module manifest, so callers can scan registry directories
// without treating foreign entries as errors.
func Load(dir string) (*Module, error) {
	raw, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(ManifestPath)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Type != ManifestType {
		return nil, nil
	}

	version := m.Version
	if version == "" {
		version = DefaultVersion
	}

	mod := &Module{
		Name:        filepath.Base(dir),
		Path:        dir,
		Version:     version,
		Description: m.Description,
		Skills:      m.Skills,
		Commands:    listMarkdown(filepath.Join(dir, "commands")),
		Agents:      listMarkdown(filepath.Join(dir, "agents")),
	}
	return mod, nil
}

// SkillDir resolves the source directory for a named skill. A skills/
// subdirectory takes precedence over a top-level directory of the same name.
func (m *Module) SkillDir(skill string) string {
	preferred := filepath.Join(m.Path, "skills", filepath.FromSlash(skill))
	if info, err := os.Stat(preferred); err == nil && info.IsDir() {
		return preferred
	}
	return filepath.Join(m.Path, filepath.FromSlash(skill))
}

// CommandFile returns the source file for a named command.
func (m *Module) CommandFile(name string) string {
	return filepath.Join(m.Path, "commands", name+".md")
}

// AgentFile returns the source file for a named agent.
func (m *Module) AgentFile(name string) string {
	return filepath.Join(m.Path, "agents", name+".md")
}

// Validate checks the module structure: manifest presence, every declared
// skill directory with its SKILL.md, and skill frontmatter carrying a
// description. Problems are returned as messages; a module with problems is
// still usable (warnings, not a fatal state).
func (m *Module) Validate() []string {
	var problems []string

	if _, err := os.Stat(filepath.Join(m.Path, filepath.FromSlash(ManifestPath))); err != nil {
		problems = append(problems, "missing manifest: "+ManifestPath)
	}

	for _, skill := range m.Skills {
		dir := m.SkillDir(skill)
		if _, err := os.Stat(dir); err != nil {
			problems = append(problems, "skill directory not found: "+skill)
			continue
		}
		skillFile := filepath.Join(dir, SkillFile)
		raw, err := os.ReadFile(skillFile)
		if err != nil {
			problems = append(problems, fmt.Sprintf("missing %s in skill: %s", SkillFile, skill))
			continue
		}
		for _, p := range checkSkillFrontmatter(string(raw)) {
			problems = append(problems, fmt.Sprintf("%s/%s: %s", skill, SkillFile, p))
		}
	}

	return problems
}

// checkSkillFrontmatter validates the frontmatter of a SKILL.md document.
func checkSkillFrontmatter(content string) []string {
	doc, err := frontmatter.Parse(content)
	switch {
	case err == frontmatter.ErrMissing:
		return []string{"missing YAML frontmatter (file should start with '---')"}
	case err == frontmatter.ErrUnclosed:
		return []string{"unclosed YAML frontmatter (missing closing '---')"}
	case err != nil:
		return []string{"invalid YAML frontmatter: " + err.Error()}
	}
	if doc.Get("description") == "" {
		return []string{"missing required field: 'description'"}
	}
	return nil
}

// listMarkdown returns the sorted basenames (without extension) of *.md
// files directly inside dir. A missing directory yields nil.
func listMarkdown(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".md"))
	}
	sort.Strings(names)
	return names
}
