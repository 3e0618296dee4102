// SPDX-License-Identifier: MPL-2.0

// Package install orchestrates rendering a module's artifacts for an
// assistant and keeping the installed.yml ledger in sync. Per-item
// failures are reported and tolerated; an installation is recorded as
// long as at least one artifact landed.
package install

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/SecKatie/lola/internal/config"
	"github.com/SecKatie/lola/internal/source"
	"github.com/SecKatie/lola/internal/target"
	"github.com/SecKatie/lola/pkg/frontmatter"
	"github.com/SecKatie/lola/pkg/module"
)

// ScopeProject is the only installation scope. The field is persisted so
// the ledger format has room for other scopes later.
const ScopeProject = "project"

// ErrNothingInstalled is returned when no artifact of any kind could be
// generated, so no ledger row was written.
var ErrNothingInstalled = errors.New("no artifacts installed")

type (
	// ItemKind labels which artifact family an event belongs to.
	ItemKind string

	// Event reports the outcome for one artifact, or for a whole kind
	// when Item is empty (the kind was skipped: missing destination,
	// unsupported capability).
	Event struct {
		Kind ItemKind
		Item string
		Err  error
	}

	// Reporter receives per-artifact events during Install and Uninstall.
	// A nil reporter is valid.
	Reporter func(Event)

	// Options parameterize one Install or Uninstall run.
	Options struct {
		Assistant   string
		ProjectPath string
		Report      Reporter
	}
)

const (
	KindSkill   ItemKind = "skill"
	KindCommand ItemKind = "command"
	KindAgent   ItemKind = "agent"
)

func (o Options) report(ev Event) {
	if o.Report != nil {
		o.Report(ev)
	}
}

// Install renders mod's skills, commands, and agents for the assistant in
// opts and records the result in the ledger. The module is first copied
// into the project's local module store so generated references outlive
// the registry copy.
func Install(mod *module.Module, ledger *Ledger, opts Options) (*Installation, error) {
	t, err := target.Get(opts.Assistant)
	if err != nil {
		return nil, err
	}
	projectPath, err := filepath.Abs(opts.ProjectPath)
	if err != nil {
		return nil, fmt.Errorf("resolving project path: %w", err)
	}

	local, err := stageLocalCopy(mod, projectPath)
	if err != nil {
		return nil, err
	}

	inst := Installation{
		Module:      mod.Name,
		Assistant:   t.Name(),
		Scope:       ScopeProject,
		ProjectPath: projectPath,
	}

	inst.Skills = installSkills(t, local, projectPath, opts)
	inst.Commands = installItems(KindCommand, t, projectPath, local.Commands, opts,
		t.CommandPath,
		func(name, destDir string) error {
			return t.GenerateCommand(local.CommandFile(name), destDir, name, local.Name)
		})
	inst.Agents = installItems(KindAgent, t, projectPath, local.Agents, opts,
		t.AgentPath,
		func(name, destDir string) error {
			return t.GenerateAgent(local.AgentFile(name), destDir, name, local.Name)
		})

	if len(inst.Skills) == 0 && len(inst.Commands) == 0 && len(inst.Agents) == 0 {
		return nil, ErrNothingInstalled
	}
	if err := ledger.Add(inst); err != nil {
		return nil, err
	}
	log.Debug("installed module", "module", mod.Name, "assistant", t.Name(),
		"skills", len(inst.Skills), "commands", len(inst.Commands), "agents", len(inst.Agents))
	return &inst, nil
}

// Uninstall removes the exact artifacts recorded for a module and drops
// the matching ledger rows. Missing artifacts are not an error.
func Uninstall(moduleName string, ledger *Ledger, opts Options) ([]Installation, error) {
	projectPath := opts.ProjectPath
	if projectPath != "" {
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			return nil, fmt.Errorf("resolving project path: %w", err)
		}
		projectPath = abs
	}

	removed, err := ledger.Remove(moduleName, Filter{
		Assistant:   opts.Assistant,
		Scope:       ScopeProject,
		ProjectPath: projectPath,
	})
	if err != nil {
		return nil, err
	}

	for _, row := range removed {
		if err := removeArtifacts(row, opts); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

func installSkills(t target.Target, mod *module.Module, projectPath string, opts Options) []string {
	if len(mod.Skills) == 0 {
		return nil
	}
	dest, err := t.SkillPath(projectPath)
	if err != nil {
		opts.report(Event{Kind: KindSkill, Err: err})
		return nil
	}

	var sources []target.SkillSource
	for _, name := range mod.Skills {
		dir := mod.SkillDir(name)
		src := target.SkillSource{
			Name:        name,
			Installed:   mod.Name + "-" + name,
			Dir:         dir,
			Description: skillDescription(dir),
		}
		sources = append(sources, src)
	}

	if batch, ok := t.(target.BatchSkillTarget); ok {
		// A shared-document entry pointing at a missing SKILL.md is worse
		// than no entry; absent sources fail per-item before the batch write.
		var present []target.SkillSource
		for _, s := range sources {
			if _, statErr := os.Stat(s.Dir); statErr != nil {
				opts.report(Event{Kind: KindSkill, Item: s.Name,
					Err: fmt.Errorf("%w: %s", target.ErrArtifactSourceMissing, s.Dir)})
				continue
			}
			present = append(present, s)
		}
		if len(present) == 0 {
			return nil
		}
		if err := batch.GenerateSkills(dest, mod.Name, present, projectPath); err != nil {
			for _, s := range present {
				opts.report(Event{Kind: KindSkill, Item: s.Name, Err: err})
			}
			return nil
		}
		installed := make([]string, 0, len(present))
		for _, s := range present {
			opts.report(Event{Kind: KindSkill, Item: s.Name})
			installed = append(installed, s.Installed)
		}
		return installed
	}

	var installed []string
	for _, s := range sources {
		if err := t.GenerateSkill(s, dest, projectPath); err != nil {
			opts.report(Event{Kind: KindSkill, Item: s.Name, Err: err})
			continue
		}
		opts.report(Event{Kind: KindSkill, Item: s.Name})
		installed = append(installed, s.Installed)
	}
	return installed
}

// installItems runs the shared command/agent loop: resolve the kind's
// destination once, then generate each item, reporting as it goes.
func installItems(kind ItemKind, t target.Target, projectPath string, names []string, opts Options,
	resolve func(string) (string, error), generate func(name, destDir string) error,
) []string {
	if len(names) == 0 {
		return nil
	}
	if kind == KindAgent && !t.SupportsAgents() {
		opts.report(Event{Kind: kind, Err: target.ErrAgentsUnsupported})
		return nil
	}
	destDir, err := resolve(projectPath)
	if err != nil {
		opts.report(Event{Kind: kind, Err: err})
		return nil
	}

	var installed []string
	for _, name := range names {
		if err := generate(name, destDir); err != nil {
			opts.report(Event{Kind: kind, Item: name, Err: err})
			continue
		}
		opts.report(Event{Kind: kind, Item: name})
		installed = append(installed, name)
	}
	return installed
}

func removeArtifacts(row Installation, opts Options) error {
	t, err := target.Get(row.Assistant)
	if err != nil {
		return err
	}

	if len(row.Skills) > 0 {
		dest, err := t.SkillPath(row.ProjectPath)
		if err == nil {
			if batch, ok := t.(target.BatchSkillTarget); ok {
				if err := batch.RemoveSkills(dest, row.Module); err != nil {
					return err
				}
			} else {
				for _, installed := range row.Skills {
					if err := t.RemoveSkill(dest, installed); err != nil {
						return err
					}
					opts.report(Event{Kind: KindSkill, Item: installed})
				}
			}
		}
	}

	if len(row.Commands) > 0 {
		if destDir, err := t.CommandPath(row.ProjectPath); err == nil {
			for _, name := range row.Commands {
				removeFile(filepath.Join(destDir, t.CommandFileName(row.Module, name)))
				opts.report(Event{Kind: KindCommand, Item: name})
			}
		}
	}

	if len(row.Agents) > 0 {
		if destDir, err := t.AgentPath(row.ProjectPath); err == nil {
			for _, name := range row.Agents {
				removeFile(filepath.Join(destDir, t.AgentFileName(row.Module, name)))
				opts.report(Event{Kind: KindAgent, Item: name})
			}
		}
	}
	return nil
}

func removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Debug("could not remove artifact", "path", path, "err", err)
	}
}

// stageLocalCopy mirrors the module into the project's local module store
// and returns the module loaded from there. A module already living in
// the store is used as-is.
func stageLocalCopy(mod *module.Module, projectPath string) (*module.Module, error) {
	localDir := config.LocalModulesDir(projectPath)
	dest := filepath.Join(localDir, mod.Name)

	srcAbs, err := filepath.Abs(mod.Path)
	if err != nil {
		return nil, err
	}
	if srcAbs != dest {
		if err := os.MkdirAll(localDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", localDir, err)
		}
		if err := os.RemoveAll(dest); err != nil {
			return nil, err
		}
		if err := source.CopyDir(srcAbs, dest); err != nil {
			return nil, fmt.Errorf("copying module to project: %w", err)
		}
	}

	local, err := module.Load(dest)
	if err != nil {
		return nil, err
	}
	if local == nil {
		return nil, fmt.Errorf("%s is not a module after staging", dest)
	}
	return local, nil
}

// skillDescription reads the description field from a skill's SKILL.md
// frontmatter; absent files or fields yield an empty description.
func skillDescription(skillDir string) string {
	raw, err := os.ReadFile(filepath.Join(skillDir, module.SkillFile))
	if err != nil {
		return ""
	}
	return frontmatter.Description(string(raw))
}
