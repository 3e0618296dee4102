// SPDX-License-Identifier: MPL-2.0

// Package target renders a module's skills, commands, and agents into
// assistant-specific file formats. Each supported assistant implements the
// Target contract; the set is closed and registered statically, since a new
// assistant requires code changes anyway.
//
// Assistants whose skills land in a single shared markdown document
// (GEMINI.md, AGENTS.md) additionally implement BatchSkillTarget; their
// skill output goes through the managed-section merge engine in section.go.
package target

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownAssistant is the sentinel wrapped by UnknownAssistantError.
	ErrUnknownAssistant = errors.New("unknown assistant")

	// ErrAgentsUnsupported is returned by AgentPath when the assistant has
	// no agent artifact destination. Callers skip agents and continue.
	ErrAgentsUnsupported = errors.New("assistant does not support agents")

	// ErrProjectPathRequired is returned by path resolution when no project
	// path was supplied.
	ErrProjectPathRequired = errors.New("project path required for project scope")

	// ErrArtifactSourceMissing is the per-item failure for a skill, command,
	// or agent whose backing source does not exist.
	ErrArtifactSourceMissing = errors.New("artifact source missing")
)

// UnknownAssistantError is returned when an assistant name is not in the
// registry.
type UnknownAssistantError struct {
	Assistant string
}

// Error implements the error interface for UnknownAssistantError.
func (e *UnknownAssistantError) Error() string {
	return fmt.Sprintf("unknown assistant %q (supported: %v)", e.Assistant, Names())
}

// Unwrap returns ErrUnknownAssistant for errors.Is() compatibility.
func (e *UnknownAssistantError) Unwrap() error { return ErrUnknownAssistant }

type (
	// SkillSource describes one skill to render: its bare name, the
	// prefixed identifier it installs under, its source directory, and the
	// frontmatter description.
	SkillSource struct {
		Name        string
		Installed   string
		Dir         string
		Description string
	}

	// Target is the uniform per-assistant rendering contract. Path
	// resolution failures (missing project path, unsupported agents) skip
	// the artifact kind without aborting the others.
	Target interface {
		Name() string
		SupportsAgents() bool

		// SkillPath resolves the skill destination: a directory for
		// per-file targets, a document path for batch targets.
		SkillPath(projectPath string) (string, error)
		CommandPath(projectPath string) (string, error)
		AgentPath(projectPath string) (string, error)

		// GenerateSkill renders one skill into the resolved skill
		// destination. Batch targets reject per-skill calls; use
		// BatchSkillTarget instead.
		GenerateSkill(skill SkillSource, dest, projectPath string) error
		GenerateCommand(srcFile, destDir, cmdName, moduleName string) error
		GenerateAgent(srcFile, destDir, agentName, moduleName string) error

		// RemoveSkill deletes one installed skill artifact by its
		// installed identifier.
		RemoveSkill(dest, installed string) error

		CommandFileName(moduleName, cmdName string) string
		AgentFileName(moduleName, agentName string) string
	}

	// BatchSkillTarget is implemented by assistants whose skills share one
	// managed markdown document. All of a module's skills are rendered in
	// a single call.
	BatchSkillTarget interface {
		Target
		GenerateSkills(destFile, moduleName string, skills []SkillSource, projectPath string) error
		RemoveSkills(destFile, moduleName string) error
	}
)

// registry is the closed set of supported assistants.
var registry = map[string]Target{
	"claude-code": &claudeTarget{},
	"cursor":      &cursorTarget{},
	"gemini-cli":  &geminiTarget{},
	"opencode":    &opencodeTarget{},
}

// Get returns the target for an assistant name.
func Get(assistant string) (Target, error) {
	t, ok := registry[assistant]
	if !ok {
		return nil, &UnknownAssistantError{Assistant: assistant}
	}
	return t, nil
}

// Names returns the sorted list of supported assistant names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
