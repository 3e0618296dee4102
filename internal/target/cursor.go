// SPDX-License-Identifier: MPL-2.0

package target

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SecKatie/lola/pkg/frontmatter"
	"github.com/SecKatie/lola/pkg/module"
)

// cursorTarget renders each skill as a rule file (.mdc) whose body is the
// skill instructions with relative asset paths rewritten to resolve from
// the project root. Commands are verbatim markdown; agents get
// "model: inherit" like the direct-copy target.
type cursorTarget struct{}

func (*cursorTarget) Name() string         { return "cursor" }
func (*cursorTarget) SupportsAgents() bool { return true }

func (*cursorTarget) SkillPath(projectPath string) (string, error) {
	return projectSubdir(projectPath, ".cursor", "rules")
}

func (*cursorTarget) CommandPath(projectPath string) (string, error) {
	return projectSubdir(projectPath, ".cursor", "commands")
}

func (*cursorTarget) AgentPath(projectPath string) (string, error) {
	return projectSubdir(projectPath, ".cursor", "agents")
}

func (*cursorTarget) GenerateSkill(skill SkillSource, dest, projectPath string) error {
	skillFile := filepath.Join(skill.Dir, module.SkillFile)
	raw, err := os.ReadFile(skillFile)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrArtifactSourceMissing, skillFile)
	}

	// Skills without frontmatter still render; the whole file is the body.
	doc, err := frontmatter.Parse(string(raw))
	if err != nil && !errors.Is(err, frontmatter.ErrMissing) && !errors.Is(err, frontmatter.ErrUnclosed) {
		return fmt.Errorf("parsing %s: %w", skillFile, err)
	}

	assetsPath := skill.Dir
	if projectPath != "" {
		if rel, relErr := filepath.Rel(projectPath, skill.Dir); relErr == nil {
			assetsPath = rel
		}
	}
	body := RewriteRelativePaths(doc.Body(), filepath.ToSlash(assetsPath))

	rule := "---\n" +
		"description: " + skill.Description + "\n" +
		"globs:\n" +
		"alwaysApply: false\n" +
		"---\n\n" +
		body

	return writeArtifact(dest, skill.Installed+".mdc", rule)
}

func (t *cursorTarget) GenerateCommand(srcFile, destDir, cmdName, moduleName string) error {
	return copyVerbatim(srcFile, destDir, t.CommandFileName(moduleName, cmdName))
}

func (t *cursorTarget) GenerateAgent(srcFile, destDir, agentName, moduleName string) error {
	content, err := injectFrontmatterField(srcFile, "model", "inherit")
	if err != nil {
		return err
	}
	return writeArtifact(destDir, t.AgentFileName(moduleName, agentName), content)
}

func (*cursorTarget) RemoveSkill(dest, installed string) error {
	path := filepath.Join(dest, installed+".mdc")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (*cursorTarget) CommandFileName(moduleName, cmdName string) string {
	return moduleName + "-" + cmdName + ".md"
}

func (*cursorTarget) AgentFileName(moduleName, agentName string) string {
	return moduleName + "-" + agentName + ".md"
}
