// SPDX-License-Identifier: MPL-2.0

package target

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// claudeTarget is the direct-copy target: skills are whole directories
// copied verbatim, commands are verbatim markdown, agents are verbatim
// markdown with a "model: inherit" frontmatter field injected.
type claudeTarget struct{}

func (*claudeTarget) Name() string         { return "claude-code" }
func (*claudeTarget) SupportsAgents() bool { return true }

func (*claudeTarget) SkillPath(projectPath string) (string, error) {
	return projectSubdir(projectPath, ".claude", "skills")
}

func (*claudeTarget) CommandPath(projectPath string) (string, error) {
	return projectSubdir(projectPath, ".claude", "commands")
}

func (*claudeTarget) AgentPath(projectPath string) (string, error) {
	return projectSubdir(projectPath, ".claude", "agents")
}

// GenerateSkill copies the whole skill directory — SKILL.md plus sibling
// files and subdirectories — under the installed identifier.
func (*claudeTarget) GenerateSkill(skill SkillSource, dest, projectPath string) error {
	if _, err := os.Stat(skill.Dir); err != nil {
		return fmt.Errorf("%w: %s", ErrArtifactSourceMissing, skill.Dir)
	}
	return copyTree(skill.Dir, filepath.Join(dest, skill.Installed))
}

func (t *claudeTarget) GenerateCommand(srcFile, destDir, cmdName, moduleName string) error {
	return copyVerbatim(srcFile, destDir, t.CommandFileName(moduleName, cmdName))
}

func (t *claudeTarget) GenerateAgent(srcFile, destDir, agentName, moduleName string) error {
	content, err := injectFrontmatterField(srcFile, "model", "inherit")
	if err != nil {
		return err
	}
	return writeArtifact(destDir, t.AgentFileName(moduleName, agentName), content)
}

func (*claudeTarget) RemoveSkill(dest, installed string) error {
	return os.RemoveAll(filepath.Join(dest, installed))
}

func (*claudeTarget) CommandFileName(moduleName, cmdName string) string {
	return moduleName + "-" + cmdName + ".md"
}

func (*claudeTarget) AgentFileName(moduleName, agentName string) string {
	return moduleName + "-" + agentName + ".md"
}

// projectSubdir joins path elements under a required project path.
func projectSubdir(projectPath string, elems ...string) (string, error) {
	if projectPath == "" {
		return "", ErrProjectPathRequired
	}
	return filepath.Join(append([]string{projectPath}, elems...)...), nil
}

// writeArtifact writes content into destDir, creating it as needed.
func writeArtifact(destDir, filename, content string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", destDir, err)
	}
	if err := os.WriteFile(filepath.Join(destDir, filename), []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	return nil
}

// copyVerbatim copies a source file into destDir under filename.
func copyVerbatim(srcFile, destDir, filename string) error {
	raw, err := os.ReadFile(srcFile)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrArtifactSourceMissing, srcFile)
	}
	return writeArtifact(destDir, filename, string(raw))
}

// copyTree recursively copies src into dst, replacing existing entries.
func copyTree(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("listing %s: %w", src, err)
	}
	for _, e := range entries {
		srcPath := filepath.Join(src, e.Name())
		dstPath := filepath.Join(dst, e.Name())
		if e.IsDir() {
			if err := os.RemoveAll(dstPath); err != nil {
				return err
			}
			if err := copyTree(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := copyTreeFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

func copyTreeFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
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
