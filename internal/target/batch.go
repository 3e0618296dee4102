// SPDX-License-Identifier: MPL-2.0

package target

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SecKatie/lola/pkg/module"
)

// errBatchOnly rejects per-skill calls on assistants whose skills render
// into a single shared document.
var errBatchOnly = errors.New("skills render through the shared document for this assistant")

// renderSkillsBlock builds a module's subsection for the shared document:
// the level-3 module heading followed by one level-4 entry per skill
// pointing at its SKILL.md, project-relative when possible.
func renderSkillsBlock(moduleName string, skills []SkillSource, projectPath string) string {
	var b strings.Builder
	b.WriteString("\n### " + moduleName + "\n\n")
	for _, s := range skills {
		mdPath := filepath.Join(s.Dir, module.SkillFile)
		if projectPath != "" {
			if rel, err := filepath.Rel(projectPath, s.Dir); err == nil && !strings.HasPrefix(rel, "..") {
				mdPath = filepath.Join(rel, module.SkillFile)
			}
		}
		b.WriteString("#### " + s.Name + "\n")
		b.WriteString("**When to use:** " + s.Description + "\n")
		b.WriteString("**Instructions:** Read `" + filepath.ToSlash(mdPath) + "` for detailed guidance.\n\n")
	}
	return b.String()
}

// upsertSkillsDoc merges a module's skill subsection into destFile,
// creating the document and its parent directory when absent. The header
// is the assistant's own introduction, written only when the managed
// block does not exist yet.
func upsertSkillsDoc(destFile, moduleName string, skills []SkillSource, projectPath, header string) error {
	doc := ""
	raw, err := os.ReadFile(destFile)
	switch {
	case err == nil:
		doc = string(raw)
	case os.IsNotExist(err):
		if err := os.MkdirAll(filepath.Dir(destFile), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(destFile), err)
		}
	default:
		return fmt.Errorf("reading %s: %w", destFile, err)
	}

	rendered := renderSkillsBlock(moduleName, skills, projectPath)
	merged := UpsertSection(doc, moduleName, rendered, header)
	if err := os.WriteFile(destFile, []byte(merged), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", destFile, err)
	}
	return nil
}

// removeSkillsDoc drops a module's subsection from destFile. A missing
// document or missing managed block is not an error.
func removeSkillsDoc(destFile, moduleName string) error {
	raw, err := os.ReadFile(destFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", destFile, err)
	}
	merged := RemoveSection(string(raw), moduleName)
	if err := os.WriteFile(destFile, []byte(merged), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", destFile, err)
	}
	return nil
}

// generateTOMLCommand converts a markdown command into the structured
// TOML form used by assistants with TOML command catalogs.
func generateTOMLCommand(srcFile, destDir, filename string) error {
	raw, err := os.ReadFile(srcFile)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrArtifactSourceMissing, srcFile)
	}
	return writeArtifact(destDir, filename, CommandToTOML(string(raw)))
}
