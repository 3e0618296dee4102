// SPDX-License-Identifier: MPL-2.0

package target

import (
	"path/filepath"
)

// opencodeSkillsHeader introduces the managed block the first time it is
// written into AGENTS.md.
const opencodeSkillsHeader = `## Lola Skills

These skills are installed by Lola and provide specialized capabilities.
When a task matches a skill's description, read the skill's SKILL.md file
to learn the detailed instructions and workflows.

**How to use skills:**
1. Check if your task matches any skill description below
2. Use the ` + "`read`" + ` tool on the skill's SKILL.md for detailed instructions
3. Follow the instructions in the SKILL.md file

`

// opencodeTarget batches skills into the project's AGENTS.md managed
// block. Commands convert to TOML; agents are markdown with a
// "mode: subagent" frontmatter field injected.
type opencodeTarget struct{}

func (*opencodeTarget) Name() string         { return "opencode" }
func (*opencodeTarget) SupportsAgents() bool { return true }

// SkillPath resolves to the shared skill document, not a directory.
func (*opencodeTarget) SkillPath(projectPath string) (string, error) {
	if projectPath == "" {
		return "", ErrProjectPathRequired
	}
	return filepath.Join(projectPath, "AGENTS.md"), nil
}

func (*opencodeTarget) CommandPath(projectPath string) (string, error) {
	return projectSubdir(projectPath, ".opencode", "commands")
}

func (*opencodeTarget) AgentPath(projectPath string) (string, error) {
	return projectSubdir(projectPath, ".opencode", "agent")
}

func (*opencodeTarget) GenerateSkill(SkillSource, string, string) error {
	return errBatchOnly
}

func (*opencodeTarget) GenerateSkills(destFile, moduleName string, skills []SkillSource, projectPath string) error {
	return upsertSkillsDoc(destFile, moduleName, skills, projectPath, opencodeSkillsHeader)
}

func (t *opencodeTarget) GenerateCommand(srcFile, destDir, cmdName, moduleName string) error {
	return generateTOMLCommand(srcFile, destDir, t.CommandFileName(moduleName, cmdName))
}

func (t *opencodeTarget) GenerateAgent(srcFile, destDir, agentName, moduleName string) error {
	content, err := injectFrontmatterField(srcFile, "mode", "subagent")
	if err != nil {
		return err
	}
	return writeArtifact(destDir, t.AgentFileName(moduleName, agentName), content)
}

func (*opencodeTarget) RemoveSkill(string, string) error {
	return errBatchOnly
}

func (*opencodeTarget) RemoveSkills(destFile, moduleName string) error {
	return removeSkillsDoc(destFile, moduleName)
}

func (*opencodeTarget) CommandFileName(moduleName, cmdName string) string {
	return moduleName + "-" + cmdName + ".toml"
}

func (*opencodeTarget) AgentFileName(moduleName, agentName string) string {
	return moduleName + "-" + agentName + ".md"
}
