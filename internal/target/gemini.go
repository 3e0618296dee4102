// SPDX-License-Identifier: MPL-2.0

package target

import (
	"path/filepath"
)

// geminiSkillsHeader introduces the managed block the first time it is
// written into GEMINI.md.
const geminiSkillsHeader = `## Lola Skills

These skills are installed by Lola and provide specialized capabilities.
When a task matches a skill's description, read the skill's SKILL.md file
to learn the detailed instructions and workflows.

**How to use skills:**
1. Check if your task matches any skill description below
2. Use ` + "`read_file`" + ` to read the skill's SKILL.md for detailed instructions
3. Follow the instructions in the SKILL.md file

`

// geminiTarget batches skills into the project's GEMINI.md managed block
// and converts commands to TOML. It has no agent destination.
type geminiTarget struct{}

func (*geminiTarget) Name() string         { return "gemini-cli" }
func (*geminiTarget) SupportsAgents() bool { return false }

// SkillPath resolves to the shared skill document, not a directory.
func (*geminiTarget) SkillPath(projectPath string) (string, error) {
	if projectPath == "" {
		return "", ErrProjectPathRequired
	}
	return filepath.Join(projectPath, "GEMINI.md"), nil
}

func (*geminiTarget) CommandPath(projectPath string) (string, error) {
	return projectSubdir(projectPath, ".gemini", "commands")
}

func (*geminiTarget) AgentPath(string) (string, error) {
	return "", ErrAgentsUnsupported
}

func (*geminiTarget) GenerateSkill(SkillSource, string, string) error {
	return errBatchOnly
}

func (*geminiTarget) GenerateSkills(destFile, moduleName string, skills []SkillSource, projectPath string) error {
	return upsertSkillsDoc(destFile, moduleName, skills, projectPath, geminiSkillsHeader)
}

func (t *geminiTarget) GenerateCommand(srcFile, destDir, cmdName, moduleName string) error {
	return generateTOMLCommand(srcFile, destDir, t.CommandFileName(moduleName, cmdName))
}

func (*geminiTarget) GenerateAgent(string, string, string, string) error {
	return ErrAgentsUnsupported
}

func (*geminiTarget) RemoveSkill(string, string) error {
	return errBatchOnly
}

func (*geminiTarget) RemoveSkills(destFile, moduleName string) error {
	return removeSkillsDoc(destFile, moduleName)
}

func (*geminiTarget) CommandFileName(moduleName, cmdName string) string {
	return moduleName + "-" + cmdName + ".toml"
}

func (*geminiTarget) AgentFileName(moduleName, agentName string) string {
	return moduleName + "-" + agentName + ".md"
}
