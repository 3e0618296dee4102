// SPDX-License-Identifier: MPL-2.0

package target

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const skillMD = `---
name: review
description: Reviews code changes.
---

# Review

Use ./checklist.md as reference.
`

func TestGet(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"claude-code", "cursor", "gemini-cli", "opencode"} {
		tgt, err := Get(name)
		if err != nil {
			t.Fatalf("Get(%q) error: %v", name, err)
		}
		if tgt.Name() != name {
			t.Errorf("Get(%q).Name() = %q", name, tgt.Name())
		}
	}

	_, err := Get("emacs")
	if !errors.Is(err, ErrUnknownAssistant) {
		t.Fatalf("Get(emacs) error = %v, want ErrUnknownAssistant", err)
	}
	var unknown *UnknownAssistantError
	if !errors.As(err, &unknown) {
		t.Fatalf("error should be *UnknownAssistantError, got %T", err)
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	want := []string{"claude-code", "cursor", "gemini-cli", "opencode"}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want sorted %v", got, want)
	}
}

func TestClaudeTarget(t *testing.T) {
	t.Parallel()

	tgt, err := Get("claude-code")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("skill copies whole directory", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		skillDir := filepath.Join(dir, "mod", "review")
		writeFile(t, filepath.Join(skillDir, "SKILL.md"), skillMD)
		writeFile(t, filepath.Join(skillDir, "checklist.md"), "- item")
		writeFile(t, filepath.Join(skillDir, "templates", "report.md"), "report")

		project := filepath.Join(dir, "project")
		dest, err := tgt.SkillPath(project)
		if err != nil {
			t.Fatal(err)
		}
		if dest != filepath.Join(project, ".claude", "skills") {
			t.Errorf("SkillPath = %q", dest)
		}

		skill := SkillSource{Name: "review", Installed: "mod-review", Dir: skillDir}
		if err := tgt.GenerateSkill(skill, dest, project); err != nil {
			t.Fatalf("GenerateSkill() error: %v", err)
		}

		for _, rel := range []string{"SKILL.md", "checklist.md", "templates/report.md"} {
			if _, err := os.Stat(filepath.Join(dest, "mod-review", filepath.FromSlash(rel))); err != nil {
				t.Errorf("missing copied file %s: %v", rel, err)
			}
		}

		if err := tgt.RemoveSkill(dest, "mod-review"); err != nil {
			t.Fatalf("RemoveSkill() error: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dest, "mod-review")); !os.IsNotExist(err) {
			t.Error("skill directory still present after removal")
		}
	})

	t.Run("missing skill source", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		skill := SkillSource{Name: "ghost", Installed: "mod-ghost", Dir: filepath.Join(dir, "nope")}
		err := tgt.GenerateSkill(skill, dir, dir)
		if !errors.Is(err, ErrArtifactSourceMissing) {
			t.Fatalf("GenerateSkill() error = %v, want ErrArtifactSourceMissing", err)
		}
	})

	t.Run("command copied verbatim", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		src := filepath.Join(dir, "fix.md")
		writeFile(t, src, "---\ndescription: fix\n---\nFix $ARGUMENTS\n")

		destDir := filepath.Join(dir, "out")
		if err := tgt.GenerateCommand(src, destDir, "fix", "mod"); err != nil {
			t.Fatalf("GenerateCommand() error: %v", err)
		}
		raw, err := os.ReadFile(filepath.Join(destDir, "mod-fix.md"))
		if err != nil {
			t.Fatal(err)
		}
		if string(raw) != "---\ndescription: fix\n---\nFix $ARGUMENTS\n" {
			t.Errorf("command not copied verbatim:\n%s", raw)
		}
	})

	t.Run("agent gains model inherit", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		src := filepath.Join(dir, "helper.md")
		writeFile(t, src, "---\nname: helper\ndescription: helps\n---\nHelp.\n")

		destDir := filepath.Join(dir, "out")
		if err := tgt.GenerateAgent(src, destDir, "helper", "mod"); err != nil {
			t.Fatalf("GenerateAgent() error: %v", err)
		}
		raw, err := os.ReadFile(filepath.Join(destDir, "mod-helper.md"))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(raw), "model: inherit") {
			t.Errorf("agent missing injected field:\n%s", raw)
		}
		if !strings.Contains(string(raw), "name: helper") {
			t.Errorf("agent lost original fields:\n%s", raw)
		}
	})

	t.Run("project path required", func(t *testing.T) {
		t.Parallel()
		if _, err := tgt.SkillPath(""); !errors.Is(err, ErrProjectPathRequired) {
			t.Errorf("SkillPath(\"\") error = %v, want ErrProjectPathRequired", err)
		}
	})
}

func TestCursorTarget(t *testing.T) {
	t.Parallel()

	tgt, err := Get("cursor")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("skill renders rule file", func(t *testing.T) {
		t.Parallel()
		project := t.TempDir()
		skillDir := filepath.Join(project, ".lola", "modules", "mod", "review")
		writeFile(t, filepath.Join(skillDir, "SKILL.md"), skillMD)

		dest, err := tgt.SkillPath(project)
		if err != nil {
			t.Fatal(err)
		}
		skill := SkillSource{
			Name:        "review",
			Installed:   "mod-review",
			Dir:         skillDir,
			Description: "Reviews code changes.",
		}
		if err := tgt.GenerateSkill(skill, dest, project); err != nil {
			t.Fatalf("GenerateSkill() error: %v", err)
		}

		raw, err := os.ReadFile(filepath.Join(dest, "mod-review.mdc"))
		if err != nil {
			t.Fatal(err)
		}
		content := string(raw)
		if !strings.HasPrefix(content, "---\ndescription: Reviews code changes.\nglobs:\nalwaysApply: false\n---\n\n") {
			t.Errorf("rule header wrong:\n%s", content)
		}
		// Relative asset references must resolve from the project root.
		if !strings.Contains(content, ".lola/modules/mod/review/checklist.md") {
			t.Errorf("asset path not rewritten:\n%s", content)
		}
		if strings.Contains(content, "name: review") {
			t.Errorf("original frontmatter leaked into rule body:\n%s", content)
		}

		if err := tgt.RemoveSkill(dest, "mod-review"); err != nil {
			t.Fatalf("RemoveSkill() error: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dest, "mod-review.mdc")); !os.IsNotExist(err) {
			t.Error("rule file still present after removal")
		}
	})

	t.Run("remove of absent rule is no-op", func(t *testing.T) {
		t.Parallel()
		if err := tgt.RemoveSkill(t.TempDir(), "ghost"); err != nil {
			t.Errorf("RemoveSkill() error: %v", err)
		}
	})
}

func TestGeminiTarget(t *testing.T) {
	t.Parallel()

	tgt, err := Get("gemini-cli")
	if err != nil {
		t.Fatal(err)
	}
	batch, ok := tgt.(BatchSkillTarget)
	if !ok {
		t.Fatal("gemini-cli should be a BatchSkillTarget")
	}

	t.Run("skills batch into shared document", func(t *testing.T) {
		t.Parallel()
		project := t.TempDir()
		skillDir := filepath.Join(project, ".lola", "modules", "mod", "review")
		writeFile(t, filepath.Join(skillDir, "SKILL.md"), skillMD)

		destFile, err := tgt.SkillPath(project)
		if err != nil {
			t.Fatal(err)
		}
		if destFile != filepath.Join(project, "GEMINI.md") {
			t.Errorf("SkillPath = %q, want project GEMINI.md", destFile)
		}

		skills := []SkillSource{{
			Name:        "review",
			Installed:   "mod-review",
			Dir:         skillDir,
			Description: "Reviews code changes.",
		}}
		if err := batch.GenerateSkills(destFile, "mod", skills, project); err != nil {
			t.Fatalf("GenerateSkills() error: %v", err)
		}

		raw, err := os.ReadFile(destFile)
		if err != nil {
			t.Fatal(err)
		}
		content := string(raw)
		for _, want := range []string{
			StartMarker, EndMarker,
			"## Lola Skills",
			"Use `read_file` to read the skill's SKILL.md",
			"### mod",
			"#### review",
			"**When to use:** Reviews code changes.",
			"`.lola/modules/mod/review/SKILL.md`",
		} {
			if !strings.Contains(content, want) {
				t.Errorf("document missing %q:\n%s", want, content)
			}
		}

		if err := batch.RemoveSkills(destFile, "mod"); err != nil {
			t.Fatalf("RemoveSkills() error: %v", err)
		}
		raw, err = os.ReadFile(destFile)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(string(raw), "### mod") {
			t.Errorf("subsection survived removal:\n%s", raw)
		}
	})

	t.Run("per-skill calls rejected", func(t *testing.T) {
		t.Parallel()
		if err := tgt.GenerateSkill(SkillSource{}, "x", "y"); err == nil {
			t.Error("GenerateSkill() = nil error, want rejection")
		}
	})

	t.Run("agents unsupported", func(t *testing.T) {
		t.Parallel()
		if tgt.SupportsAgents() {
			t.Error("SupportsAgents() = true, want false")
		}
		if _, err := tgt.AgentPath("/p"); !errors.Is(err, ErrAgentsUnsupported) {
			t.Errorf("AgentPath() error = %v, want ErrAgentsUnsupported", err)
		}
	})

	t.Run("command converts to toml", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		src := filepath.Join(dir, "fix.md")
		writeFile(t, src, "---\ndescription: fix\n---\nFix $ARGUMENTS\n")

		destDir := filepath.Join(dir, "out")
		if err := tgt.GenerateCommand(src, destDir, "fix", "mod"); err != nil {
			t.Fatalf("GenerateCommand() error: %v", err)
		}
		raw, err := os.ReadFile(filepath.Join(destDir, "mod-fix.toml"))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(raw), `description = "fix"`) {
			t.Errorf("toml missing description:\n%s", raw)
		}
		if !strings.Contains(string(raw), "Fix {{args}}") {
			t.Errorf("toml missing converted prompt:\n%s", raw)
		}
	})
}

func TestOpencodeTarget(t *testing.T) {
	t.Parallel()

	tgt, err := Get("opencode")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("skill document is AGENTS.md", func(t *testing.T) {
		t.Parallel()
		destFile, err := tgt.SkillPath("/proj")
		if err != nil {
			t.Fatal(err)
		}
		if destFile != filepath.Join("/proj", "AGENTS.md") {
			t.Errorf("SkillPath = %q, want project AGENTS.md", destFile)
		}
	})

	t.Run("shared document gets its own header", func(t *testing.T) {
		t.Parallel()
		project := t.TempDir()
		skillDir := filepath.Join(project, ".lola", "modules", "mod", "review")
		writeFile(t, filepath.Join(skillDir, "SKILL.md"), skillMD)

		batch, ok := tgt.(BatchSkillTarget)
		if !ok {
			t.Fatal("opencode is not a BatchSkillTarget")
		}
		destFile, err := tgt.SkillPath(project)
		if err != nil {
			t.Fatal(err)
		}
		skills := []SkillSource{{
			Name:        "review",
			Installed:   "mod-review",
			Dir:         skillDir,
			Description: "Reviews code changes.",
		}}
		if err := batch.GenerateSkills(destFile, "mod", skills, project); err != nil {
			t.Fatalf("GenerateSkills() error: %v", err)
		}

		raw, err := os.ReadFile(destFile)
		if err != nil {
			t.Fatal(err)
		}
		content := string(raw)
		if !strings.Contains(content, "Use the `read` tool on the skill's SKILL.md") {
			t.Errorf("AGENTS.md missing its own header line:\n%s", content)
		}
		if strings.Contains(content, "`read_file`") {
			t.Errorf("AGENTS.md carries another assistant's header line:\n%s", content)
		}
	})

	t.Run("agent gains subagent mode", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		src := filepath.Join(dir, "helper.md")
		writeFile(t, src, "---\nname: helper\ndescription: helps\n---\nHelp.\n")

		destDir, err := tgt.AgentPath(dir)
		if err != nil {
			t.Fatal(err)
		}
		if destDir != filepath.Join(dir, ".opencode", "agent") {
			t.Errorf("AgentPath = %q", destDir)
		}
		if err := tgt.GenerateAgent(src, destDir, "helper", "mod"); err != nil {
			t.Fatalf("GenerateAgent() error: %v", err)
		}
		raw, err := os.ReadFile(filepath.Join(destDir, "mod-helper.md"))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(raw), "mode: subagent") {
			t.Errorf("agent missing mode field:\n%s", raw)
		}
	})

	t.Run("command filename", func(t *testing.T) {
		t.Parallel()
		if got := tgt.CommandFileName("mod", "fix"); got != "mod-fix.toml" {
			t.Errorf("CommandFileName = %q, want mod-fix.toml", got)
		}
	})
}
