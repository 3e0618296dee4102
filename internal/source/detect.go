// SPDX-License-Identifier: MPL-2.0

package source

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/SecKatie/lola/pkg/module"
)

// detectModuleRoot locates the real module directory inside an extracted or
// cloned tree. Precedence:
//
//  1. The first SKILL.md found (lexical walk): the skill directory's parent
//     is the root, unless that parent is literally named "skills", in which
//     case the root is one level above it.
//  2. The first directory literally named "commands" containing at least
//     one markdown file: its parent is the root.
//  3. A tree whose top level holds exactly one subdirectory: that
//     subdirectory (archives often wrap content in a "repo-branch/" dir).
//  4. The tree itself.
func detectModuleRoot(root string) string {
	if found := findSkillRoot(root); found != "" {
		return found
	}
	if found := findCommandsRoot(root); found != "" {
		return found
	}

	entries, err := os.ReadDir(root)
	if err == nil && len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(root, entries[0].Name())
	}
	return root
}

func findSkillRoot(root string) string {
	var found string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != module.SkillFile {
			return nil
		}
		skillDir := filepath.Dir(path)
		parent := filepath.Dir(skillDir)
		if filepath.Base(parent) == "skills" {
			found = filepath.Dir(parent)
		} else {
			found = parent
		}
		return filepath.SkipAll
	})
	return found
}

func findCommandsRoot(root string) string {
	var found string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() || d.Name() != "commands" {
			return nil
		}
		entries, readErr := os.ReadDir(path)
		if readErr != nil {
			return nil
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
				found = filepath.Dir(path)
				return filepath.SkipAll
			}
		}
		return nil
	})
	return found
}
