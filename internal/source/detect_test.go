// SPDX-License-Identifier: MPL-2.0

package source

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTree materializes slash-separated relative paths under root. Paths
// ending in "/" become directories.
func writeTree(t *testing.T, root string, paths map[string]string) {
	t.Helper()
	for rel, content := range paths {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if rel[len(rel)-1] == '/' {
			if err := os.MkdirAll(path, 0o755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDetectModuleRoot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		paths map[string]string
		want  string // slash-separated, relative to the tree root; "" = root itself
	}{
		{
			name: "skill dir parent",
			paths: map[string]string{
				"repo-main/review/SKILL.md": "x",
			},
			want: "repo-main",
		},
		{
			name: "skills container grandparent",
			paths: map[string]string{
				"repo-main/skills/review/SKILL.md": "x",
			},
			want: "repo-main",
		},
		{
			name: "skill wins over commands",
			paths: map[string]string{
				"a/commands/do.md":  "x",
				"b/review/SKILL.md": "x",
			},
			want: "b",
		},
		{
			name: "commands dir parent",
			paths: map[string]string{
				"repo-main/commands/do.md": "x",
				"repo-main/README.md":      "x",
			},
			want: "repo-main",
		},
		{
			name: "commands dir without markdown ignored",
			paths: map[string]string{
				"wrapper/commands/notes.txt": "x",
			},
			want: "wrapper",
		},
		{
			name: "single wrapper directory",
			paths: map[string]string{
				"repo-main/README.md": "x",
			},
			want: "repo-main",
		},
		{
			name: "flat tree is its own root",
			paths: map[string]string{
				"README.md": "x",
				"notes.txt": "x",
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			writeTree(t, root, tt.paths)

			want := root
			if tt.want != "" {
				want = filepath.Join(root, filepath.FromSlash(tt.want))
			}
			if got := detectModuleRoot(root); got != want {
				t.Errorf("detectModuleRoot() = %q, want %q", got, want)
			}
		})
	}
}
