// SPDX-License-Identifier: MPL-2.0

package target

import (
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

func TestConvertArgsPlaceholders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"arguments placeholder", "Run $ARGUMENTS", "Run {{args}}"},
		{"multiple occurrences", "$ARGUMENTS and $ARGUMENTS", "{{args}} and {{args}}"},
		{"positional placeholders", "Do $1 then $2", "Arguments: {{args}}\n\nDo $1 then $2"},
		{"mixed", "Use $ARGUMENTS with $1", "Arguments: {{args}}\n\nUse {{args}} with $1"},
		{"no placeholders", "Plain text", "Plain text"},
		{"dollar without digit", "Costs $x", "Costs $x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ConvertArgsPlaceholders(tt.body); got != tt.want {
				t.Errorf("ConvertArgsPlaceholders(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestCommandToTOML(t *testing.T) {
	t.Parallel()

	t.Run("valid toml output", func(t *testing.T) {
		t.Parallel()
		content := "---\ndescription: Fixes the build\n---\n\nRun the fix.\nUse $ARGUMENTS here.\n"
		out := CommandToTOML(content)

		var decoded struct {
			Description string `toml:"description"`
			Prompt      string `toml:"prompt"`
		}
		if err := toml.Unmarshal([]byte(out), &decoded); err != nil {
			t.Fatalf("output is not valid TOML: %v\n%s", err, out)
		}
		if decoded.Description != "Fixes the build" {
			t.Errorf("description = %q", decoded.Description)
		}
		if !strings.Contains(decoded.Prompt, "Use {{args}} here.") {
			t.Errorf("prompt = %q, want converted placeholder", decoded.Prompt)
		}
		// The body is right-trimmed; only the line break before the
		// closing delimiter remains.
		if strings.HasSuffix(decoded.Prompt, "\n\n") {
			t.Errorf("prompt not right-trimmed, got %q", decoded.Prompt)
		}
	})

	t.Run("description escaping order", func(t *testing.T) {
		t.Parallel()
		content := "---\ndescription: say \"hi\" with C:\\path\n---\nbody"
		out := CommandToTOML(content)

		if !strings.Contains(out, `description = "say \"hi\" with C:\\path"`) {
			t.Errorf("escaping wrong:\n%s", out)
		}
		var decoded struct {
			Description string `toml:"description"`
		}
		if err := toml.Unmarshal([]byte(out), &decoded); err != nil {
			t.Fatalf("output is not valid TOML: %v\n%s", err, out)
		}
		if decoded.Description != `say "hi" with C:\path` {
			t.Errorf("decoded description = %q", decoded.Description)
		}
	})

	t.Run("missing frontmatter", func(t *testing.T) {
		t.Parallel()
		out := CommandToTOML("Just a prompt body.\n")

		var decoded struct {
			Description string `toml:"description"`
			Prompt      string `toml:"prompt"`
		}
		if err := toml.Unmarshal([]byte(out), &decoded); err != nil {
			t.Fatalf("output is not valid TOML: %v\n%s", err, out)
		}
		if decoded.Description != "" {
			t.Errorf("description = %q, want empty", decoded.Description)
		}
		if !strings.Contains(decoded.Prompt, "Just a prompt body.") {
			t.Errorf("prompt = %q, want whole content as body", decoded.Prompt)
		}
	})
}

func TestRewriteRelativePaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		assets  string
		want    string
	}{
		{
			name:    "dot slash reference",
			content: "See ./templates/form.md for details",
			assets:  ".lola/modules/m/skill",
			want:    "See .lola/modules/m/skill/templates/form.md for details",
		},
		{
			name:    "dotdot reference",
			content: "Load ../shared/util.py now",
			assets:  ".lola/modules/m/skill",
			want:    "Load .lola/modules/m/skill/../shared/util.py now",
		},
		{
			name:    "quoted reference",
			content: `Open "./cfg.json" first`,
			assets:  "assets",
			want:    `Open "assets/cfg.json" first`,
		},
		{
			name:    "backtick reference",
			content: "Run `./run.sh` please",
			assets:  "assets",
			want:    "Run `assets/run.sh` please",
		},
		{
			name:    "url scheme survives",
			content: "Visit https://example.com//docs and ./readme.md",
			assets:  "assets",
			want:    "Visit https://example.com/docs and assets/readme.md",
		},
		{
			name:    "plain word untouched",
			content: "version 1.2.3 and path/to/file",
			assets:  "assets",
			want:    "version 1.2.3 and path/to/file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RewriteRelativePaths(tt.content, tt.assets); got != tt.want {
				t.Errorf("RewriteRelativePaths() = %q, want %q", got, tt.want)
			}
		})
	}
}
