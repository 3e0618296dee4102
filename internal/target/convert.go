// SPDX-License-Identifier: MPL-2.0

package target

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/SecKatie/lola/pkg/frontmatter"
)

var (
	positionalArgs = regexp.MustCompile(`\$\d+`)

	// relDotDot and relDot match ./x and ../x references after a line
	// start, whitespace, quote, paren, or backtick.
	relDotDot = regexp.MustCompile("(\\s|^|\"|'|\\(|`)(\\.\\./[^\\s\"')\\]`]+)")
	relDot    = regexp.MustCompile("(\\s|^|\"|'|\\(|`)(\\./([^\\s\"')\\]`]+))")

	// dupSlashes collapses runs of slashes not preceded by a colon, so URL
	// schemes (https://) survive the cleanup.
	dupSlashes = regexp.MustCompile(`(^|[^:])/{2,}`)
)

// ConvertArgsPlaceholders rewrites argument placeholders for the templated
// command format: $ARGUMENTS becomes {{args}}, and bodies using positional
// placeholders ($1, $2, ...) gain a leading "Arguments: {{args}}" line.
func ConvertArgsPlaceholders(body string) string {
	result := strings.ReplaceAll(body, "$ARGUMENTS", "{{args}}")
	if positionalArgs.MatchString(result) {
		result = "Arguments: {{args}}\n\n" + result
	}
	return result
}

// CommandToTOML converts a command markdown document into the structured
// TOML command format: an escaped description string and a triple-quoted
// prompt block holding the transformed body.
func CommandToTOML(content string) string {
	doc, _ := frontmatter.Parse(content)
	description := doc.Get("description")
	prompt := ConvertArgsPlaceholders(doc.Body())

	// Backslashes first, then quotes, or the added backslashes would be
	// escaped twice.
	escaped := strings.ReplaceAll(description, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)

	lines := []string{
		`description = "` + escaped + `"`,
		`prompt = """`,
		strings.TrimRight(prompt, " \t\n"),
		`"""`,
	}
	return strings.Join(lines, "\n")
}

// RewriteRelativePaths redirects ./x and ../x references in content to the
// assets location, then collapses duplicate slashes the rewrite introduced
// (except after a URL scheme colon).
func RewriteRelativePaths(content, assetsPath string) string {
	safe := strings.ReplaceAll(assetsPath, "$", "$$")
	result := relDotDot.ReplaceAllString(content, "${1}"+safe+"/${2}")
	result = relDot.ReplaceAllString(result, "${1}"+safe+"/${3}")
	return dupSlashes.ReplaceAllString(result, "${1}/")
}

// injectFrontmatterField reads a markdown file, sets one frontmatter field,
// and returns the rebuilt document. Files without frontmatter gain a block
// containing only the injected field.
func injectFrontmatterField(srcFile, key, value string) (string, error) {
	raw, err := os.ReadFile(srcFile)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrArtifactSourceMissing, srcFile)
	}
	doc, _ := frontmatter.Parse(string(raw))
	return doc.WithField(key, value).Compose()
}
