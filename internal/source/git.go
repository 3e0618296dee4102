// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"

	"github.com/SecKatie/lola/pkg/module"
)

// gitHosts are code-hosting domains whose plain http(s) URLs are treated as
// git repositories.
var gitHosts = []string{"github.com", "gitlab.com", "bitbucket.org"}

// gitHandler claims git repository sources and shallow-clones them.
type gitHandler struct{}

func (*gitHandler) Type() Type { return TypeGit }

func (*gitHandler) Claims(source string) bool {
	if strings.HasSuffix(source, ".git") {
		return true
	}
	parsed, err := url.Parse(source)
	if err != nil {
		return false
	}
	switch parsed.Scheme {
	case "git", "ssh":
		return true
	case "http", "https":
		for _, host := range gitHosts {
			if parsed.Host == host || strings.HasSuffix(parsed.Host, "."+host) {
				return true
			}
		}
	}
	return false
}

func (*gitHandler) Fetch(ctx context.Context, source, destDir string) (string, error) {
	name, err := module.ValidateName(repoBasename(source))
	if err != nil {
		return "", err
	}

	staging, err := os.MkdirTemp("", "lola-git-*")
	if err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	clonePath := filepath.Join(staging, name)
	_, err = git.PlainCloneContext(ctx, clonePath, false, &git.CloneOptions{
		URL:          source,
		Depth:        1,
		SingleBranch: true,
	})
	if err != nil {
		return "", &NetworkError{URL: source, Err: fmt.Errorf("git clone failed: %w", err)}
	}

	// Strip version-control metadata; the registry holds plain trees.
	if err := os.RemoveAll(filepath.Join(clonePath, ".git")); err != nil {
		return "", fmt.Errorf("removing git metadata: %w", err)
	}

	final := filepath.Join(destDir, name)
	if err := replaceDir(clonePath, final); err != nil {
		return "", err
	}
	return final, nil
}

// repoBasename derives a module name from a git URL: the last path segment
// without a trailing ".git".
func repoBasename(source string) string {
	trimmed := strings.TrimRight(source, "/")
	base := trimmed[strings.LastIndexAny(trimmed, "/:")+1:]
	return strings.TrimSuffix(base, ".git")
}
