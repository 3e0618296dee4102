// SPDX-License-Identifier: MPL-2.0

// Package source implements the module acquisition engine: an ordered chain
// of source handlers (archive URLs, git, local archives, local folders) that
// materialize a module source into the registry directory.
//
// Every handler stages its work in a scoped temporary directory that is
// removed on all exit paths, so the destination is either fully populated
// or untouched. Archive extraction goes through containment checks; a
// member that would land outside the extraction destination fails the whole
// fetch before anything is written.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

// Type tags the kind of source a module was fetched from.
type Type string

const (
	TypeZipURL Type = "zipurl"
	TypeTarURL Type = "tarurl"
	TypeGit    Type = "git"
	TypeZip    Type = "zip"
	TypeTar    Type = "tar"
	TypeFolder Type = "folder"
)

// Handler materializes one kind of module source into a destination
// directory. Claims reports whether the handler recognizes the source
// string; Fetch returns the path of the module directory it created inside
// destDir.
type Handler interface {
	Type() Type
	Claims(source string) bool
	Fetch(ctx context.Context, source, destDir string) (string, error)
}

// Handlers is the fixed-priority handler chain. Most specific first: a
// ".zip" URL must not be misclassified as a generic HTTPS git host.
func Handlers() []Handler {
	return []Handler{
		&zipURLHandler{},
		&tarURLHandler{},
		&gitHandler{},
		&zipHandler{},
		&tarHandler{},
		&folderHandler{},
	}
}

var (
	// ErrUnsupportedSource is the sentinel wrapped by UnsupportedSourceError.
	ErrUnsupportedSource = errors.New("unsupported source")

	// ErrPathEscape is the sentinel wrapped by PathEscapeError.
	ErrPathEscape = errors.New("archive member escapes extraction destination")

	// ErrNetworkFailure is the sentinel wrapped by NetworkError.
	ErrNetworkFailure = errors.New("network failure")
)

type (
	// UnsupportedSourceError is returned when no handler claims a source.
	UnsupportedSourceError struct {
		Source string
	}

	// PathEscapeError is returned when an archive member resolves outside
	// the extraction destination. The whole extraction is aborted.
	PathEscapeError struct {
		Member string
	}

	// NetworkError wraps a failed download or clone. Fatal for the fetch;
	// there is no retry.
	NetworkError struct {
		URL string
		Err error
	}
)

// Error implements the error interface for UnsupportedSourceError.
func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("cannot handle source %q: supported sources are git repos, .zip/.tar URLs, local .zip/.tar files, or local folders", e.Source)
}

// Unwrap returns ErrUnsupportedSource for errors.Is() compatibility.
func (e *UnsupportedSourceError) Unwrap() error { return ErrUnsupportedSource }

// Error implements the error interface for PathEscapeError.
func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("archive member %q escapes the extraction destination", e.Member)
}

// Unwrap returns ErrPathEscape for errors.Is() compatibility.
func (e *PathEscapeError) Unwrap() error { return ErrPathEscape }

// Error implements the error interface for NetworkError.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error { return e.Err }

// Is reports ErrNetworkFailure identity.
func (e *NetworkError) Is(target error) bool { return target == ErrNetworkFailure }

// Fetch materializes source into destDir using the first handler that
// claims it. Returns the created module directory.
func Fetch(ctx context.Context, source, destDir string) (string, error) {
	for _, h := range Handlers() {
		if h.Claims(source) {
			log.Debug("fetching module", "source", source, "type", h.Type())
			return h.Fetch(ctx, source, destDir)
		}
	}
	return "", &UnsupportedSourceError{Source: source}
}

// DetectType returns the type tag of the handler that would claim source,
// or "" when no handler claims it.
func DetectType(source string) Type {
	for _, h := range Handlers() {
		if h.Claims(source) {
			return h.Type()
		}
	}
	return ""
}

// handlerFor returns the handler registered for a type tag.
func handlerFor(t Type) (Handler, bool) {
	for _, h := range Handlers() {
		if h.Type() == t {
			return h, true
		}
	}
	return nil, false
}
