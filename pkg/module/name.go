// SPDX-License-Identifier: MPL-2.0

package module

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidName is the sentinel error wrapped by InvalidNameError.
var ErrInvalidName = errors.New("invalid module name")

// InvalidNameError is returned when a candidate module name could enable
// path traversal or contains control characters.
type InvalidNameError struct {
	Name   string
	Reason string
}

// Error implements the error interface for InvalidNameError.
func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid module name %q: %s", e.Name, e.Reason)
}

// Unwrap returns ErrInvalidName for errors.Is() compatibility.
func (e *InvalidNameError) Unwrap() error { return ErrInvalidName }

// ValidateName checks a candidate module name before it is used to create
// any filesystem entry. It returns the name unchanged when valid.
func ValidateName(name string) (string, error) {
	switch {
	case name == "":
		return "", &InvalidNameError{Name: name, Reason: "must be non-empty"}
	case name == "." || name == "..":
		return "", &InvalidNameError{Name: name, Reason: "path traversal not allowed"}
	case strings.ContainsAny(name, `/\`):
		return "", &InvalidNameError{Name: name, Reason: "path separators not allowed"}
	case strings.HasPrefix(name, "."):
		return "", &InvalidNameError{Name: name, Reason: "cannot start with '.'"}
	}
	for _, r := range name {
		if r < 0x20 {
			return "", &InvalidNameError{Name: name, Reason: "control characters not allowed"}
		}
	}
	return name, nil
}
