// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package paths canonicalizes caller-supplied path strings before any
// containment decision is made. Resolution always works on the real,
// symlink-resolved target: a symlink that merely appears inside an
// allowed directory must never pass for its target.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	apperrors "fsgate/internal/errors"
)

// MaxPathLength bounds raw path input before resolution.
const MaxPathLength = 4096

// Intent selects the resolution rules for a request.
type Intent int

const (
	// Read requires the target to exist and resolves it fully.
	Read Intent = iota
	// Write allows the final component (and missing parents) to be new.
	Write
)

func (i Intent) String() string {
	if i == Write {
		return "write"
	}
	return "read"
}

// Resolved is an absolute, symlink-resolved path tagged with the
// intent used to produce it.
type Resolved struct {
	Path   string
	Intent Intent
}

// ValidateInput validates raw path input before resolution.
func ValidateInput(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.IndexByte(path, 0) != -1 {
		return fmt.Errorf("path contains null byte")
	}
	if !utf8.ValidString(path) {
		return fmt.Errorf("path is not valid UTF-8")
	}
	if len(path) > MaxPathLength {
		return fmt.Errorf("path exceeds maximum length of %d characters", MaxPathLength)
	}
	return nil
}

// ExpandHome replaces a leading "~" with the current user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(os.PathSeparator)) && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %v", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// Resolve canonicalizes input into an absolute, symlink-resolved path
// according to the given intent.
func Resolve(input string, intent Intent) (Resolved, error) {
	if err := ValidateInput(input); err != nil {
		return Resolved{}, apperrors.Wrap(apperrors.CodeAccessDenied, "invalid path", err)
	}
	expanded, err := ExpandHome(input)
	if err != nil {
		return Resolved{}, apperrors.Wrap(apperrors.CodeAccessDenied, "invalid path", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return Resolved{}, apperrors.Wrap(apperrors.CodeAccessDenied, "invalid path", err)
	}

	var resolved string
	if intent == Read {
		resolved, err = resolveExisting(abs, input)
	} else {
		resolved, err = resolveForWrite(abs)
	}
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Path: resolved, Intent: intent}, nil
}

// resolveExisting resolves a path that must already exist, following
// every symlink so containment checks see the real target.
func resolveExisting(abs, input string) (string, error) {
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperrors.Newf(apperrors.CodeNotFound, "path not found: %s", input)
		}
		return "", apperrors.Wrap(apperrors.CodeAccessDenied, "failed to resolve path", err)
	}
	return resolved, nil
}

// resolveForWrite resolves a write target that may not exist yet.
// Existing segments are fully resolved; unresolved trailing segments
// are re-appended verbatim, so a pre-planted symlink in the parent
// chain cannot smuggle a new file outside the resolved base.
func resolveForWrite(abs string) (string, error) {
	if _, err := os.Lstat(abs); err == nil {
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return "", apperrors.Wrap(apperrors.CodeAccessDenied, "failed to resolve path", err)
		}
		return resolved, nil
	} else if !os.IsNotExist(err) {
		return "", apperrors.Wrap(apperrors.CodeAccessDenied, "failed to stat path", err)
	}

	parent := filepath.Dir(abs)
	if resolvedParent, err := filepath.EvalSymlinks(parent); err == nil {
		return filepath.Join(resolvedParent, filepath.Base(abs)), nil
	} else if !os.IsNotExist(err) {
		return "", apperrors.Wrap(apperrors.CodeAccessDenied, "failed to resolve parent path", err)
	}

	// Parent missing too: resolve the deepest existing ancestor and
	// re-append the remainder. Such paths are expected to fail the
	// containment check rather than be created outside policy.
	ancestor := parent
	var trail []string
	trail = append(trail, filepath.Base(abs))
	for {
		next := filepath.Dir(ancestor)
		if next == ancestor {
			break
		}
		trail = append(trail, filepath.Base(ancestor))
		ancestor = next
		if _, err := os.Lstat(ancestor); err == nil {
			break
		}
	}
	resolvedAncestor, err := filepath.EvalSymlinks(ancestor)
	if err != nil {
		resolvedAncestor = ancestor
	}
	for i := len(trail) - 1; i >= 0; i-- {
		resolvedAncestor = filepath.Join(resolvedAncestor, trail[i])
	}
	return resolvedAncestor, nil
}

// HasPathPrefix returns true when path is equal to base or a
// descendant of it, compared segment-wise.
func HasPathPrefix(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(os.PathSeparator)) && rel != "..")
}
