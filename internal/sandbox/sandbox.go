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

// Package sandbox holds the validated allow-list of directories and
// decides, per request, whether a resolved path may be touched at all.
// The Sandbox value is built once at startup and read-only afterwards,
// so it is safe to share across concurrent requests.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"

	apperrors "fsgate/internal/errors"
	"fsgate/internal/paths"
)

// Permission is the access level granted on an allowed root.
type Permission string

const (
	ReadOnly  Permission = "ro"
	ReadWrite Permission = "rw"
)

// Root is a canonicalized directory the operator has granted access to.
type Root struct {
	Path string
	Perm Permission
}

// Entry is one unvalidated allow-list configuration pair.
type Entry struct {
	Path       string
	Permission string
}

// Sandbox is the immutable allow-list store plus the size-limit policy.
type Sandbox struct {
	roots []Root
	// maxBytes <= 0 means unlimited.
	maxBytes int64
}

// New validates the configured entries and builds the sandbox.
// Every failure here is a configuration error and fatal at startup.
func New(entries []Entry, maxBytes int64) (*Sandbox, error) {
	if len(entries) == 0 {
		return nil, apperrors.New(apperrors.CodeConfig, "no allowed paths configured")
	}

	sb := &Sandbox{maxBytes: maxBytes}
	for _, entry := range entries {
		perm := Permission(entry.Permission)
		if perm != ReadOnly && perm != ReadWrite {
			return nil, apperrors.Newf(apperrors.CodeConfig,
				"invalid permission %q for %s (must be ro or rw)", entry.Permission, entry.Path)
		}

		expanded, err := paths.ExpandHome(entry.Path)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfig, fmt.Sprintf("invalid allowed path %s", entry.Path), err)
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfig, fmt.Sprintf("invalid allowed path %s", entry.Path), err)
		}
		canonical, err := filepath.EvalSymlinks(abs)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, apperrors.Newf(apperrors.CodeConfig, "allowed path does not exist: %s", abs)
			}
			return nil, apperrors.Wrap(apperrors.CodeConfig, fmt.Sprintf("failed to resolve allowed path %s", abs), err)
		}
		info, err := os.Stat(canonical)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfig, fmt.Sprintf("failed to stat allowed path %s", canonical), err)
		}
		if !info.IsDir() {
			return nil, apperrors.Newf(apperrors.CodeConfig, "allowed path is not a directory: %s", canonical)
		}

		for _, existing := range sb.roots {
			if existing.Path == canonical {
				return nil, apperrors.Newf(apperrors.CodeConfig, "duplicate allowed path: %s", canonical)
			}
		}
		sb.roots = append(sb.roots, Root{Path: canonical, Perm: perm})
	}
	return sb, nil
}

// Roots returns the allowed roots in configuration order.
func (sb *Sandbox) Roots() []Root {
	return append([]Root{}, sb.roots...)
}

// MaxBytes returns the configured size ceiling, or 0 for unlimited.
func (sb *Sandbox) MaxBytes() int64 {
	if sb.maxBytes <= 0 {
		return 0
	}
	return sb.maxBytes
}

// Check tests a resolved path for containment in one of the allowed
// roots and enforces the root's permission against the intent.
//
// Roots are tried in configuration order and the first containing root
// wins; when roots nest, the operator controls precedence by ordering
// the configuration. The comparison is purely segment-wise, the
// filesystem is not touched again.
func (sb *Sandbox) Check(resolved paths.Resolved) (Root, error) {
	for _, root := range sb.roots {
		if !paths.HasPathPrefix(resolved.Path, root.Path) {
			continue
		}
		if resolved.Intent == paths.Write && root.Perm == ReadOnly {
			return Root{}, apperrors.Newf(apperrors.CodeAccessDenied,
				"write denied: %s is inside read-only root %s", resolved.Path, root.Path)
		}
		return root, nil
	}
	// Listing the configured boundaries is a deliberate disclosure: it
	// leaks no filesystem contents and makes misconfiguration obvious.
	return Root{}, apperrors.Newf(apperrors.CodeAccessDenied,
		"access denied: %s is outside allowed directories [%s]", resolved.Path, sb.describeRoots())
}

// CheckSize enforces the size-limit policy on a byte count.
func (sb *Sandbox) CheckSize(n int64) error {
	if sb.maxBytes <= 0 || n <= sb.maxBytes {
		return nil
	}
	return apperrors.Newf(apperrors.CodeTooLarge, "content too large: %s (limit: %s)",
		units.BytesSize(float64(n)), units.BytesSize(float64(sb.maxBytes)))
}

func (sb *Sandbox) describeRoots() string {
	parts := make([]string, len(sb.roots))
	for i, root := range sb.roots {
		parts[i] = fmt.Sprintf("%s (%s)", root.Path, root.Perm)
	}
	return strings.Join(parts, ", ")
}
