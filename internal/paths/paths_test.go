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

package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "fsgate/internal/errors"
)

// canonicalTempDir avoids false mismatches on hosts where the temp
// directory is behind a symlink (macOS /var -> /private/var).
func canonicalTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve temp dir: %v", err)
	}
	return dir
}

func TestValidateInput(t *testing.T) {
	cases := []struct {
		name  string
		input string
		ok    bool
	}{
		{"plain", "notes.txt", true},
		{"empty", "", false},
		{"whitespace", "   ", false},
		{"null-byte", "bad\x00path", false},
		{"invalid-utf8", "bad\xff", false},
		{"too-long", strings.Repeat("a", MaxPathLength+1), false},
	}

	for _, tc := range cases {
		err := ValidateInput(tc.input)
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestResolveReadReducesDotDot(t *testing.T) {
	base := canonicalTempDir(t)
	file := filepath.Join(base, "notes.txt")
	if err := os.WriteFile(file, []byte("data"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	input := filepath.Join(base, "sub", "..", "notes.txt")
	resolved, err := Resolve(input, Read)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Path != file {
		t.Fatalf("expected %s, got %s", file, resolved.Path)
	}
	if resolved.Intent != Read {
		t.Fatalf("expected read intent, got %v", resolved.Intent)
	}
}

func TestResolveReadMissingPath(t *testing.T) {
	base := canonicalTempDir(t)
	_, err := Resolve(filepath.Join(base, "missing.txt"), Read)
	if err == nil {
		t.Fatal("expected error for missing path")
	}
	if apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("expected not_found, got %q", apperrors.CodeOf(err))
	}
}

func TestResolveReadFollowsSymlinkToRealTarget(t *testing.T) {
	base := canonicalTempDir(t)
	outside := canonicalTempDir(t)

	target := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create target: %v", err)
	}
	link := filepath.Join(base, "innocent.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	resolved, err := Resolve(link, Read)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Path != target {
		t.Fatalf("expected real target %s, got %s", target, resolved.Path)
	}
	if HasPathPrefix(resolved.Path, base) {
		t.Fatalf("resolved path %s must not appear inside %s", resolved.Path, base)
	}
}

func TestResolveWriteNewFileKeepsLeafVerbatim(t *testing.T) {
	base := canonicalTempDir(t)
	resolved, err := Resolve(filepath.Join(base, "new.txt"), Write)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Path != filepath.Join(base, "new.txt") {
		t.Fatalf("expected leaf under base, got %s", resolved.Path)
	}
}

func TestResolveWriteExistingSymlinkResolvesTarget(t *testing.T) {
	base := canonicalTempDir(t)
	outside := canonicalTempDir(t)

	target := filepath.Join(outside, "victim.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create target: %v", err)
	}
	link := filepath.Join(base, "out.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	resolved, err := Resolve(link, Write)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Path != target {
		t.Fatalf("expected symlink target %s, got %s", target, resolved.Path)
	}
}

func TestResolveWriteSymlinkedParentEscape(t *testing.T) {
	base := canonicalTempDir(t)
	outside := canonicalTempDir(t)

	link := filepath.Join(base, "exit")
	if err := os.Symlink(outside, link); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	resolved, err := Resolve(filepath.Join(link, "escape.txt"), Write)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Path != filepath.Join(outside, "escape.txt") {
		t.Fatalf("expected resolution through real parent, got %s", resolved.Path)
	}
	if HasPathPrefix(resolved.Path, base) {
		t.Fatalf("resolved path %s must not appear inside %s", resolved.Path, base)
	}
}

func TestResolveWriteMissingParentsBestEffort(t *testing.T) {
	base := canonicalTempDir(t)
	input := filepath.Join(base, "a", "b", "c.txt")
	resolved, err := Resolve(input, Write)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Path != input {
		t.Fatalf("expected %s, got %s", input, resolved.Path)
	}
}

func TestHasPathPrefix(t *testing.T) {
	cases := []struct {
		path, base string
		expected   bool
	}{
		{"/data/file.txt", "/data", true},
		{"/data", "/data", true},
		{"/database/file.txt", "/data", false},
		{"/data/../etc/passwd", "/data", false},
		{"/other", "/data", false},
	}

	for _, tc := range cases {
		if got := HasPathPrefix(filepath.Clean(tc.path), tc.base); got != tc.expected {
			t.Fatalf("HasPathPrefix(%q, %q): expected %v, got %v", tc.path, tc.base, tc.expected, got)
		}
	}
}
