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

package tools

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "fsgate/internal/errors"
	"fsgate/internal/paths"
)

const (
	defaultTreeDepth = 3
	minTreeDepth     = 1
	maxTreeDepth     = 10
)

// ListDirectory lists one level of a contained directory.
func (ts *ToolSet) ListDirectory(_ context.Context,
	_ *mcp.CallToolRequest, args ListDirectoryParams,
) (*mcp.CallToolResult, *ListDirectoryResult, error) {
	resolved, err := ts.resolveDirectory(args.Path)
	if err != nil {
		return nil, nil, err
	}

	entries, err := os.ReadDir(resolved.Path)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeNotFound, "failed to read directory", err)
	}

	res := &ListDirectoryResult{Entries: make([]DirEntry, 0, len(entries))}
	for _, entry := range entries {
		res.Entries = append(res.Entries, DirEntry{Name: entry.Name(), Kind: entryKind(entry)})
	}
	ts.logger.Debug().Str("path", resolved.Path).Int("entries", len(res.Entries)).Msg("listed directory")
	return &mcp.CallToolResult{StructuredContent: res}, res, nil
}

// ListTree walks a contained directory tree depth-first up to a
// clamped maximum depth.
func (ts *ToolSet) ListTree(_ context.Context,
	_ *mcp.CallToolRequest, args ListTreeParams,
) (*mcp.CallToolResult, *ListTreeResult, error) {
	resolved, err := ts.resolveDirectory(args.Path)
	if err != nil {
		return nil, nil, err
	}

	depth := clampDepth(args.MaxDepth)
	root := walkTree(resolved.Path, filepath.Base(resolved.Path), 0, depth)
	ts.logger.Debug().Str("path", resolved.Path).Int("max_depth", depth).Msg("walked tree")
	res := &ListTreeResult{Root: root}
	return &mcp.CallToolResult{StructuredContent: res}, res, nil
}

// resolveDirectory resolves and containment-checks a path that must be
// an existing directory.
func (ts *ToolSet) resolveDirectory(input string) (paths.Resolved, error) {
	resolved, err := paths.Resolve(input, paths.Read)
	if err != nil {
		return paths.Resolved{}, err
	}
	if _, err := ts.sb.Check(resolved); err != nil {
		ts.logger.Warn().Str("path", resolved.Path).Err(err).Msg("listing rejected")
		return paths.Resolved{}, err
	}
	info, err := os.Stat(resolved.Path)
	if err != nil {
		return paths.Resolved{}, apperrors.Wrap(apperrors.CodeNotFound, "failed to stat directory", err)
	}
	if !info.IsDir() {
		return paths.Resolved{}, apperrors.Newf(apperrors.CodeNotADirectory, "not a directory: %s", resolved.Path)
	}
	return resolved, nil
}

func clampDepth(depth int) int {
	if depth == 0 {
		return defaultTreeDepth
	}
	if depth < minTreeDepth {
		return minTreeDepth
	}
	if depth > maxTreeDepth {
		return maxTreeDepth
	}
	return depth
}

// walkTree builds the tree for dir, which sits at the given depth.
// Symlinked entries are skipped outright so a cycle through an
// ancestor can never recurse; directories below the depth limit are
// reported truncated instead of being descended into.
func walkTree(dir, name string, depth, maxDepth int) *TreeNode {
	node := &TreeNode{Name: name, Kind: kindDir}
	if depth >= maxDepth {
		node.Truncated = true
		return node
	}

	// ReadDir returns entries sorted by name, keeping output diffable.
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Keep walking siblings; the failure is recorded on the node.
		node.Error = err.Error()
		return node
	}

	for _, entry := range entries {
		if entry.Type()&fs.ModeSymlink != 0 {
			continue
		}
		if entry.IsDir() {
			child := walkTree(filepath.Join(dir, entry.Name()), entry.Name(), depth+1, maxDepth)
			node.Children = append(node.Children, child)
			continue
		}
		node.Children = append(node.Children, &TreeNode{Name: entry.Name(), Kind: kindFile})
	}
	return node
}

func entryKind(entry fs.DirEntry) string {
	if entry.IsDir() {
		return kindDir
	}
	return kindFile
}
