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

// Package tools exposes the filesystem operations as MCP tools. Every
// handler funnels its path argument through the resolver and the
// sandbox containment check before touching the filesystem.
package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"fsgate/internal/sandbox"
)

// ToolSet binds the MCP tool handlers to a sandbox.
type ToolSet struct {
	sb     *sandbox.Sandbox
	logger zerolog.Logger
}

// New creates a tool set backed by the given sandbox.
func New(sb *sandbox.Sandbox, logger zerolog.Logger) *ToolSet {
	return &ToolSet{sb: sb, logger: logger}
}

// RegisterServer registers all filesystem tools on an MCP server.
func (ts *ToolSet) RegisterServer(server *mcp.Server) {
	mcp.AddTool(server, readFileTool, ts.ReadFile)
	mcp.AddTool(server, writeFileTool, ts.WriteFile)
	mcp.AddTool(server, listDirectoryTool, ts.ListDirectory)
	mcp.AddTool(server, listTreeTool, ts.ListTree)
}

var readFileTool = &mcp.Tool{
	Name:        "read_file",
	Description: "Read the text content of a file inside the allowed directories.",
}

// ReadFileParams is the input of the read_file tool.
type ReadFileParams struct {
	Path string `json:"path" jsonschema:"Path to the file to read."`
}

// ReadFileResult is the output of the read_file tool.
type ReadFileResult struct {
	Content string `json:"content" jsonschema:"The text content of the file."`
	Size    int64  `json:"size" jsonschema:"File size in bytes."`
}

var writeFileTool = &mcp.Tool{
	Name:        "write_file",
	Description: "Create or overwrite a text file inside a writable allowed directory. Missing parent directories are created.",
}

// WriteFileParams is the input of the write_file tool.
type WriteFileParams struct {
	Path    string `json:"path" jsonschema:"Path to the file to write."`
	Content string `json:"content" jsonschema:"Text content to write."`
}

// WriteFileResult is the output of the write_file tool.
type WriteFileResult struct {
	Path         string `json:"path" jsonschema:"The resolved path that was written."`
	BytesWritten int64  `json:"bytes_written" jsonschema:"Number of bytes written."`
}

var listDirectoryTool = &mcp.Tool{
	Name:        "list_directory",
	Description: "List the entries of a directory inside the allowed directories.",
}

// ListDirectoryParams is the input of the list_directory tool.
type ListDirectoryParams struct {
	Path string `json:"path" jsonschema:"Path to the directory to list."`
}

// DirEntry is one entry of a directory listing.
type DirEntry struct {
	Name string `json:"name" jsonschema:"Base name of the entry."`
	Kind string `json:"kind" jsonschema:"Either file or dir."`
}

// ListDirectoryResult is the output of the list_directory tool.
type ListDirectoryResult struct {
	Entries []DirEntry `json:"entries" jsonschema:"The directory entries, sorted by name."`
}

var listTreeTool = &mcp.Tool{
	Name:        "list_tree",
	Description: "Recursively list a directory tree inside the allowed directories. Symlinked entries are skipped.",
}

// ListTreeParams is the input of the list_tree tool.
type ListTreeParams struct {
	Path     string `json:"path" jsonschema:"Path to the directory to walk."`
	MaxDepth int    `json:"max_depth,omitempty" jsonschema:"Maximum recursion depth, clamped to 1..10 (default 3)."`
}

// TreeNode is one node of the recursive listing.
type TreeNode struct {
	Name      string      `json:"name" jsonschema:"Base name of the entry."`
	Kind      string      `json:"kind" jsonschema:"Either file or dir."`
	Children  []*TreeNode `json:"children,omitempty" jsonschema:"Child nodes, sorted by name."`
	Truncated bool        `json:"truncated,omitempty" jsonschema:"True when the depth limit cut this directory off."`
	Error     string      `json:"error,omitempty" jsonschema:"Error reading this directory, when any."`
}

// ListTreeResult is the output of the list_tree tool.
type ListTreeResult struct {
	Root *TreeNode `json:"root" jsonschema:"The root of the walked tree."`
}

const (
	kindFile = "file"
	kindDir  = "dir"
)
