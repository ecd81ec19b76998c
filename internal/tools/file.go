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
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "fsgate/internal/errors"
	"fsgate/internal/paths"
)

// ReadFile reads the text content of a contained file. The size limit
// is checked on the stat result before any bytes are read.
func (ts *ToolSet) ReadFile(_ context.Context,
	_ *mcp.CallToolRequest, args ReadFileParams,
) (*mcp.CallToolResult, *ReadFileResult, error) {
	resolved, err := paths.Resolve(args.Path, paths.Read)
	if err != nil {
		return nil, nil, err
	}
	if _, err := ts.sb.Check(resolved); err != nil {
		ts.logger.Warn().Str("path", resolved.Path).Err(err).Msg("read rejected")
		return nil, nil, err
	}

	info, err := os.Stat(resolved.Path)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeNotFound, "failed to stat file", err)
	}
	if info.IsDir() {
		return nil, nil, apperrors.Newf(apperrors.CodeNotAFile, "not a file: %s", resolved.Path)
	}
	if err := ts.sb.CheckSize(info.Size()); err != nil {
		return nil, nil, err
	}

	content, err := os.ReadFile(resolved.Path)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeNotFound, "failed to read file", err)
	}
	if !isTextContent(content) {
		return nil, nil, apperrors.Newf(apperrors.CodeNotText, "cannot read binary file: %s (text only)", resolved.Path)
	}

	ts.logger.Debug().Str("path", resolved.Path).Int64("size", info.Size()).Msg("read file")
	res := &ReadFileResult{Content: string(content), Size: int64(len(content))}
	return &mcp.CallToolResult{StructuredContent: res}, res, nil
}

// WriteFile writes text content to a contained file, creating missing
// parent directories under the resolved target.
func (ts *ToolSet) WriteFile(_ context.Context,
	_ *mcp.CallToolRequest, args WriteFileParams,
) (*mcp.CallToolResult, *WriteFileResult, error) {
	resolved, err := paths.Resolve(args.Path, paths.Write)
	if err != nil {
		return nil, nil, err
	}
	if _, err := ts.sb.Check(resolved); err != nil {
		ts.logger.Warn().Str("path", resolved.Path).Err(err).Msg("write rejected")
		return nil, nil, err
	}

	payload := []byte(args.Content)
	if err := ts.sb.CheckSize(int64(len(payload))); err != nil {
		return nil, nil, err
	}
	if !isTextContent(payload) {
		return nil, nil, apperrors.New(apperrors.CodeNotText, "content appears to be binary (text only)")
	}
	if info, err := os.Stat(resolved.Path); err == nil && info.IsDir() {
		return nil, nil, apperrors.Newf(apperrors.CodeNotAFile, "not a file: %s", resolved.Path)
	}

	if err := os.MkdirAll(filepath.Dir(resolved.Path), 0o755); err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeAccessDenied, "failed to create parent directories", err)
	}
	if err := os.WriteFile(resolved.Path, payload, 0o644); err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeAccessDenied, "failed to write file", err)
	}

	ts.logger.Debug().Str("path", resolved.Path).Int("size", len(payload)).Msg("wrote file")
	res := &WriteFileResult{Path: resolved.Path, BytesWritten: int64(len(payload))}
	return &mcp.CallToolResult{StructuredContent: res}, res, nil
}
