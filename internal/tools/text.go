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

import "unicode/utf8"

// isTextContent reports whether data looks like text: valid UTF-8, no
// NUL bytes, and a low ratio of control characters in the leading
// sample.
func isTextContent(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	if !utf8.Valid(data) {
		return false
	}

	const sampleSize = 8192
	limit := len(data)
	if limit > sampleSize {
		limit = sampleSize
	}

	var nonPrintable int
	for _, b := range data[:limit] {
		switch b {
		case '\n', '\r', '\t':
			continue
		}
		if b == 0 {
			return false
		}
		if b < 0x20 || b == 0x7f {
			nonPrintable++
		}
	}

	return nonPrintable*20 < limit
}
