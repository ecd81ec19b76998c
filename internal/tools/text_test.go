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
	"bytes"
	"testing"
)

func TestIsTextContent(t *testing.T) {
	cases := []struct {
		name     string
		data     []byte
		expected bool
	}{
		{"empty", nil, true},
		{"plain", []byte("hello world\n"), true},
		{"tabs-and-newlines", []byte("a\tb\r\nc"), true},
		{"utf8", []byte("héllo wörld"), true},
		{"nul-byte", []byte{'a', 0x00, 'b'}, false},
		{"invalid-utf8", []byte{0xff, 0xfe}, false},
		{"mostly-control", bytes.Repeat([]byte{0x01}, 100), false},
	}

	for _, tc := range cases {
		if got := isTextContent(tc.data); got != tc.expected {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}
