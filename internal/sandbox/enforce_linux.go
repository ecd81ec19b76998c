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

//go:build linux

package sandbox

import (
	"fmt"

	"github.com/landlock-lsm/go-landlock/landlock"
)

// Enforce restricts the whole process to the allowed roots using
// Landlock, as a kernel-level backstop behind the path checks. Best
// effort: older kernels get the strongest ruleset they support.
func (sb *Sandbox) Enforce() error {
	var opts []landlock.Rule
	for _, root := range sb.roots {
		if root.Perm == ReadWrite {
			opts = append(opts, landlock.RWDirs(root.Path))
		} else {
			opts = append(opts, landlock.RODirs(root.Path))
		}
	}
	if err := landlock.V2.BestEffort().RestrictPaths(opts...); err != nil {
		return fmt.Errorf("landlock restriction failed: %w", err)
	}
	return nil
}
