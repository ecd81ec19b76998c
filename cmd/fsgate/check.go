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

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"fsgate/internal/paths"
	"fsgate/internal/sandbox"
)

type replAction int

const (
	replContinue replAction = iota
	replExit
	replUnhandled
)

// runCheck is an operator REPL that probes the resolver and the
// containment check without touching any file content.
func runCheck(sb *sandbox.Sandbox, logger zerolog.Logger) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "fsgate> ",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("read"),
			readline.PcItem("write"),
			readline.PcItem("roots"),
			readline.PcItem("exit"),
		),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize readline")
	}
	defer rl.Close()

	fmt.Println("Path check mode. Commands: read PATH, write PATH, roots, exit.")
	for {
		line, err := rl.Readline()
		switch classifyReadlineError(line, err) {
		case replContinue:
			continue
		case replExit:
			return
		}
		if err != nil {
			return
		}
		if !runCheckLine(sb, strings.TrimSpace(line)) {
			return
		}
	}
}

// runCheckLine handles one REPL line; it returns false to exit.
func runCheckLine(sb *sandbox.Sandbox, line string) bool {
	if line == "" {
		return true
	}
	cmd, arg := line, ""
	if idx := strings.IndexAny(line, " \t"); idx != -1 {
		cmd, arg = line[:idx], strings.TrimSpace(line[idx+1:])
	}

	switch cmd {
	case "exit", "quit":
		return false
	case "roots":
		for _, root := range sb.Roots() {
			fmt.Printf("  %s (%s)\n", root.Path, root.Perm)
		}
		return true
	case "read", "write":
		if arg == "" {
			fmt.Printf("usage: %s PATH\n", cmd)
			return true
		}
		intent := paths.Read
		if cmd == "write" {
			intent = paths.Write
		}
		probe(sb, arg, intent)
		return true
	default:
		// A bare path defaults to a read probe.
		probe(sb, line, paths.Read)
		return true
	}
}

func probe(sb *sandbox.Sandbox, input string, intent paths.Intent) {
	resolved, err := paths.Resolve(input, intent)
	if err != nil {
		fmt.Printf("denied: %v\n", err)
		return
	}
	root, err := sb.Check(resolved)
	if err != nil {
		fmt.Printf("denied: %v\n", err)
		return
	}
	fmt.Printf("allowed: %s -> %s under %s (%s)\n", input, resolved.Path, root.Path, root.Perm)
}

func classifyReadlineError(line string, err error) replAction {
	switch {
	case err == nil:
		return replUnhandled
	case err == readline.ErrInterrupt:
		return replContinue
	case err == io.EOF:
		if strings.TrimSpace(line) == "" {
			return replExit
		}
		return replContinue
	default:
		return replUnhandled
	}
}
