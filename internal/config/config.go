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

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/docker/go-units"

	apperrors "fsgate/internal/errors"
	"fsgate/internal/sandbox"
)

// DefaultMaxFileSize applies when neither a limit nor the no-limit
// flag is configured.
const DefaultMaxFileSize = "10MiB"

// Config represents the application configuration.
type Config struct {
	AllowedPaths []PathEntry `json:"allowed_paths,omitempty"`
	MaxFileSize  string      `json:"max_file_size,omitempty"`
	NoSizeLimit  bool        `json:"no_size_limit,omitempty"`
	Enforce      bool        `json:"enforce,omitempty"`
	LogFile      string      `json:"log_file,omitempty"`
}

// PathEntry is one allow-list entry as configured, before validation.
type PathEntry struct {
	Path       string `json:"path"`
	Permission string `json:"permission"`
}

// DefaultConfig returns a config with default values.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize: DefaultMaxFileSize,
	}
}

// LoadConfig loads configuration from a JSON file, applies env
// overrides, and validates required fields. Any failure is fatal to
// startup: the process must not run with an invalid sandbox.
func LoadConfig(filepath string) (*Config, error) {
	config := DefaultConfig()

	// If config file exists, load it
	if _, err := os.Stat(filepath); err == nil {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfig, "failed to read config file", err)
		}
		if err := json.Unmarshal(data, config); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfig, "malformed config file", err)
		}
	}

	// Env overrides (apply regardless of whether config file exists)
	if val := os.Getenv("FSGATE_ALLOWED_PATHS"); val != "" {
		entries, err := ParseAllowedPaths(val)
		if err != nil {
			return nil, err
		}
		config.AllowedPaths = entries
	}
	if val := os.Getenv("FSGATE_MAX_FILE_SIZE"); val != "" {
		config.MaxFileSize = val
	}
	if val := os.Getenv("FSGATE_NO_SIZE_LIMIT"); strings.EqualFold(val, "true") {
		config.NoSizeLimit = true
	}
	if val := os.Getenv("FSGATE_ENFORCE"); strings.EqualFold(val, "true") {
		config.Enforce = true
	}

	// Validation
	if len(config.AllowedPaths) == 0 {
		return nil, apperrors.New(apperrors.CodeConfig,
			"no allowed paths configured (set allowed_paths in the config file or FSGATE_ALLOWED_PATHS)")
	}
	if _, err := config.SizeLimitBytes(); err != nil {
		return nil, err
	}

	return config, nil
}

// ParseAllowedPaths parses the "path:perm,path:perm" env format. The
// permission is split off at the last colon so paths containing colons
// (Windows drive letters) survive.
func ParseAllowedPaths(val string) ([]PathEntry, error) {
	var entries []PathEntry
	for _, entry := range strings.Split(val, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		idx := strings.LastIndex(entry, ":")
		if idx <= 0 || idx == len(entry)-1 {
			return nil, apperrors.Newf(apperrors.CodeConfig, "invalid allowed path entry (missing :permission): %s", entry)
		}
		entries = append(entries, PathEntry{
			Path:       entry[:idx],
			Permission: entry[idx+1:],
		})
	}
	return entries, nil
}

// SizeLimitBytes returns the configured ceiling in bytes, or 0 when
// size limiting is disabled.
func (c *Config) SizeLimitBytes() (int64, error) {
	if c.NoSizeLimit {
		return 0, nil
	}
	size := c.MaxFileSize
	if size == "" {
		size = DefaultMaxFileSize
	}
	n, err := units.RAMInBytes(size)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeConfig, fmt.Sprintf("invalid max_file_size %q", size), err)
	}
	if n <= 0 {
		return 0, apperrors.Newf(apperrors.CodeConfig, "max_file_size must be positive, got %q", size)
	}
	return n, nil
}

// Sandbox validates the allow-list and builds the sandbox engine.
func (c *Config) Sandbox() (*sandbox.Sandbox, error) {
	maxBytes, err := c.SizeLimitBytes()
	if err != nil {
		return nil, err
	}
	entries := make([]sandbox.Entry, len(c.AllowedPaths))
	for i, p := range c.AllowedPaths {
		entries[i] = sandbox.Entry{Path: p.Path, Permission: p.Permission}
	}
	return sandbox.New(entries, maxBytes)
}
