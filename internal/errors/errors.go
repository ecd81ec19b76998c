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

package errors

import (
	"errors"
	"fmt"
)

// Code identifies a class of error for programmatic handling.
type Code string

const (
	// CodeConfig marks fatal configuration errors; the process must not
	// start with an invalid sandbox.
	CodeConfig Code = "config"

	// Request-scoped codes, returned to the caller as the operation's
	// failure result.
	CodeNotFound      Code = "not_found"
	CodeNotAFile      Code = "not_a_file"
	CodeNotADirectory Code = "not_a_directory"
	CodeAccessDenied  Code = "access_denied"
	CodeTooLarge      Code = "too_large"
	CodeNotText       Code = "not_text"
)

// Error wraps an underlying error with a code and message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		if e.Err != nil {
			return e.Err.Error()
		}
		return string(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new coded error with a message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new coded error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new coded error that wraps an underlying error.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the code from an error chain, or "" when none is present.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// IsConfig reports whether the error is fatal at startup.
func IsConfig(err error) bool {
	return CodeOf(err) == CodeConfig
}
