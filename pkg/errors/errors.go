// Coded errors for the delay table generator
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Configuration errors
	ErrConfigFile       ErrorCode = "CONFIG_FILE"
	ErrConfigSection    ErrorCode = "CONFIG_SECTION"
	ErrConfigOption     ErrorCode = "CONFIG_OPTION"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"
	ErrConfigType       ErrorCode = "CONFIG_TYPE"
	ErrConfigDegenerate ErrorCode = "CONFIG_DEGENERATE"

	// Generation errors
	ErrTableRange ErrorCode = "TABLE_RANGE"
	ErrSong       ErrorCode = "SONG"

	// Output errors
	ErrFormat ErrorCode = "FORMAT"
	ErrOutput ErrorCode = "OUTPUT"
)

// Error is the error type returned by every package in this module.
// Errors whose code is one of the CONFIG_* codes form the configuration
// class; see IsConfig.
type Error struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Section is the profile section (if applicable)
	Section string

	// Option is the option name (if applicable)
	Option string

	// Err wraps the underlying error
	Err error

	// Context provides additional key/value detail
	Context map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(string(e.Code))
	switch {
	case e.Section != "" && e.Option != "":
		sb.WriteString(":" + e.Section + "." + e.Option)
	case e.Option != "":
		sb.WriteString(":" + e.Option)
	case e.Section != "":
		sb.WriteString(":" + e.Section)
	}
	sb.WriteString("] ")
	sb.WriteString(e.Message)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// SetSection sets the profile section
func (e *Error) SetSection(section string) *Error {
	e.Section = section
	return e
}

// SetOption sets the option name
func (e *Error) SetOption(option string) *Error {
	e.Option = option
	return e
}

// SetContext adds additional context
func (e *Error) SetContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new Error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Config errors

// ConfigFileError wraps a failure reading or parsing a profile file
func ConfigFileError(path string, err error) *Error {
	return Wrap(err, ErrConfigFile, fmt.Sprintf("unable to load %s", path)).
		SetContext("config_path", path)
}

// ConfigSyntaxError creates an error for a malformed profile line
func ConfigSyntaxError(line int, reason string) *Error {
	return New(ErrConfigFile, fmt.Sprintf("line %d: %s", line, reason)).
		SetContext("line", line)
}

// ConfigSectionError creates an error for a missing profile section
func ConfigSectionError(section string) *Error {
	return New(ErrConfigSection, "section not found").
		SetSection(section)
}

// ConfigOptionError creates an error for a missing required option
func ConfigOptionError(section, option string) *Error {
	return New(ErrConfigOption, "must be specified").
		SetSection(section).
		SetOption(option)
}

// ConfigValidationError creates an error for an option that failed validation
func ConfigValidationError(section, option string, reason string) *Error {
	return New(ErrConfigValidation, reason).
		SetSection(section).
		SetOption(option)
}

// ConfigTypeError creates an error for an option that could not be parsed
func ConfigTypeError(section, option, value string, targetType string, err error) *Error {
	return Wrap(err, ErrConfigType, fmt.Sprintf("failed to parse '%s' as %s", value, targetType)).
		SetSection(section).
		SetOption(option)
}

// NonPositiveError creates the error for a timing constant that is zero or negative
func NonPositiveError(option string, value int64) *Error {
	return New(ErrConfigValidation, fmt.Sprintf("must be positive, got %d", value)).
		SetSection("timing").
		SetOption(option).
		SetContext("value", value)
}

// DegenerateRangeError creates the error for a frequency range with no room
// for a logarithmic distribution
func DegenerateRangeError(fMin, fMax float64) *Error {
	return New(ErrConfigDegenerate, fmt.Sprintf("frequency ratio f_max/f_min = %g/%g is not above 1", fMax, fMin)).
		SetSection("timing").
		SetContext("f_min", fMin).
		SetContext("f_max", fMax)
}

// NarrowRangeError creates the error for a frequency range too narrow for
// float64 to sample distinct frequencies at every row
func NarrowRangeError(fMin, fMax float64, index int) *Error {
	return New(ErrConfigDegenerate, fmt.Sprintf("frequency range %g..%g Hz has no distinct frequency at row %d", fMin, fMax, index)).
		SetSection("timing").
		SetContext("index", index)
}

// CycleOverflowError creates the error for constants whose loop cycle count
// does not fit an int64
func CycleOverflowError(loopMoves, moveCycles, haltCycles int64) *Error {
	return New(ErrConfigDegenerate, "loop cycle count overflows int64").
		SetSection("timing").
		SetContext("freq_loop_moves", loopMoves).
		SetContext("move_cycles", moveCycles).
		SetContext("halt_cycles", haltCycles)
}

// Generation errors

// TableRangeError creates an error for a table lookup outside 0..255
func TableRangeError(index int) *Error {
	return New(ErrTableRange, fmt.Sprintf("index %d outside 0..255", index)).
		SetContext("index", index)
}

// SongError creates a song compiler error
func SongError(message string) *Error {
	return New(ErrSong, message)
}

// Output errors

// FormatError creates an error for an unknown output format
func FormatError(name string, valid []string) *Error {
	return New(ErrFormat, fmt.Sprintf("unknown format '%s' (valid: %s)", name, strings.Join(valid, ", ")))
}

// OutputError wraps a failure writing generated output
func OutputError(target string, err error) *Error {
	return Wrap(err, ErrOutput, fmt.Sprintf("writing %s", target))
}

// Is checks if err, or any error it wraps, carries the given code
func Is(err error, code ErrorCode) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsConfig reports whether err is a configuration error: an unreadable
// profile, a missing, malformed or out-of-range option, or a degenerate
// frequency range.
func IsConfig(err error) bool {
	return Is(err, ErrConfigFile) ||
		Is(err, ErrConfigSection) ||
		Is(err, ErrConfigOption) ||
		Is(err, ErrConfigValidation) ||
		Is(err, ErrConfigType) ||
		Is(err, ErrConfigDegenerate)
}
