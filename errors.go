// Copyright 2009 Peter H. Froehlich. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

import (
	"errors"
	"fmt"
)

// Basic SQLite result codes. Extended codes carry one of
// these in their low byte.
const (
	StatusOk         = 0
	StatusError      = 1
	StatusInternal   = 2
	StatusPerm       = 3
	StatusAbort      = 4
	StatusBusy       = 5
	StatusLocked     = 6
	StatusNoMem      = 7
	StatusReadOnly   = 8
	StatusInterrupt  = 9
	StatusIOErr      = 10
	StatusCorrupt    = 11
	StatusNotFound   = 12
	StatusFull       = 13
	StatusCantOpen   = 14
	StatusProtocol   = 15
	StatusEmpty      = 16
	StatusSchema     = 17
	StatusTooBig     = 18
	StatusConstraint = 19
	StatusMismatch   = 20
	StatusMisuse     = 21
	StatusNoLFS      = 22
	StatusAuth       = 23
	StatusFormat     = 24
	StatusRange      = 25
	StatusNotADB     = 26
	StatusNotice     = 27
	StatusWarning    = 28
	StatusRow        = 100
	StatusDone       = 101
)

var (
	// ErrEngine matches every *SystemError with errors.Is.
	ErrEngine = errors.New("sqlite3: engine error")

	// ErrTypeMismatch is returned when a value is requested as
	// a type it cannot be converted to without loss.
	ErrTypeMismatch = errors.New("sqlite3: type mismatch")

	// ErrUnknownParameter is returned at execution time when a
	// staged binding names a slot the prepared SQL does not have.
	ErrUnknownParameter = errors.New("sqlite3: unknown parameter")

	// ErrParameterConflict is returned at execution time when
	// two staged bindings resolve to the same slot.
	ErrParameterConflict = errors.New("sqlite3: parameter bound twice")

	// ErrUnknownColumn is returned by Row.Column for a name that
	// is not part of the result.
	ErrUnknownColumn = errors.New("sqlite3: unknown column")

	// ErrOutOfRange is returned for positional access past the end.
	ErrOutOfRange = errors.New("sqlite3: index out of range")

	// ErrInvalidState signals a protocol violation, e.g. UseNext
	// without Use or Commit without an active transaction.
	ErrInvalidState = errors.New("sqlite3: invalid state")

	// ErrEmptyQuery is returned when there is no SQL to run.
	ErrEmptyQuery = errors.New("sqlite3: empty query")

	// ErrMultipleStatements is returned by Store and Use when the
	// SQL text holds more than one statement.
	ErrMultipleStatements = errors.New("sqlite3: more than one statement")

	// ErrClosed is returned when using a closed Connection.
	ErrClosed = errors.New("sqlite3: connection closed")
)

// SystemError reports a non-success status returned by
// SQLite itself.
type SystemError struct {
	// Op is the operation that failed (prepare, bind, step...).
	Op string

	basic    int
	extended int
	message  string
}

func (e *SystemError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("sqlite3: %s (%d)", e.message, e.extended)
	}
	return fmt.Sprintf("sqlite3: %s: %s (%d)", e.Op, e.message, e.extended)
}

// Code returns the basic result code.
func (e *SystemError) Code() int { return e.basic }

// ExtendedCode returns the extended result code.
func (e *SystemError) ExtendedCode() int { return e.extended }

// Message returns SQLite's description of the failure.
func (e *SystemError) Message() string { return e.message }

// Is makes errors.Is(err, ErrEngine) hold for any SystemError.
func (e *SystemError) Is(target error) bool { return target == ErrEngine }

func invalidState(op string, state fmt.Stringer) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidState, op, state)
}
