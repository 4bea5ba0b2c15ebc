// Copyright 2009 Peter H. Froehlich. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Typed SQLite access for Go.
//
// Please see http://www.sqlite.org/c3ref/intro.html for all
// the missing details. Sorry, our documentation is focused
// on this package, not on SQLite in general.
//
// Connections:
//
// Open() takes a file name, ":memory:", a SQLite "file:" URI
// or "sqlite3:name?flags=N&vfs=V&busy_timeout=MS"; see
// FlagsURL() for the flags. Connections are always opened in
// "serialized" threading mode (see
// http://www.sqlite.org/threadsafe.html), but a Connection and
// everything created from it is meant for one goroutine at a
// time.
//
// Statements:
//
// A Statement collects SQL text and parameters and runs them
// with Exec() (no rows), Store() (all rows at once into a
// ResultSet) or Use() and UseNext() (one row at a time). The
// text is consumed by running it: the next Append() starts
// over, running again without appending repeats it.
//
// Values:
//
// Every field has one of the five SQLite storage classes.
// The As*() accessors convert where no data is lost and fail
// with ErrTypeMismatch otherwise; a REAL is never silently
// truncated to an INTEGER and a BLOB never read as TEXT.
//
// Binding Query Parameters:
//
// SQL text can contain "?", "?N", ":name", "@name" and
// "$name" parameters. Bind() and BindName() stage values for
// them; AppendParameter() writes a "?" and stages its value in
// one go. Numbers given to AppendLiteral() become part of the
// SQL text instead, no parameter involved. Staged values are
// checked against the prepared statement when it runs. Values
// from Bind() and BindName() are forgotten afterwards, those
// from AppendParameter() stay with their text. Two values for
// one slot (SQLite numbers "?1" and the first name alike) fail
// with ErrParameterConflict.
//
// Cursors:
//
// Stopping a Use()/UseNext() walk before the empty Row must be
// followed by UseAbort(), or the statement keeps its cursor
// (and its locks). Cursor() and Rows() take care of that.
// Closing the Connection releases any cursor left open.
//
// Low-Level API:
//
// The file low.go wraps the SQLite C API as transpiled to Go
// by modernc.org/sqlite, so no cgo is involved. That API is
// not exposed, and you should only have to worry about it if
// you're hunting for bugs in this package.
package sqlite3
