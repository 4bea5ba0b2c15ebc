// Copyright 2009 Peter H. Froehlich. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

import (
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// These constants can be or'd together and passed as the
// "flags" option to Open(). Some of them only apply if
// the "vfs" option is also passed. See SQLite documentation
// for details. Note that we always force OpenFullMutex,
// so passing OpenNoMutex has no effect. See also FlagsURL().
const (
	OpenReadOnly      = 0x00000001
	OpenReadWrite     = 0x00000002
	OpenCreate        = 0x00000004
	OpenDeleteOnClose = 0x00000008 // VFS only
	OpenExclusive     = 0x00000010 // VFS only
	OpenURI           = 0x00000040
	OpenMemory        = 0x00000080
	OpenMainDb        = 0x00000100 // VFS only
	OpenTempDb        = 0x00000200 // VFS only
	OpenTransientDb   = 0x00000400 // VFS only
	OpenMainJournal   = 0x00000800 // VFS only
	OpenTempJournal   = 0x00001000 // VFS only
	OpenSubJournal    = 0x00002000 // VFS only
	OpenMasterJournal = 0x00004000 // VFS only
	OpenNoMutex       = 0x00008000
	OpenFullMutex     = 0x00010000
	OpenSharedCache   = 0x00020000
	OpenPrivateCache  = 0x00040000
)

// after we run into a locked database/table,
// we'll retry for this long
const defaultTimeout = 16 * time.Second

// Connection is an open SQLite database. A Connection and
// the Statements and Transactions created on it must be
// used by one goroutine at a time.
type Connection struct {
	handle *sqlConnection
	logger *slog.Logger

	busyTimeout time.Duration

	// statements stepping through a Use on this connection
	cursors map[*Statement]struct{}
}

// Option configures a Connection at Open time.
type Option func(*Connection)

// WithLogger routes the connection's diagnostics to l.
// Without it nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(c *Connection) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBusyTimeout overrides the busy timeout given in the
// URL (or the 16 second default).
func WithBusyTimeout(d time.Duration) Option {
	return func(c *Connection) { c.busyTimeout = d }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Open connects to the database named by url, which is a
// file name, ":memory:", a SQLite "file:" URI or
// "sqlite3:name?flags=N&vfs=V&busy_timeout=MS".
func Open(url string, options ...Option) (*Connection, error) {
	info, err := parseConnInfo(url)
	if err != nil {
		return nil, err
	}

	conn := &Connection{
		logger:      discardLogger(),
		busyTimeout: info.busyTimeout,
	}
	for _, o := range options {
		o(conn)
	}

	var rc int
	conn.handle, rc = sqlOpen(info.name, info.flags, info.vfs)
	if rc != StatusOk {
		err = conn.error("open", rc)
		// ignore potential secondary error
		_ = conn.handle.sqlClose()
		return nil, err
	}

	rc = conn.handle.sqlBusyTimeout(int(conn.busyTimeout / time.Millisecond))
	if rc != StatusOk {
		err = conn.error("busy_timeout", rc)
		_ = conn.handle.sqlClose()
		return nil, err
	}

	rc = conn.handle.sqlExtendedResultCodes(true)
	if rc != StatusOk {
		err = conn.error("extended_result_codes", rc)
		_ = conn.handle.sqlClose()
		return nil, err
	}

	conn.logger.Debug("sqlite3: opened", "name", info.name, "flags", info.flags, "vfs", info.vfs)
	return conn, nil
}

// Fill in a SystemError with information about the last
// error from SQLite. rc is the status that told us something
// went wrong; it wins if the connection has moved on since.
func (c *Connection) error(op string, rc int) error {
	e := &SystemError{Op: op}
	if c.handle == nil || c.handle.handle == 0 {
		e.extended = rc
		e.basic = rc & 0xff
		if c.handle != nil && c.handle.tls != nil {
			e.message = c.handle.sqlErrorString(rc)
		} else {
			e.message = "status " + strconv.Itoa(rc)
		}
		return e
	}

	// We ask SQLite to use extended codes for the normal
	// sqlite3_errcode() call; we just have to mask out high
	// bits to turn them back into basic errors.
	e.extended = c.handle.sqlExtendedErrorCode()
	if e.extended&0xff != rc&0xff {
		e.extended = rc
	}
	e.basic = e.extended & 0xff
	e.message = c.handle.sqlErrorMessage()
	if e.message == "" || e.message == "not an error" {
		e.message = c.handle.sqlErrorString(rc)
	}
	return e
}

func (c *Connection) usable() error {
	if c == nil || c.handle == nil || c.handle.handle == 0 {
		return ErrClosed
	}
	return nil
}

// Close the connection. A cursor still open on it is
// released first; its Statement is back to Idle afterwards.
func (c *Connection) Close() error {
	if c.usable() != nil {
		return nil
	}
	for q := range c.cursors {
		c.logger.Warn("sqlite3: cursor released by Close", "sql", q.sql.String())
		q.release()
	}
	if rc := c.handle.sqlClose(); rc != StatusOk {
		return c.error("close", rc)
	}
	c.handle = nil
	c.logger.Debug("sqlite3: closed")
	return nil
}

func (c *Connection) track(q *Statement) {
	if c.cursors == nil {
		c.cursors = make(map[*Statement]struct{})
	}
	c.cursors[q] = struct{}{}
}

func (c *Connection) untrack(q *Statement) { delete(c.cursors, q) }

// Version reports keys "version", "sqlite3.sourceid", and
// "sqlite3.versionnumber" describing the linked SQLite.
func Version() map[string]string {
	lib := sqlDetached()
	defer lib.sqlClose()

	data := make(map[string]string, 3)
	data["version"] = lib.sqlVersion()
	data["sqlite3.versionnumber"] = strconv.Itoa(lib.sqlVersionNumber())
	data["sqlite3.sourceid"] = lib.sqlSourceId()
	return data
}

// LibVersion is the SQLite version string, e.g. "3.46.0".
func (c *Connection) LibVersion() string {
	if c.usable() != nil {
		return Version()["version"]
	}
	return c.handle.sqlVersion()
}

// Changes is the number of rows modified by the most recent
// INSERT, UPDATE or DELETE on this connection.
func (c *Connection) Changes() int {
	if c.usable() != nil {
		return 0
	}
	return c.handle.sqlChanges()
}

// LastInsertID is the rowid of the most recent successful
// INSERT on this connection.
func (c *Connection) LastInsertID() int64 {
	if c.usable() != nil {
		return 0
	}
	return c.handle.sqlLastInsertRowId()
}

// InTransaction reports whether the connection is inside an
// explicit transaction.
func (c *Connection) InTransaction() bool {
	if c.usable() != nil {
		return false
	}
	return !c.handle.sqlAutocommit()
}

// Exec runs every statement in sql, discarding any rows.
// It takes no parameters; use a Statement for those.
func (c *Connection) Exec(sql string) error {
	if err := c.usable(); err != nil {
		return err
	}
	if strings.TrimSpace(sql) == "" {
		return ErrEmptyQuery
	}
	c.logger.Debug("sqlite3: exec", "sql", sql)
	return c.execScript("exec", sql)
}

// Vacuum rebuilds the database file, defragmenting it.
func (c *Connection) Vacuum() error {
	return c.Exec("VACUUM")
}

// execScript prepares and steps each statement of sql in
// turn until the text is used up.
func (c *Connection) execScript(op, sql string) error {
	rest := sql
	for {
		s, tail, rc := c.handle.sqlPrepare(rest)
		if rc != StatusOk {
			return c.error(op, rc)
		}
		if s != nil {
			rc = s.sqlStep()
			for rc == StatusRow {
				rc = s.sqlStep()
			}
			if rc != StatusDone {
				err := c.error(op, rc)
				_ = s.sqlFinalize()
				return err
			}
			if rc = s.sqlFinalize(); rc != StatusOk {
				return c.error(op, rc)
			}
		}
		if strings.TrimSpace(tail) == "" || len(tail) >= len(rest) {
			return nil
		}
		rest = tail
	}
}

// Query starts a new Statement on c, optionally seeded with
// SQL text.
func (c *Connection) Query(sql ...string) *Statement {
	return NewStatement(c, sql...)
}

// Begin starts a deferred transaction; see Begin.
func (c *Connection) Begin() (*Transaction, error) {
	return Begin(c, Deferred)
}
