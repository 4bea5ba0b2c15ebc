// Copyright 2009 Peter H. Froehlich. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

import (
	"unsafe"

	"modernc.org/libc"
	"modernc.org/libc/sys/types"
	lib "modernc.org/sqlite/lib"
)

// If something goes wrong on this level, we simply bomb
// out, there's no use trying to recover; note that most
// calls to sqlPanic() are for things that can never,
// ever, ever happen anyway (or mean we are out of memory).
// For regular "errors" status codes are returned.

func sqlPanic(str string) {
	panic("sqlite3 fatal error: " + str + "!")
}

const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// Wrappers around the most important SQLite types. Every
// handle is a pointer into the memory of the transpiled
// library and only valid together with the TLS it was
// created on.

type sqlConnection struct {
	tls    *libc.TLS
	handle uintptr // *sqlite3
}

type sqlStatement struct {
	conn   *sqlConnection
	handle uintptr // *sqlite3_stmt

	// memory handed to SQLite for bound TEXT and BLOB
	// values; released once the bindings are cleared
	// or the statement is finalized
	allocs []uintptr
}

func (c *sqlConnection) malloc(n int) uintptr {
	if n <= 0 {
		n = 1
	}
	p := libc.Xmalloc(c.tls, types.Size_t(n))
	if p == 0 {
		sqlPanic("out of memory")
	}
	return p
}

func (c *sqlConnection) free(p uintptr) {
	if p != 0 {
		libc.Xfree(c.tls, p)
	}
}

func (c *sqlConnection) cstring(s string) uintptr {
	p, err := libc.CString(s)
	if err != nil {
		sqlPanic("can't allocate C string")
	}
	return p
}

// Wrappers around the most important SQLite functions.

func sqlOpen(name string, flags int, vfs string) (conn *sqlConnection, rc int) {
	conn = &sqlConnection{tls: libc.NewTLS()}

	pp := conn.malloc(ptrSize)
	defer conn.free(pp)
	*(*uintptr)(unsafe.Pointer(pp)) = 0

	p := conn.cstring(name)
	defer conn.free(p)

	var q uintptr
	if len(vfs) > 0 {
		q = conn.cstring(vfs)
		defer conn.free(q)
	}

	rc = int(lib.Xsqlite3_open_v2(conn.tls, p, pp, int32(flags), q))
	// We could get a handle even if there's an error, see
	// http://www.sqlite.org/c3ref/open.html for details.
	// The caller reads the message and then closes it.
	conn.handle = *(*uintptr)(unsafe.Pointer(pp))
	return
}

// sqlDetached gives access to the library-level calls
// (version and friends) without opening a database.
func sqlDetached() *sqlConnection {
	return &sqlConnection{tls: libc.NewTLS()}
}

func (c *sqlConnection) sqlClose() int {
	if c.handle != 0 {
		rc := int(lib.Xsqlite3_close_v2(c.tls, c.handle))
		if rc != StatusOk {
			return rc
		}
		c.handle = 0
	}
	if c.tls != nil {
		c.tls.Close()
		c.tls = nil
	}
	return StatusOk
}

func (c *sqlConnection) sqlVersion() string {
	cp := lib.Xsqlite3_libversion(c.tls)
	if cp == 0 {
		// The call can't really fail since it returns
		// a string constant, but let's be safe...
		sqlPanic("can't get library version")
	}
	return libc.GoString(cp)
}

func (c *sqlConnection) sqlVersionNumber() int {
	return int(lib.Xsqlite3_libversion_number(c.tls))
}

func (c *sqlConnection) sqlSourceId() string {
	cp := lib.Xsqlite3_sourceid(c.tls)
	if cp == 0 {
		sqlPanic("can't get library sourceid")
	}
	return libc.GoString(cp)
}

func (c *sqlConnection) sqlChanges() int {
	return int(lib.Xsqlite3_changes(c.tls, c.handle))
}

func (c *sqlConnection) sqlTotalChanges() int64 {
	return lib.Xsqlite3_total_changes64(c.tls, c.handle)
}

func (c *sqlConnection) sqlLastInsertRowId() int64 {
	return lib.Xsqlite3_last_insert_rowid(c.tls, c.handle)
}

func (c *sqlConnection) sqlAutocommit() bool {
	return lib.Xsqlite3_get_autocommit(c.tls, c.handle) != 0
}

func (c *sqlConnection) sqlBusyTimeout(milliseconds int) int {
	return int(lib.Xsqlite3_busy_timeout(c.tls, c.handle, int32(milliseconds)))
}

func (c *sqlConnection) sqlExtendedResultCodes(on bool) int {
	return int(lib.Xsqlite3_extended_result_codes(c.tls, c.handle, libc.Bool32(on)))
}

func (c *sqlConnection) sqlErrorMessage() string {
	cp := lib.Xsqlite3_errmsg(c.tls, c.handle)
	if cp == 0 {
		sqlPanic("can't get error message")
	}
	return libc.GoString(cp)
}

// sqlErrorString describes a status code without
// consulting the connection.
func (c *sqlConnection) sqlErrorString(rc int) string {
	return libc.GoString(lib.Xsqlite3_errstr(c.tls, int32(rc)))
}

func (c *sqlConnection) sqlExtendedErrorCode() int {
	return int(lib.Xsqlite3_extended_errcode(c.tls, c.handle))
}

// sqlPrepare compiles the first statement in query. The
// unused remainder is returned as tail. A nil statement
// with StatusOk means query held only whitespace or
// comments.
func (c *sqlConnection) sqlPrepare(query string) (stat *sqlStatement, tail string, rc int) {
	q := c.cstring(query)
	defer c.free(q)

	pp := c.malloc(2 * ptrSize)
	defer c.free(pp)
	ppStmt, ppTail := pp, pp+uintptr(ptrSize)
	*(*uintptr)(unsafe.Pointer(ppStmt)) = 0
	*(*uintptr)(unsafe.Pointer(ppTail)) = 0

	// -1: process query until 0 byte
	rc = int(lib.Xsqlite3_prepare_v2(c.tls, c.handle, q, -1, ppStmt, ppTail))
	handle := *(*uintptr)(unsafe.Pointer(ppStmt))

	// We are not supposed to get a handle on error, but
	// we really don't want to return a statement on error.
	if rc != StatusOk {
		if handle != 0 {
			lib.Xsqlite3_finalize(c.tls, handle)
		}
		return nil, "", rc
	}

	if t := *(*uintptr)(unsafe.Pointer(ppTail)); t != 0 {
		if off := int(t - q); off >= 0 && off <= len(query) {
			tail = query[off:]
		}
	}
	if handle == 0 {
		return nil, tail, rc
	}
	return &sqlStatement{conn: c, handle: handle}, tail, rc
}

func (s *sqlStatement) tls() *libc.TLS { return s.conn.tls }

func (s *sqlStatement) sqlSql() string {
	return libc.GoString(lib.Xsqlite3_sql(s.tls(), s.handle))
}

func (s *sqlStatement) sqlBindParameterCount() int {
	return int(lib.Xsqlite3_bind_parameter_count(s.tls(), s.handle))
}

// sqlBindParameterIndex returns 0 if no parameter is
// called name; name includes its prefix character.
func (s *sqlStatement) sqlBindParameterIndex(name string) int {
	p := s.conn.cstring(name)
	defer s.conn.free(p)
	return int(lib.Xsqlite3_bind_parameter_index(s.tls(), s.handle, p))
}

func (s *sqlStatement) sqlBindParameterName(i int) string {
	return libc.GoString(lib.Xsqlite3_bind_parameter_name(s.tls(), s.handle, int32(i)))
}

func (s *sqlStatement) sqlBindNull(i int) int {
	return int(lib.Xsqlite3_bind_null(s.tls(), s.handle, int32(i)))
}

func (s *sqlStatement) sqlBindInt64(i int, v int64) int {
	return int(lib.Xsqlite3_bind_int64(s.tls(), s.handle, int32(i), v))
}

func (s *sqlStatement) sqlBindDouble(i int, v float64) int {
	return int(lib.Xsqlite3_bind_double(s.tls(), s.handle, int32(i), v))
}

// The TEXT and BLOB binders copy the Go value into memory
// we own and pass it as SQLITE_STATIC; the copy lives
// until sqlClearBindings or sqlFinalize.

func (s *sqlStatement) sqlBindText(i int, v string) int {
	p := s.conn.cstring(v)
	rc := int(lib.Xsqlite3_bind_text(s.tls(), s.handle, int32(i), p, int32(len(v)), 0))
	if rc != StatusOk {
		s.conn.free(p)
		return rc
	}
	s.allocs = append(s.allocs, p)
	return rc
}

func (s *sqlStatement) sqlBindBlob(i int, v []byte) int {
	p := s.conn.malloc(len(v))
	if len(v) > 0 {
		copy((*libc.RawMem)(unsafe.Pointer(p))[:len(v):len(v)], v)
	}
	rc := int(lib.Xsqlite3_bind_blob(s.tls(), s.handle, int32(i), p, int32(len(v)), 0))
	if rc != StatusOk {
		s.conn.free(p)
		return rc
	}
	s.allocs = append(s.allocs, p)
	return rc
}

func (s *sqlStatement) sqlStep() int {
	return int(lib.Xsqlite3_step(s.tls(), s.handle))
}

func (s *sqlStatement) sqlReset() int {
	return int(lib.Xsqlite3_reset(s.tls(), s.handle))
}

func (s *sqlStatement) sqlClearBindings() int {
	rc := int(lib.Xsqlite3_clear_bindings(s.tls(), s.handle))
	s.release()
	return rc
}

func (s *sqlStatement) sqlFinalize() int {
	if s.handle == 0 {
		return StatusOk
	}
	rc := int(lib.Xsqlite3_finalize(s.tls(), s.handle))
	s.handle = 0
	s.release()
	return rc
}

func (s *sqlStatement) release() {
	for _, p := range s.allocs {
		s.conn.free(p)
	}
	s.allocs = s.allocs[:0]
}

func (s *sqlStatement) sqlColumnCount() int {
	return int(lib.Xsqlite3_column_count(s.tls(), s.handle))
}

func (s *sqlStatement) sqlColumnName(i int) string {
	return libc.GoString(lib.Xsqlite3_column_name(s.tls(), s.handle, int32(i)))
}

func (s *sqlStatement) sqlColumnDeclType(i int) string {
	return libc.GoString(lib.Xsqlite3_column_decltype(s.tls(), s.handle, int32(i)))
}

func (s *sqlStatement) sqlColumnType(i int) int {
	return int(lib.Xsqlite3_column_type(s.tls(), s.handle, int32(i)))
}

func (s *sqlStatement) sqlColumnInt64(i int) int64 {
	return lib.Xsqlite3_column_int64(s.tls(), s.handle, int32(i))
}

func (s *sqlStatement) sqlColumnDouble(i int) float64 {
	return lib.Xsqlite3_column_double(s.tls(), s.handle, int32(i))
}

// sqlColumnText and sqlColumnBlob copy out of SQLite's
// buffer, which is only valid until the next step.

func (s *sqlStatement) sqlColumnText(i int) string {
	p := lib.Xsqlite3_column_text(s.tls(), s.handle, int32(i))
	n := int(lib.Xsqlite3_column_bytes(s.tls(), s.handle, int32(i)))
	if p == 0 || n == 0 {
		return ""
	}
	return string((*libc.RawMem)(unsafe.Pointer(p))[:n:n])
}

func (s *sqlStatement) sqlColumnBlob(i int) []byte {
	p := lib.Xsqlite3_column_blob(s.tls(), s.handle, int32(i))
	n := int(lib.Xsqlite3_column_bytes(s.tls(), s.handle, int32(i)))
	v := make([]byte, n)
	if p != 0 && n > 0 {
		copy(v, (*libc.RawMem)(unsafe.Pointer(p))[:n:n])
	}
	return v
}
