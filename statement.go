// Copyright 2009 Peter H. Froehlich. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"gopkg.in/inf.v0"
)

// State is where a Statement is in its execution protocol.
type State int

const (
	// Idle: nothing is prepared, any execution may start.
	Idle State = iota
	// Prepared: SQL is compiled and parameters bound; only
	// seen while an execution is in progress.
	Prepared
	// Stepping: Use returned a row and more may follow.
	Stepping
	// Exhausted: Use or UseNext returned the empty Row.
	Exhausted
	// Aborted: a cursor was released before the end; the
	// statement moves on to Idle right away.
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Prepared:
		return "prepared"
	case Stepping:
		return "stepping"
	case Exhausted:
		return "exhausted"
	case Aborted:
		return "aborted"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Statement builds SQL text, stages parameters and runs the
// result. Every execution (Exec, Store, Use) consumes the
// text: appending afterwards starts a new text while running
// again without appending repeats the last one. Values given
// to Bind and BindName are used by one execution and then
// forgotten; those added with AppendParameter belong to the
// text and are bound whenever it runs.
type Statement struct {
	conn   *Connection
	logger *slog.Logger

	sql      strings.Builder
	consumed bool
	err      error // first AppendLiteral failure in this text

	params  []binding // from AppendParameter, owned by the text
	binds   binder
	bindErr error
	state   State

	// open cursor while Stepping
	cursor  *sqlStatement
	columns []string
	decls   []string

	insertID int64
	affected int64
}

// NewStatement returns a Statement on conn, its text seeded
// with the concatenation of sql.
func NewStatement(conn *Connection, sql ...string) *Statement {
	q := &Statement{conn: conn, logger: discardLogger()}
	if conn != nil {
		q.logger = conn.logger
	}
	for _, s := range sql {
		q.sql.WriteString(s)
	}
	return q
}

// State reports the current protocol state.
func (q *Statement) State() State { return q.state }

// String is the current SQL text.
func (q *Statement) String() string { return q.sql.String() }

// InsertID is the rowid of the last row inserted by the
// connection as of the end of the last Exec.
func (q *Statement) InsertID() int64 { return q.insertID }

// AffectedRows is the number of rows the last Exec inserted,
// updated or deleted, including changes made by triggers.
func (q *Statement) AffectedRows() int64 { return q.affected }

// startText makes room for new text if the old one was
// already run. Replacing the text of an open cursor releases
// the cursor.
func (q *Statement) startText() {
	if !q.consumed {
		return
	}
	q.abandon("new sql")
	q.sql.Reset()
	q.params = nil
	q.consumed = false
	q.err = nil
}

// abandon releases a cursor nobody aborted.
func (q *Statement) abandon(op string) {
	switch q.state {
	case Stepping:
		q.logger.Error("sqlite3: cursor released without UseAbort", "op", op, "sql", q.sql.String())
		q.release()
	case Exhausted:
		q.state = Idle
	}
}

// Append adds raw SQL text.
func (q *Statement) Append(sql string) *Statement {
	q.startText()
	q.sql.WriteString(sql)
	return q
}

// AppendLiteral renders a number into the SQL text. Integers,
// floats, bools (as 0 and 1) and *inf.Dec are accepted; for
// anything else the next execution fails with ErrTypeMismatch.
// The value does not go through a parameter, so use
// AppendParameter for anything that came from outside.
func (q *Statement) AppendLiteral(v any) *Statement {
	q.startText()
	lit, err := literal(v)
	if err != nil {
		q.fail(err)
		return q
	}
	q.sql.WriteString(lit)
	return q
}

// AppendParameter writes a "?" into the SQL text and stages v
// for the slot SQLite will give it.
func (q *Statement) AppendParameter(v Value) *Statement {
	q.startText()
	q.params = append(q.params, binding{index: nextSlot(q.sql.String()), value: v})
	q.sql.WriteByte('?')
	return q
}

// Add appends v the way its type suggests: a string is SQL
// text, a number is a literal, and a Value or []byte becomes
// a parameter. A nil v is a NULL parameter.
func (q *Statement) Add(v any) *Statement {
	switch x := v.(type) {
	case string:
		return q.Append(x)
	case Value:
		return q.AppendParameter(x)
	case []byte:
		val, _ := ValueOf(x)
		return q.AppendParameter(val)
	case nil:
		return q.AppendParameter(Null())
	}
	return q.AppendLiteral(v)
}

// SetSQL replaces the text. Values given to Bind and BindName
// are kept so they can be staged before the text that uses
// them is known; appended parameters go with the old text.
func (q *Statement) SetSQL(sql string) *Statement {
	q.consumed = true
	q.startText()
	q.sql.WriteString(sql)
	return q
}

// Bind stages v for the parameter at index, counting from 1.
// v is converted with ValueOf; binding the same index again
// before execution replaces the value.
func (q *Statement) Bind(index int, v any) *Statement {
	val, err := ValueOf(v)
	if err != nil {
		q.failBind(fmt.Errorf("bind ?%d: %w", index, err))
		return q
	}
	q.binds.bindIndex(index, val)
	return q
}

// BindName stages v for the named parameter. The name may be
// given with its prefix (":id", "@id", "$id") or without, in
// which case the prefixes are tried in that order.
func (q *Statement) BindName(name string, v any) *Statement {
	if strings.TrimLeft(name, ":@$") == "" {
		q.failBind(fmt.Errorf("%w: empty name %q", ErrUnknownParameter, name))
		return q
	}
	val, err := ValueOf(v)
	if err != nil {
		q.failBind(fmt.Errorf("bind %q: %w", name, err))
		return q
	}
	q.binds.bindName(name, val)
	return q
}

func (q *Statement) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

func (q *Statement) failBind(err error) {
	q.bindErr = errors.Join(q.bindErr, err)
}

// begin checks that an execution may start and takes the
// text to run. Parameters and deferred errors are handed
// over to this execution whatever happens.
func (q *Statement) begin(op string) (string, error) {
	if err := q.conn.usable(); err != nil {
		return "", err
	}
	if q.state == Stepping {
		q.logger.Error("sqlite3: execution while a cursor is open", "op", op, "sql", q.sql.String())
		return "", invalidState(op, q.state)
	}
	q.state = Idle
	q.consumed = true
	if err := errors.Join(q.err, q.bindErr); err != nil {
		q.err, q.bindErr = nil, nil
		q.binds.clear()
		return "", err
	}
	sql := q.sql.String()
	if strings.TrimSpace(sql) == "" {
		q.binds.clear()
		return "", ErrEmptyQuery
	}
	return sql, nil
}

// Exec runs every statement in the text, discarding rows.
// Each statement gets the staged parameters it has slots
// for; a parameter no statement could take is reported as
// ErrUnknownParameter. Changes already made by earlier
// statements stay when a later one fails.
func (q *Statement) Exec() error {
	sql, err := q.begin("exec")
	if err != nil {
		return err
	}
	defer q.binds.clear()

	conn := q.conn.handle
	before := conn.sqlTotalChanges()
	b := q.staged()
	used := make([]bool, b.len())
	rest := sql
	for {
		s, tail, rc := conn.sqlPrepare(rest)
		if rc != StatusOk {
			return q.conn.error("prepare", rc)
		}
		more := strings.TrimSpace(tail) != "" && len(tail) < len(rest)
		if s != nil {
			q.logger.Debug("sqlite3: exec", "sql", s.sqlSql())
			q.state = Prepared
			err := q.run(s, b, used, !more && rest == sql)
			q.state = Idle
			if err != nil {
				return err
			}
		}
		if !more {
			break
		}
		rest = tail
	}
	q.insertID = conn.sqlLastInsertRowId()
	q.affected = conn.sqlTotalChanges() - before
	return b.unknown(used, nil)
}

// run binds and steps s to completion, then finalizes it. For
// a single statement the parameters are checked before any
// step.
func (q *Statement) run(s *sqlStatement, b *binder, used []bool, single bool) error {
	if err := b.apply(q.conn, s, used); err != nil {
		_ = s.sqlFinalize()
		return err
	}
	if single {
		if err := b.unknown(used, s); err != nil {
			_ = s.sqlFinalize()
			return err
		}
	}
	rc := s.sqlStep()
	for rc == StatusRow {
		rc = s.sqlStep()
	}
	if rc != StatusDone {
		err := q.conn.error("step", rc)
		_ = s.sqlFinalize()
		return err
	}
	if rc = s.sqlFinalize(); rc != StatusOk {
		return q.conn.error("finalize", rc)
	}
	return nil
}

// staged is what an execution binds: the parameters of the
// text followed by the values given to Bind and BindName.
func (q *Statement) staged() *binder {
	b := &binder{staged: make([]binding, 0, len(q.params)+q.binds.len())}
	b.staged = append(b.staged, q.params...)
	b.staged = append(b.staged, q.binds.staged...)
	return b
}

// ExecSQL replaces the text with sql and runs it.
func (q *Statement) ExecSQL(sql string) error {
	return q.SetSQL(sql).Exec()
}

// prepareOne compiles the text as a single statement with
// the staged parameters bound. It is the common start of
// Store and Use.
func (q *Statement) prepareOne(op string) (*sqlStatement, error) {
	sql, err := q.begin(op)
	if err != nil {
		return nil, err
	}
	defer q.binds.clear()

	s, tail, rc := q.conn.handle.sqlPrepare(sql)
	if rc != StatusOk {
		return nil, q.conn.error("prepare", rc)
	}
	if s == nil {
		return nil, ErrEmptyQuery
	}
	if strings.TrimSpace(tail) != "" {
		_ = s.sqlFinalize()
		return nil, fmt.Errorf("%w: %q follows the first statement", ErrMultipleStatements, strings.TrimSpace(tail))
	}
	q.logger.Debug("sqlite3: "+op, "sql", s.sqlSql())

	b := q.staged()
	used := make([]bool, b.len())
	if err := b.apply(q.conn, s, used); err != nil {
		_ = s.sqlFinalize()
		return nil, err
	}
	if err := b.unknown(used, s); err != nil {
		_ = s.sqlFinalize()
		return nil, err
	}

	n := s.sqlColumnCount()
	q.columns = make([]string, n)
	q.decls = make([]string, n)
	for i := range n {
		q.columns[i] = s.sqlColumnName(i)
		q.decls[i] = s.sqlColumnDeclType(i)
	}
	q.state = Prepared
	return s, nil
}

// Store runs the text, which must be a single statement, and
// collects every row it returns.
func (q *Statement) Store() (*ResultSet, error) {
	s, err := q.prepareOne("store")
	if err != nil {
		return nil, err
	}
	defer func() { q.state = Idle }()

	rs := &ResultSet{columns: q.columns}
	rc := s.sqlStep()
	for rc == StatusRow {
		rs.rows = append(rs.rows, readRow(s, q.columns, q.decls))
		rc = s.sqlStep()
	}
	if rc != StatusDone {
		err := q.conn.error("step", rc)
		_ = s.sqlFinalize()
		return nil, err
	}
	if rc = s.sqlFinalize(); rc != StatusOk {
		return nil, q.conn.error("finalize", rc)
	}
	return rs, nil
}

// StoreSQL replaces the text with sql and stores its rows.
func (q *Statement) StoreSQL(sql string) (*ResultSet, error) {
	return q.SetSQL(sql).Store()
}

// Close releases the statement. Closing an open cursor
// releases it too but is reported as ErrInvalidState, since
// UseAbort should have been called.
func (q *Statement) Close() error {
	q.binds.clear()
	q.err, q.bindErr = nil, nil
	if q.state == Stepping {
		q.logger.Error("sqlite3: statement closed while a cursor is open", "sql", q.sql.String())
		q.release()
		return invalidState("close", Stepping)
	}
	q.state = Idle
	return nil
}

// literal renders v as SQL number text.
func literal(v any) (string, error) {
	switch x := v.(type) {
	case int:
		return strconv.FormatInt(int64(x), 10), nil
	case int8:
		return strconv.FormatInt(int64(x), 10), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float32:
		return floatLiteral(float64(x))
	case float64:
		return floatLiteral(x)
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case *inf.Dec:
		if x == nil {
			return "NULL", nil
		}
		return x.String(), nil
	}
	return "", fmt.Errorf("%w: %T is not a numeric literal", ErrTypeMismatch, v)
}

// floatLiteral keeps the value REAL when SQLite reads it
// back, so 2.0 is written "2.0" and not "2".
func floatLiteral(f float64) (string, error) {
	switch {
	case math.IsNaN(f):
		return "", fmt.Errorf("%w: NaN has no SQL literal", ErrTypeMismatch)
	case math.IsInf(f, 1):
		return "1e999", nil
	case math.IsInf(f, -1):
		return "-1e999", nil
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s, nil
}
