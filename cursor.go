// Copyright 2009 Peter H. Froehlich. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

// Row-at-a-time access. Use starts stepping through the
// results, UseNext fetches the following rows; once they are
// exhausted both return the empty Row. A caller that stops
// before that must call UseAbort, otherwise the statement
// keeps its cursor and locks. Cursor and Rows do this for
// you.

import "iter"

// Use runs the text, which must be a single statement, and
// returns its first row, or the empty Row if there is none.
func (q *Statement) Use() (Row, error) {
	s, err := q.prepareOne("use")
	if err != nil {
		return Row{}, err
	}
	q.cursor = s
	q.state = Stepping
	q.conn.track(q)
	return q.step("use")
}

// UseNext returns the next row of the results Use started,
// or the empty Row once they are exhausted, however often it
// is called after that.
func (q *Statement) UseNext() (Row, error) {
	switch q.state {
	case Stepping:
		return q.step("use next")
	case Exhausted:
		return Row{}, nil
	}
	q.logger.Error("sqlite3: UseNext without Use", "state", q.state.String())
	return Row{}, invalidState("use next", q.state)
}

// UseAbort stops stepping and releases the cursor. It is a
// no-op when no cursor is open.
func (q *Statement) UseAbort() error {
	switch q.state {
	case Stepping:
		q.release()
	case Exhausted:
		q.state = Idle
	}
	return nil
}

// step moves the open cursor one row on. At the end the
// cursor is finalized right away; the statement stays
// Exhausted until aborted or run again.
func (q *Statement) step(op string) (Row, error) {
	s := q.cursor
	switch rc := s.sqlStep(); rc {
	case StatusRow:
		return readRow(s, q.columns, q.decls), nil
	case StatusDone:
		q.cursor = nil
		q.conn.untrack(q)
		if rc = s.sqlFinalize(); rc != StatusOk {
			q.state = Idle
			return Row{}, q.conn.error("finalize", rc)
		}
		q.state = Exhausted
		return Row{}, nil
	default:
		err := q.conn.error(op, rc)
		q.release()
		return Row{}, err
	}
}

// release finalizes the open cursor and goes back to Idle.
func (q *Statement) release() {
	q.state = Aborted
	if q.cursor != nil {
		q.conn.untrack(q)
		if q.cursor.conn.tls != nil {
			// the step error, if any, was reported already
			_ = q.cursor.sqlReset()
			_ = q.cursor.sqlClearBindings()
			_ = q.cursor.sqlFinalize()
		}
		q.cursor = nil
	}
	q.state = Idle
}

// Cursor walks the rows of a Statement. It owns the stepping
// of that statement until Close, which must be called; it is
// safe to call Close more than once.
//
//	c := q.Cursor()
//	defer c.Close()
//	for c.Next() {
//		row := c.Row()
//		...
//	}
//	if err := c.Err(); err != nil {
//		...
//	}
type Cursor struct {
	q       *Statement
	row     Row
	err     error
	started bool
	owned   bool // Use succeeded, the statement is ours
	done    bool
}

// Cursor returns a Cursor over the results of the text. The
// statement is run on the first call to Next.
func (q *Statement) Cursor() *Cursor {
	return &Cursor{q: q}
}

// Next advances to the next row and reports whether there is
// one. It returns false at the end or after an error.
func (c *Cursor) Next() bool {
	if c.done {
		return false
	}
	var (
		row Row
		err error
	)
	if !c.started {
		c.started = true
		row, err = c.q.Use()
		c.owned = err == nil
	} else {
		row, err = c.q.UseNext()
	}
	if err != nil || row.Empty() {
		c.err = err
		c.row = Row{}
		c.done = true
		return false
	}
	c.row = row
	return true
}

// Row is the row Next moved to.
func (c *Cursor) Row() Row { return c.row }

// Err is the error that ended the walk, if any.
func (c *Cursor) Err() error { return c.err }

// Close releases the statement for the next execution.
func (c *Cursor) Close() error {
	c.done = true
	if !c.owned {
		return nil
	}
	c.owned = false
	return c.q.UseAbort()
}

// Rows iterates over the results of the text. Leaving the
// loop early releases the statement; an error ends the
// iteration as its last element.
func (q *Statement) Rows() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		c := q.Cursor()
		defer c.Close()
		for c.Next() {
			if !yield(c.Row(), nil) {
				return
			}
		}
		if err := c.Err(); err != nil {
			yield(Row{}, err)
		}
	}
}
