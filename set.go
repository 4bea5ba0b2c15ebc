// Copyright 2009 Peter H. Froehlich. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

import (
	"fmt"
	"iter"
)

// ResultSet is a fully materialized query result, built by
// Statement.Store. It does not change after Store returns.
type ResultSet struct {
	columns []string
	rows    []Row
}

// Len is the number of rows.
func (rs *ResultSet) Len() int { return len(rs.rows) }

// NumRows is Len.
func (rs *ResultSet) NumRows() int { return len(rs.rows) }

// Columns returns the column names of the result, which are
// known even when there are no rows.
func (rs *ResultSet) Columns() []string {
	out := make([]string, len(rs.columns))
	copy(out, rs.columns)
	return out
}

// Row returns the i-th row, counting from 0.
func (rs *ResultSet) Row(i int) (Row, error) {
	if i < 0 || i >= len(rs.rows) {
		return Row{}, fmt.Errorf("%w: row %d of %d", ErrOutOfRange, i, len(rs.rows))
	}
	return rs.rows[i], nil
}

// Rows returns all rows.
func (rs *ResultSet) Rows() []Row {
	out := make([]Row, len(rs.rows))
	copy(out, rs.rows)
	return out
}

// All iterates over the rows with their index.
func (rs *ResultSet) All() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for i, r := range rs.rows {
			if !yield(i, r) {
				return
			}
		}
	}
}
