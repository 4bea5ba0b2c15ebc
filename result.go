// Copyright 2009 Peter H. Froehlich. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

import "fmt"

// Row is one result row, its fields in column order. The
// zero Row has no fields and is what Use and UseNext return
// once the results are exhausted.
type Row struct {
	fields []Field
}

// Len is the number of fields.
func (r Row) Len() int { return len(r.fields) }

// NumFields is Len.
func (r Row) NumFields() int { return len(r.fields) }

// Empty reports whether r is the end-of-results sentinel.
func (r Row) Empty() bool { return len(r.fields) == 0 }

// Field returns the i-th field, counting from 0.
func (r Row) Field(i int) (Field, error) {
	if i < 0 || i >= len(r.fields) {
		return Field{}, fmt.Errorf("%w: field %d of %d", ErrOutOfRange, i, len(r.fields))
	}
	return r.fields[i], nil
}

// Column returns the field named name. This is a linear
// scan and thus slower than Field.
func (r Row) Column(name string) (Field, error) {
	for _, f := range r.fields {
		if f.Name == name {
			return f, nil
		}
	}
	return Field{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

// Fields returns the fields of r.
func (r Row) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Columns returns the field names of r.
func (r Row) Columns() []string {
	out := make([]string, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.Name
	}
	return out
}

// Values returns the values of r in column order.
func (r Row) Values() []Value {
	out := make([]Value, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.Value
	}
	return out
}
