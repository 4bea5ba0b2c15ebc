// Copyright 2009 Peter H. Froehlich. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

import (
	"fmt"

	"gopkg.in/inf.v0"
)

// Field is one column of a Row: its name, the type it was
// declared with (empty for expressions) and its value.
type Field struct {
	Name     string
	DeclType string
	Value    Value
}

// Kind is the storage class SQLite reported for the value.
func (f Field) Kind() Kind { return f.Value.Kind() }

// IsNull reports whether the column is NULL.
func (f Field) IsNull() bool { return f.Value.IsNull() }

// AsInteger see Value.AsInteger.
func (f Field) AsInteger() (int64, error) {
	v, err := f.Value.AsInteger()
	return v, f.annotate(err)
}

// AsReal see Value.AsReal.
func (f Field) AsReal() (float64, error) {
	v, err := f.Value.AsReal()
	return v, f.annotate(err)
}

// AsText see Value.AsText.
func (f Field) AsText() (string, error) {
	v, err := f.Value.AsText()
	return v, f.annotate(err)
}

// AsBlob see Value.AsBlob.
func (f Field) AsBlob() ([]byte, error) {
	v, err := f.Value.AsBlob()
	return v, f.annotate(err)
}

// AsDecimal see Value.AsDecimal.
func (f Field) AsDecimal() (*inf.Dec, error) {
	v, err := f.Value.AsDecimal()
	return v, f.annotate(err)
}

func (f Field) annotate(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("column %q: %w", f.Name, err)
}

// String renders the value for display.
func (f Field) String() string { return f.Value.String() }

// readRow copies the current row out of s.
func readRow(s *sqlStatement, names, decls []string) Row {
	fields := make([]Field, len(names))
	for i := range fields {
		fields[i] = Field{Name: names[i], DeclType: decls[i], Value: readValue(s, i)}
	}
	return Row{fields: fields}
}

func readValue(s *sqlStatement, i int) Value {
	switch kindOf(s.sqlColumnType(i)) {
	case KindInteger:
		return Int(s.sqlColumnInt64(i))
	case KindReal:
		return Float(s.sqlColumnDouble(i))
	case KindText:
		return Text(s.sqlColumnText(i))
	case KindBlob:
		// sqlColumnBlob already hands us our own copy
		return Value{kind: KindBlob, b: s.sqlColumnBlob(i)}
	}
	return Null()
}
