// Copyright 2009 Peter H. Froehlich. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/inf.v0"
	lib "modernc.org/sqlite/lib"
)

// Kind is the storage class of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInteger
	KindReal
	KindText
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInteger:
		return "INTEGER"
	case KindReal:
		return "REAL"
	case KindText:
		return "TEXT"
	case KindBlob:
		return "BLOB"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// kindOf maps a sqlite3_column_type() code to a Kind.
func kindOf(engineType int) Kind {
	switch engineType {
	case lib.SQLITE_INTEGER:
		return KindInteger
	case lib.SQLITE_FLOAT:
		return KindReal
	case lib.SQLITE_TEXT:
		return KindText
	case lib.SQLITE_BLOB:
		return KindBlob
	}
	return KindNull
}

// Value holds exactly one of NULL, INTEGER, REAL, TEXT or
// BLOB. The zero Value is NULL. Values are immutable; a BLOB
// Value owns its bytes.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    []byte
}

// Null returns the NULL Value.
func Null() Value { return Value{} }

// Int returns an INTEGER Value.
func Int(v int64) Value { return Value{kind: KindInteger, i: v} }

// Uint returns an INTEGER Value; SQLite integers are signed,
// so values above math.MaxInt64 fail with ErrOutOfRange.
func Uint(v uint64) (Value, error) {
	if v > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: %d does not fit a 64-bit signed integer", ErrOutOfRange, v)
	}
	return Int(int64(v)), nil
}

// Float returns a REAL Value.
func Float(v float64) Value { return Value{kind: KindReal, f: v} }

// Text returns a TEXT Value.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Blob returns a BLOB Value holding a copy of v, so the
// caller may reuse v as soon as Blob returns.
func Blob(v []byte) Value {
	b := make([]byte, len(v))
	copy(b, v)
	return Value{kind: KindBlob, b: b}
}

// ValueOf converts common Go values: nil, Value, the integer
// kinds, float32/64, bool (stored as 0/1), string, []byte and
// *inf.Dec (stored as its exact decimal TEXT).
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Uint(uint64(x))
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return Uint(x)
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case bool:
		if x {
			return Int(1), nil
		}
		return Int(0), nil
	case string:
		return Text(x), nil
	case []byte:
		if x == nil {
			return Null(), nil
		}
		return Blob(x), nil
	case *inf.Dec:
		if x == nil {
			return Null(), nil
		}
		return Text(x.String()), nil
	}
	return Value{}, fmt.Errorf("%w: cannot store %T", ErrTypeMismatch, v)
}

// Kind returns the storage class of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) mismatch(want Kind) error {
	return fmt.Errorf("%w: %s read as %s", ErrTypeMismatch, v.kind, want)
}

// AsInteger returns v as an integer. NULL reads as 0, TEXT is
// parsed; REAL and BLOB fail since they would lose data.
func (v Value) AsInteger() (int64, error) {
	switch v.kind {
	case KindNull:
		return 0, nil
	case KindInteger:
		return v.i, nil
	case KindText:
		n, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrTypeMismatch, v.s)
		}
		return n, nil
	}
	return 0, v.mismatch(KindInteger)
}

// AsReal returns v as a float. NULL reads as 0, INTEGER is
// widened, TEXT is parsed; BLOB fails.
func (v Value) AsReal() (float64, error) {
	switch v.kind {
	case KindNull:
		return 0, nil
	case KindInteger:
		return float64(v.i), nil
	case KindReal:
		return v.f, nil
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, v.s)
		}
		return f, nil
	}
	return 0, v.mismatch(KindReal)
}

// AsText returns v as text. NULL reads as "", numbers are
// formatted in decimal; BLOB fails.
func (v Value) AsText() (string, error) {
	switch v.kind {
	case KindNull:
		return "", nil
	case KindInteger:
		return strconv.FormatInt(v.i, 10), nil
	case KindReal:
		return strconv.FormatFloat(v.f, 'f', -1, 64), nil
	case KindText:
		return v.s, nil
	}
	return "", v.mismatch(KindText)
}

// AsBlob returns a copy of the bytes of a BLOB. NULL reads as
// an empty slice; every other kind fails.
func (v Value) AsBlob() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte{}, nil
	case KindBlob:
		b := make([]byte, len(v.b))
		copy(b, v.b)
		return b, nil
	}
	return nil, v.mismatch(KindBlob)
}

// AsDecimal returns v as an exact decimal. NULL reads as 0,
// REAL goes through its shortest decimal representation,
// TEXT is parsed; BLOB fails.
func (v Value) AsDecimal() (*inf.Dec, error) {
	switch v.kind {
	case KindNull:
		return new(inf.Dec), nil
	case KindInteger:
		return inf.NewDec(v.i, 0), nil
	case KindReal, KindText:
		s, _ := v.AsText()
		d, ok := new(inf.Dec).SetString(strings.TrimSpace(s))
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a decimal", ErrTypeMismatch, s)
		}
		return d, nil
	}
	return nil, v.mismatch(KindText)
}

// Equal reports whether v and w have the same kind and content.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}
	switch v.kind {
	case KindInteger:
		return v.i == w.i
	case KindReal:
		return v.f == w.f
	case KindText:
		return v.s == w.s
	case KindBlob:
		return bytes.Equal(v.b, w.b)
	}
	return true
}

// String renders v for display; BLOBs are shown as hex.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBlob:
		return "x'" + hex.EncodeToString(v.b) + "'"
	}
	s, _ := v.AsText()
	return s
}
