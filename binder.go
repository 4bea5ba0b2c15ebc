// Copyright 2009 Peter H. Froehlich. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// binding is a value staged against a parameter slot, either
// by index or by name.
type binding struct {
	index int
	name  string
	value Value
}

func (b binding) String() string {
	if b.name != "" {
		return strconv.Quote(b.name)
	}
	return "?" + strconv.Itoa(b.index)
}

// binder keeps the values staged for an execution.
// Nothing is checked until they are applied to a prepared
// statement, since only then the slots are known.
type binder struct {
	staged []binding
}

func (b *binder) bindIndex(i int, v Value) {
	for k := range b.staged {
		if b.staged[k].name == "" && b.staged[k].index == i {
			b.staged[k].value = v
			return
		}
	}
	b.staged = append(b.staged, binding{index: i, value: v})
}

func (b *binder) bindName(name string, v Value) {
	for k := range b.staged {
		if b.staged[k].name == name {
			b.staged[k].value = v
			return
		}
	}
	b.staged = append(b.staged, binding{name: name, value: v})
}

func (b *binder) len() int { return len(b.staged) }

func (b *binder) clear() { b.staged = b.staged[:0] }

// slot resolves where binding k goes in s; 0 means s has no
// such parameter. Bare names are tried with each prefix.
func (b *binder) slot(s *sqlStatement, k int) int {
	bd := b.staged[k]
	if bd.name == "" {
		if bd.index < 1 || bd.index > s.sqlBindParameterCount() {
			return 0
		}
		return bd.index
	}
	if strings.ContainsAny(bd.name[:1], ":@$?") {
		return s.sqlBindParameterIndex(bd.name)
	}
	for _, prefix := range []string{":", "@", "$"} {
		if i := s.sqlBindParameterIndex(prefix + bd.name); i > 0 {
			return i
		}
	}
	return 0
}

// apply binds every staged value that has a slot in s and
// marks it in used. Nothing is bound when two values land in
// the same slot, which happens to "?N" and the N-th name.
func (b *binder) apply(c *Connection, s *sqlStatement, used []bool) error {
	var errs []error
	slots := make([]int, len(b.staged))
	owner := make(map[int]int, len(b.staged))
	for k, bd := range b.staged {
		i := b.slot(s, k)
		slots[k] = i
		if i == 0 {
			continue
		}
		if j, ok := owner[i]; ok {
			errs = append(errs, fmt.Errorf("%w: %s and %s share slot %d", ErrParameterConflict, b.staged[j], bd, i))
			continue
		}
		owner[i] = k
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	for k, bd := range b.staged {
		if slots[k] == 0 {
			continue
		}
		if rc := bindValue(s, slots[k], bd.value); rc != StatusOk {
			return c.error("bind "+bd.String(), rc)
		}
		used[k] = true
	}
	return nil
}

// unknown reports every binding not marked in used. With s
// the message lists the parameters s does have.
func (b *binder) unknown(used []bool, s *sqlStatement) error {
	var errs []error
	for k, bd := range b.staged {
		if used[k] {
			continue
		}
		if s == nil {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownParameter, bd))
			continue
		}
		errs = append(errs, fmt.Errorf("%w: %s not in [%s]", ErrUnknownParameter, bd, parameters(s)))
	}
	return errors.Join(errs...)
}

// parameters lists the parameters of s as SQLite names them;
// a bare "?" has no name and shows as "?N".
func parameters(s *sqlStatement) string {
	n := s.sqlBindParameterCount()
	names := make([]string, n)
	for i := range n {
		names[i] = s.sqlBindParameterName(i + 1)
		if names[i] == "" {
			names[i] = "?" + strconv.Itoa(i+1)
		}
	}
	return strings.Join(names, " ")
}

func bindValue(s *sqlStatement, i int, v Value) int {
	switch v.kind {
	case KindInteger:
		return s.sqlBindInt64(i, v.i)
	case KindReal:
		return s.sqlBindDouble(i, v.f)
	case KindText:
		return s.sqlBindText(i, v.s)
	case KindBlob:
		return s.sqlBindBlob(i, v.b)
	}
	return s.sqlBindNull(i)
}
