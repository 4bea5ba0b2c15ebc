// Copyright 2009 Peter H. Froehlich. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

import (
	"errors"
	"strconv"
)

// TxMode selects how BEGIN takes its locks.
type TxMode int

const (
	Deferred TxMode = iota
	Immediate
	Exclusive
)

func (m TxMode) String() string {
	switch m {
	case Deferred:
		return "DEFERRED"
	case Immediate:
		return "IMMEDIATE"
	case Exclusive:
		return "EXCLUSIVE"
	}
	return "TxMode(" + strconv.Itoa(int(m)) + ")"
}

// TxState is the state of a Transaction guard.
type TxState int

const (
	NotStarted TxState = iota
	Active
	Settled
)

func (s TxState) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Active:
		return "active"
	case Settled:
		return "settled"
	}
	return "TxState(" + strconv.Itoa(int(s)) + ")"
}

// Transaction guards one transaction at a time on a
// connection. Close rolls back whatever was not committed,
// so the usual pattern is
//
//	tx, err := sqlite3.Begin(conn, sqlite3.Deferred)
//	if err != nil {
//		return err
//	}
//	defer tx.Close()
//	...
//	return tx.Commit()
//
// After Commit or Rollback the same guard may Begin again.
type Transaction struct {
	conn  *Connection
	mode  TxMode
	state TxState
}

// Begin starts a transaction on conn.
func Begin(conn *Connection, mode TxMode) (*Transaction, error) {
	tx := &Transaction{conn: conn, mode: mode}
	if err := tx.Begin(); err != nil {
		return nil, err
	}
	return tx, nil
}

// State reports whether the guard holds an open transaction.
func (tx *Transaction) State() TxState { return tx.state }

// Begin starts a new transaction unless one is already active.
func (tx *Transaction) Begin() error {
	if tx.state == Active {
		return nil
	}
	if err := tx.conn.Exec("BEGIN " + tx.mode.String()); err != nil {
		return err
	}
	tx.state = Active
	return nil
}

// Commit makes the changes permanent.
func (tx *Transaction) Commit() error {
	return tx.settle("COMMIT")
}

// Rollback discards the changes.
func (tx *Transaction) Rollback() error {
	return tx.settle("ROLLBACK")
}

func (tx *Transaction) settle(verb string) error {
	if tx.state != Active {
		tx.conn.logger.Error("sqlite3: "+verb+" without transaction", "state", tx.state.String())
		return invalidState(verb, tx.state)
	}
	err := tx.conn.Exec(verb)
	// a failed COMMIT (SQLITE_BUSY) leaves the transaction
	// open and may be retried
	if err == nil || !tx.conn.InTransaction() {
		tx.state = Settled
	}
	return err
}

// Close rolls back an active transaction. A failing rollback
// is logged, not returned.
func (tx *Transaction) Close() {
	if tx.state != Active {
		return
	}
	if err := tx.Rollback(); err != nil {
		tx.conn.logger.Warn("sqlite3: implicit rollback failed", "err", err)
		tx.state = Settled
	}
}

// Transact runs fn inside a deferred transaction. It commits
// when fn returns nil and rolls back when fn fails or panics,
// or when the commit itself fails.
func (c *Connection) Transact(fn func() error) error {
	tx, err := c.Begin()
	if err != nil {
		return err
	}
	defer tx.Close()

	if err = fn(); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	return tx.Commit()
}
