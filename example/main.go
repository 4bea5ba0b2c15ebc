// Copyright 2009 Peter H. Froehlich. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	sqlite3 "github.com/strogo/go-sqlite3"
)

// defines the test database - here in memory
const testDB = ":memory:"

func check(what string, e error) {
	if e != nil {
		fmt.Printf("test - %s: error: %s\n", what, e)
		return
	}
	fmt.Printf("test - %s: ok\n", what)
}

func printRow(row sqlite3.Row) {
	var b strings.Builder
	for _, f := range row.Fields() {
		if !f.IsNull() {
			b.WriteString(f.String())
			b.WriteString(" |")
		}
	}
	fmt.Println(b.String())
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	db, e := sqlite3.Open(testDB, sqlite3.WithLogger(logger))
	if e != nil {
		fmt.Printf("error: %s\n", e)
		os.Exit(1)
	}
	defer db.Close()

	for k, v := range sqlite3.Version() {
		fmt.Printf("version[%s] == %s\n", k, v)
	}

	// fails on a fresh database, which is fine
	qc := db.Query("DROP TABLE test;")
	check("query ctor", qc.Exec())

	q := db.Query("THIS QUERY SHOULD GET DISCARDED")
	check("query exec", q.ExecSQL("CREATE TABLE test (id INTEGER PRIMARY KEY NOT NULL, num INTEGER, name VARCHAR(20), flo FLOAT, data BLOB, comment TEXT);"))

	// insert BLOB via bind
	blob := make([]byte, 30)
	for i := range blob {
		blob[i] = byte(i)
	}
	q.Bind(1, blob)
	check("insert BLOB via bind", q.ExecSQL("INSERT INTO test (data) VALUES (?1)"))
	fmt.Printf("test - id: %d\n", q.InsertID())

	// insert BLOB as an appended parameter
	q.Append("INSERT INTO test (data) VALUES (").AppendParameter(sqlite3.Blob(blob)).Append(")")
	check("insert BLOB via parameter", q.Exec())
	fmt.Printf("test - id: %d\n", q.InsertID())

	// insert text, use alpha index
	q.Append("INSERT INTO test (comment) VALUES (@com)")
	q.BindName("@com", "Test")
	check("insert TEXT via alpha bind", q.Exec())
	fmt.Printf("test - id: %d\n", q.InsertID())

	// bind multiple values
	q.Append("INSERT INTO test(name, data, comment) VALUES ('Test',?,?)")
	v := []byte(strings.Repeat("\x55", 10))
	q.Bind(1, v).Bind(2, "A test text")
	check("insert multiple binds", q.Exec())
	fmt.Printf("test - id: %d\n", q.InsertID())

	// insert discrete values
	q.Add("INSERT INTO test (num, flo) VALUES(").Add(1000).Add(",").Add(float32(3.1415)).Add(")")
	check("insert", q.Exec())
	fmt.Printf("test - id: %d\n", q.InsertID())

	// store a string in UTF-8
	q.Add("INSERT INTO test(id, name) VALUES (13,").AppendParameter(sqlite3.Text("Schöne Grüße")).Add(")")
	check("insert", q.Exec())
	fmt.Printf("test - id: %d, affected rows: %d\n", q.InsertID(), q.AffectedRows())

	// query assembly
	q.Add("UPDATE test SET num=")
	q.Add(10)
	q.Add(" WHERE id=2")
	check("update", q.Exec())
	fmt.Printf("test - affected rows: %d\n", q.AffectedRows())

	// database defragmentation (e.g. after excessive deletes etc.)
	check("defragmentation", db.Vacuum())

	// access results
	q.Append("SELECT * FROM test")
	res, e := q.Store()
	check("store", e)
	if e == nil {
		fmt.Printf("test - result: Got %d rows\n", res.NumRows())

		// access of single fields
		if row, err := res.Row(1); err == nil {
			f, _ := row.Column("num")
			a, err := f.AsInteger()
			fmt.Printf("test - row 1 num: %d %v\n", a, err)
		}
		if row, err := res.Row(0); err == nil {
			f, _ := row.Column("num")
			fmt.Printf("test - row 0 num is NULL: %t\n", f.IsNull())
			f, _ = row.Field(4)
			data, err := f.AsBlob()
			fmt.Printf("test - row 0 data: % x %v\n", data, err)
		}
		if row, err := res.Row(2); err == nil {
			f, _ := row.Column("comment")
			text, err := f.AsText()
			fmt.Printf("test - row 2 comment: %q %v\n", text, err)
		}

		// show all results which are not NULL
		for _, row := range res.All() {
			printRow(row)
		}
	}

	// same, but access row by row
	q.Append("SELECT * FROM test")
	row, e := q.Use()
	for e == nil && !row.Empty() {
		printRow(row)
		row, e = q.UseNext()
	}
	check("use", e)

	// evaluate the first row only
	q.Append("SELECT * FROM test")
	_, e = q.Use()
	check("use first row", e)
	check("use abort", q.UseAbort()) // this is important - don't forget!

	// or let the iterator do the abort
	for row, err := range q.Append("SELECT name FROM test WHERE name IS NOT NULL").Rows() {
		if err != nil {
			check("rows", err)
			break
		}
		printRow(row)
		break
	}

	// start a transaction (implicit begin)
	tr, e := db.Begin()
	check("begin", e)
	if e != nil {
		return
	}
	check("insert in transaction", q.ExecSQL("INSERT INTO test(name) VALUES ('Marco')"))
	check("commit", tr.Commit())

	check("begin again", tr.Begin())
	check("insert in transaction", q.ExecSQL("INSERT INTO test(name) VALUES ('I''m not stored')"))
	check("rollback", tr.Rollback())

	func() {
		tr2, e := sqlite3.Begin(db, sqlite3.Deferred) // implicit begin
		check("begin", e)
		if e != nil {
			return
		}
		defer tr2.Close() // implicit rollback when we return
		check("insert in transaction", q.ExecSQL("INSERT INTO test(name) VALUES ('I''m not stored either')"))
	}()

	res, e = q.StoreSQL("SELECT name FROM test WHERE name IS NOT NULL")
	check("store names", e)
	if e == nil {
		for _, row := range res.All() {
			printRow(row)
		}
	}
}
