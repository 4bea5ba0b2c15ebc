// Copyright 2009 Peter H. Froehlich. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3_test

import (
	"bytes"
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	sqlite3 "github.com/strogo/go-sqlite3"
)

var _ = Describe("Cursor protocol", func() {
	var (
		conn *sqlite3.Connection
		logs *bytes.Buffer
		q    *sqlite3.Statement
	)

	BeforeEach(func() {
		logs = new(bytes.Buffer)
		logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

		var err error
		conn, err = sqlite3.Open(":memory:", sqlite3.WithLogger(logger))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(conn.Close)

		Expect(conn.Exec(`CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT);
			INSERT INTO test (name) VALUES ('a'), ('b'), ('c');`)).To(Succeed())
		q = conn.Query()
	})

	names := func(rows []sqlite3.Row) []string {
		var out []string
		for _, r := range rows {
			f, err := r.Column("name")
			Expect(err).NotTo(HaveOccurred())
			s, err := f.AsText()
			Expect(err).NotTo(HaveOccurred())
			out = append(out, s)
		}
		return out
	}

	Describe("Use and UseNext", func() {
		It("walks every row and then keeps returning the empty Row", func() {
			var rows []sqlite3.Row
			row, err := q.Append("SELECT name FROM test ORDER BY id").Use()
			for ; err == nil && !row.Empty(); row, err = q.UseNext() {
				Expect(q.State()).To(Equal(sqlite3.Stepping))
				rows = append(rows, row)
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(names(rows)).To(Equal([]string{"a", "b", "c"}))
			Expect(q.State()).To(Equal(sqlite3.Exhausted))

			for range 3 {
				row, err = q.UseNext()
				Expect(err).NotTo(HaveOccurred())
				Expect(row.Empty()).To(BeTrue())
			}

			Expect(q.UseAbort()).To(Succeed())
			Expect(q.State()).To(Equal(sqlite3.Idle))
		})

		It("returns the empty Row at once for an empty result", func() {
			row, err := q.Append("SELECT * FROM test WHERE id > 100").Use()
			Expect(err).NotTo(HaveOccurred())
			Expect(row.Empty()).To(BeTrue())
			Expect(row.Len()).To(Equal(0))
			Expect(q.State()).To(Equal(sqlite3.Exhausted))
		})

		It("runs the same text again after the results are exhausted", func() {
			q.Append("SELECT name FROM test WHERE id = ?").AppendParameter(sqlite3.Int(2))
			row, err := q.Use()
			Expect(err).NotTo(HaveOccurred())
			Expect(names([]sqlite3.Row{row})).To(Equal([]string{"b"}))
			row, err = q.UseNext()
			Expect(err).NotTo(HaveOccurred())
			Expect(row.Empty()).To(BeTrue())

			// the appended parameter stays with the text
			rs, err := q.Store()
			Expect(err).NotTo(HaveOccurred())
			Expect(rs.Len()).To(Equal(1))
			row, err = rs.Row(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(names([]sqlite3.Row{row})).To(Equal([]string{"b"}))
		})

		It("refuses UseNext before Use, loudly", func() {
			_, err := q.UseNext()
			Expect(err).To(MatchError(sqlite3.ErrInvalidState))
			Expect(logs.String()).To(ContainSubstring("level=ERROR"))
		})

		It("reports step failures and goes back to Idle", func() {
			_, err := q.Append("SELECT abs(-9223372036854775807 - 1)").Use()
			Expect(err).To(MatchError(sqlite3.ErrEngine))
			Expect(q.State()).To(Equal(sqlite3.Idle))
		})
	})

	Describe("UseAbort", func() {
		It("is a no-op from Idle", func() {
			Expect(q.UseAbort()).To(Succeed())
			Expect(q.State()).To(Equal(sqlite3.Idle))
		})

		It("releases a cursor that stopped early", func() {
			q.Append("SELECT name FROM test")
			_, err := q.Use()
			Expect(err).NotTo(HaveOccurred())

			err = conn.Exec("DROP TABLE test")
			var se *sqlite3.SystemError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Code()).To(Equal(sqlite3.StatusLocked))

			Expect(q.UseAbort()).To(Succeed())
			Expect(q.State()).To(Equal(sqlite3.Idle))
			Expect(conn.Exec("DROP TABLE test")).To(Succeed())
		})
	})

	Describe("running while stepping", func() {
		BeforeEach(func() {
			_, err := q.Append("SELECT name FROM test").Use()
			Expect(err).NotTo(HaveOccurred())
			logs.Reset()
		})

		It("fails Exec, Store and Use with ErrInvalidState", func() {
			Expect(q.Exec()).To(MatchError(sqlite3.ErrInvalidState))
			_, err := q.Store()
			Expect(err).To(MatchError(sqlite3.ErrInvalidState))
			_, err = q.Use()
			Expect(err).To(MatchError(sqlite3.ErrInvalidState))
			Expect(logs.String()).To(ContainSubstring("level=ERROR"))

			// the open cursor is still usable
			Expect(q.State()).To(Equal(sqlite3.Stepping))
			row, err := q.UseNext()
			Expect(err).NotTo(HaveOccurred())
			Expect(row.Empty()).To(BeFalse())
		})

		It("reports Close as a protocol violation but releases anyway", func() {
			Expect(q.Close()).To(MatchError(sqlite3.ErrInvalidState))
			Expect(q.State()).To(Equal(sqlite3.Idle))
			Expect(conn.Exec("DROP TABLE test")).To(Succeed())
		})

		It("releases the cursor when new text replaces the old", func() {
			rs, err := q.StoreSQL("SELECT count(*) FROM test")
			Expect(err).NotTo(HaveOccurred())
			Expect(rs.Len()).To(Equal(1))
			Expect(logs.String()).To(ContainSubstring("cursor released without UseAbort"))
		})
	})

	Describe("Cursor", func() {
		It("walks the rows and releases the statement on Close", func() {
			c := q.Append("SELECT name FROM test ORDER BY id").Cursor()
			var rows []sqlite3.Row
			for c.Next() {
				rows = append(rows, c.Row())
			}
			Expect(c.Err()).NotTo(HaveOccurred())
			Expect(c.Close()).To(Succeed())
			Expect(c.Close()).To(Succeed())
			Expect(names(rows)).To(Equal([]string{"a", "b", "c"}))
			Expect(q.State()).To(Equal(sqlite3.Idle))
		})

		It("releases the statement when closed early", func() {
			c := q.Append("SELECT name FROM test").Cursor()
			Expect(c.Next()).To(BeTrue())
			Expect(c.Close()).To(Succeed())
			Expect(c.Next()).To(BeFalse())
			Expect(q.State()).To(Equal(sqlite3.Idle))
			Expect(conn.Exec("DROP TABLE test")).To(Succeed())
		})

		It("does not release a cursor it does not own", func() {
			_, err := q.Append("SELECT name FROM test").Use()
			Expect(err).NotTo(HaveOccurred())

			c := q.Cursor()
			Expect(c.Next()).To(BeFalse())
			Expect(c.Err()).To(MatchError(sqlite3.ErrInvalidState))
			Expect(c.Close()).To(Succeed())
			Expect(q.State()).To(Equal(sqlite3.Stepping))
			Expect(q.UseAbort()).To(Succeed())
		})
	})

	Describe("closing the connection under an open cursor", func() {
		BeforeEach(func() {
			_, err := q.Append("SELECT name FROM test ORDER BY id").Use()
			Expect(err).NotTo(HaveOccurred())
		})

		It("releases the cursor first", func() {
			Expect(conn.Close()).To(Succeed())
			Expect(logs.String()).To(ContainSubstring("cursor released by Close"))
			Expect(q.State()).To(Equal(sqlite3.Idle))

			Expect(func() { Expect(q.UseAbort()).To(Succeed()) }).NotTo(Panic())
			_, err := q.UseNext()
			Expect(err).To(MatchError(sqlite3.ErrInvalidState))
			Expect(q.Exec()).To(MatchError(sqlite3.ErrClosed))
			Expect(q.Close()).To(Succeed())
		})

		It("leaves nothing for Cursor.Close and Rows to do", func() {
			Expect(q.UseAbort()).To(Succeed())

			c := q.Cursor()
			Expect(c.Next()).To(BeTrue())
			Expect(conn.Close()).To(Succeed())
			Expect(func() { Expect(c.Close()).To(Succeed()) }).NotTo(Panic())
			Expect(q.State()).To(Equal(sqlite3.Idle))
		})
	})

	Describe("Rows", func() {
		It("aborts on break", func() {
			q.Append("SELECT name FROM test ORDER BY id")
			var seen []sqlite3.Row
			for row, err := range q.Rows() {
				Expect(err).NotTo(HaveOccurred())
				seen = append(seen, row)
				break
			}
			Expect(names(seen)).To(Equal([]string{"a"}))
			Expect(q.State()).To(Equal(sqlite3.Idle))
			Expect(conn.Exec("DROP TABLE test")).To(Succeed())
		})

		It("ends with the error that stopped it", func() {
			q.Append("SELECT abs(-9223372036854775807 - 1)")
			var errs []error
			for _, err := range q.Rows() {
				errs = append(errs, err)
			}
			Expect(errs).To(HaveLen(1))
			Expect(errs[0]).To(MatchError(sqlite3.ErrEngine))
		})
	})
})
