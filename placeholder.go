// Copyright 2009 Peter H. Froehlich. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

import "strconv"

// placeholder is one parameter token found in SQL text.
type placeholder struct {
	Token  string // as written: "?", "?3", ":name"
	Index  int    // slot SQLite assigns to it
	Offset int    // byte offset of the token
}

// scanPlaceholders finds the parameters in sql and numbers
// them the way SQLite does: "?" takes the largest index seen
// so far plus one, "?N" takes N, a name takes the next index
// on first sight and keeps it afterwards. String literals,
// quoted identifiers and comments are skipped.
func scanPlaceholders(sql string) []placeholder {
	var (
		found []placeholder
		names = make(map[string]int)
		top   int
	)
	for i := 0; i < len(sql); {
		c := sql[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(sql, i, c)
		case c == '[':
			i = skipUntil(sql, i+1, "]")
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			i = skipUntil(sql, i+2, "\n")
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			i = skipUntil(sql, i+2, "*/")
		case c == '?':
			j := i + 1
			for j < len(sql) && isDigit(sql[j]) {
				j++
			}
			p := placeholder{Token: sql[i:j], Offset: i}
			if j == i+1 {
				top++
				p.Index = top
			} else {
				n, err := strconv.Atoi(sql[i+1 : j])
				if err != nil || n < 1 {
					// SQLite refuses these at prepare time
					i = j
					continue
				}
				if prev, ok := names[p.Token]; ok {
					n = prev
				}
				names[p.Token] = n
				p.Index = n
				if n > top {
					top = n
				}
			}
			found = append(found, p)
			i = j
		case c == ':' || c == '@' || c == '$':
			j := scanName(sql, i)
			if j == i+1 {
				i = j
				continue
			}
			p := placeholder{Token: sql[i:j], Offset: i}
			if prev, ok := names[p.Token]; ok {
				p.Index = prev
			} else {
				top++
				p.Index = top
				names[p.Token] = top
			}
			found = append(found, p)
			i = j
		case isIdentStart(c) || isDigit(c):
			// identifiers and numbers may contain '$'
			j := i + 1
			for j < len(sql) && isIdent(sql[j]) {
				j++
			}
			i = j
		default:
			i++
		}
	}
	return found
}

// nextSlot is the index SQLite gives a "?" appended to sql.
func nextSlot(sql string) int {
	top := 0
	for _, p := range scanPlaceholders(sql) {
		if p.Index > top {
			top = p.Index
		}
	}
	return top + 1
}

// skipQuoted returns the offset just past the literal that
// opens at i; a doubled quote character escapes itself.
func skipQuoted(sql string, i int, q byte) int {
	for j := i + 1; j < len(sql); j++ {
		if sql[j] == q {
			if j+1 < len(sql) && sql[j+1] == q {
				j++
				continue
			}
			return j + 1
		}
	}
	return len(sql)
}

func skipUntil(sql string, i int, end string) int {
	for j := i; j+len(end) <= len(sql); j++ {
		if sql[j:j+len(end)] == end {
			return j + len(end)
		}
	}
	return len(sql)
}

// scanName returns the end of the named parameter opening
// at i. "$" names also take "::" segments and a trailing
// "(...)" suffix.
func scanName(sql string, i int) int {
	j := i + 1
	tcl := sql[i] == '$'
	for j < len(sql) {
		switch {
		case isIdent(sql[j]):
			j++
		case tcl && sql[j] == ':' && j+1 < len(sql) && sql[j+1] == ':':
			j += 2
		case tcl && sql[j] == '(' && j > i+1:
			k := j + 1
			for k < len(sql) && sql[k] != ')' && !isSpace(sql[k]) {
				k++
			}
			if k < len(sql) && sql[k] == ')' {
				return k + 1
			}
			return j
		default:
			return j
		}
	}
	return j
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c >= 0x80
}

func isIdent(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '$'
}
