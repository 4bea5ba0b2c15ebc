// Package tarmac serves the "sql" capability of Tarmac WebAssembly
// functions from an SQLite connection.
//
// A Tarmac guest reaches the database through a waPC host call
// (namespace, capability, function, payload). Handler.HostCall has
// that signature, so it can be registered with a waPC host or handed
// straight to a guest SQL client as its HostCall in tests.
//
// The "exec" function takes an SQLExec message and answers with an
// SQLExecResponse carrying the last insert id and the number of rows
// affected. The "query" function takes an SQLQuery message and
// answers with an SQLQueryResponse holding the column names and the
// rows as a JSON array of objects keyed by column name.
//
// Every response carries a status: 200 on success, 400 for an empty
// query or a payload that does not decode, 404 for an unknown
// function, and 500 when SQLite fails. Failures are returned as an
// error as well as in the response. A call for another namespace or
// capability is not answered at all: HostCall returns only the error.
package tarmac
