// Copyright 2009 Peter H. Froehlich. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FlagsURL() is a helper to turn the various OpenXYZ option
// flags into the "flags=123456789" notation accepted by the
// URL passed to Open(). It's a shame that we have to go
// from int to string and back to int, but thus is the
// price of generality.
func FlagsURL(options int) string { return fmt.Sprintf("flags=%d", options) }

// connInfo is everything Open() understands about a
// connection, parsed from its URL.
type connInfo struct {
	name        string
	flags       int
	vfs         string
	busyTimeout time.Duration
}

// parseConnInfo accepts a plain file name (including the
// special ":memory:"), or "sqlite3:name?flags=N&vfs=V&busy_timeout=MS".
// SQLite "file:" URIs are passed through untouched and get
// OpenURI added to their flags.
func parseConnInfo(str string) (info connInfo, err error) {
	info.flags = OpenReadWrite | OpenCreate
	info.busyTimeout = defaultTimeout

	rest := str
	uri := false
	switch {
	case strings.HasPrefix(str, "sqlite3:"):
		rest = strings.TrimPrefix(str, "sqlite3:")
		rest = strings.TrimPrefix(rest, "//")
	case strings.HasPrefix(str, "file:"):
		uri = true
	}

	name, query, _ := strings.Cut(rest, "?")
	if uri {
		name = str
		query = ""
	}
	if len(name) == 0 {
		return info, fmt.Errorf("sqlite3: Open: no path or database name in %q", str)
	}
	info.name = name

	if len(query) > 0 {
		options, e := url.ParseQuery(query)
		if e != nil {
			return info, fmt.Errorf("sqlite3: Open: bad options %q: %w", query, e)
		}
		if rflags := options.Get("flags"); rflags != "" {
			info.flags, err = strconv.Atoi(rflags)
			if err != nil {
				return info, fmt.Errorf("sqlite3: Open: bad flags %q: %w", rflags, err)
			}
		}
		info.vfs = options.Get("vfs")
		if rt := options.Get("busy_timeout"); rt != "" {
			ms, e := strconv.Atoi(rt)
			if e != nil || ms < 0 {
				return info, fmt.Errorf("sqlite3: Open: bad busy_timeout %q", rt)
			}
			info.busyTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	if uri {
		info.flags |= OpenURI
	}

	// We want all connections to be in serialized threading
	// mode, so we fiddle with the flags to make sure.
	info.flags &^= OpenNoMutex
	info.flags |= OpenFullMutex
	return info, nil
}
