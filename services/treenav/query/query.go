// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package query selects nodes with tree-sitter queries.
//
// A Query is a compiled tree-sitter pattern plus the set of capture names
// whose nodes are of interest. Running it over a forest yields a Batch of
// captures, and a Batch can stand in for a node type table during
// navigation: a node is accepted when it is part of one of the captures.
//
// Example:
//
//	q, err := query.Compile(grammar, `(function_call) @call`, query.Captures("call"))
//	if err != nil {
//	    return err
//	}
//	defer q.Close()
//	batch, err := query.Run(ctx, q, forest, query.After(cursor))
//	opts.Matcher = batch
package query

import (
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/treenav/services/treenav/enabler"
	"github.com/AleutianAI/treenav/services/treenav/tsitter"
)

var (
	// ErrInvalidQuery indicates a query source that does not compile for
	// the grammar.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrUnknownCapture indicates an explicitly configured capture name
	// that the query does not define.
	ErrUnknownCapture = errors.New("unknown capture name")

	// ErrNoCaptures indicates a query whose capture set accepts none of
	// its captures.
	ErrNoCaptures = errors.New("no accepted captures")
)

// CaptureDetector flags capture keys that are glob patterns. Capture names
// routinely contain dots ("function.outer"), so only glob metacharacters
// make a key a pattern.
func CaptureDetector(key string) bool {
	return strings.ContainsAny(key, "*?[{")
}

// Captures returns a set accepting exactly the named captures. Names may
// be glob patterns such as "function.*".
func Captures(names ...string) *enabler.Set {
	def := false
	s, err := enabler.Raw{Default: &def, Keys: names}.Activate(enabler.WithDetector(CaptureDetector))
	if err != nil {
		panic(err)
	}
	return s
}

// Query is a compiled tree-sitter query and its capture acceptance table.
//
// Thread Safety:
//
//	A Query may be run from several goroutines at once; each run uses its
//	own cursor.
type Query struct {
	lang     string
	source   string
	q        *sitter.Query
	names    []string
	accepted []bool
}

// Compile compiles source for g and resolves which captures are accepted.
//
// Description:
//
//	Every capture the query defines is tested against captures. Exact
//	keys of captures, with either polarity, must name a capture the query
//	defines. A nil set accepts every capture.
//
// Outputs:
//
//	*Query - The compiled query. The caller must Close it.
//	error  - ErrInvalidQuery, ErrUnknownCapture or ErrNoCaptures, wrapped.
func Compile(g tsitter.Grammar, source string, captures *enabler.Set) (*Query, error) {
	if g.Language == nil {
		return nil, fmt.Errorf("%w: grammar %q has no language", ErrInvalidQuery, g.Name)
	}
	q, err := sitter.NewQuery([]byte(source), g.Language)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrInvalidQuery, g.Name, err)
	}

	count := int(q.CaptureCount())
	names := make([]string, count)
	known := make(map[string]bool, count)
	for i := range names {
		names[i] = q.CaptureNameForId(uint32(i))
		known[names[i]] = true
	}

	for _, polarity := range []bool{true, false} {
		for _, name := range captures.Explicit(polarity) {
			if !known[name] {
				q.Close()
				return nil, fmt.Errorf("%w: %q not defined by the %s query", ErrUnknownCapture, name, g.Name)
			}
		}
	}

	accepted := make([]bool, count)
	some := false
	for i, name := range names {
		accepted[i] = captures.Get(name)
		some = some || accepted[i]
	}
	if !some {
		q.Close()
		return nil, fmt.Errorf("%w: %s query defines %v", ErrNoCaptures, g.Name, names)
	}

	return &Query{lang: g.Name, source: source, q: q, names: names, accepted: accepted}, nil
}

// Lang returns the canonical name of the query's language.
func (q *Query) Lang() string { return q.lang }

// Source returns the query text.
func (q *Query) Source() string { return q.source }

// Names returns every capture name the query defines, in capture id order.
func (q *Query) Names() []string {
	out := make([]string, len(q.names))
	copy(out, q.names)
	return out
}

// Accepted returns the accepted capture names, in capture id order.
func (q *Query) Accepted() []string {
	var out []string
	for i, name := range q.names {
		if q.accepted[i] {
			out = append(out, name)
		}
	}
	return out
}

// Close releases the compiled query.
func (q *Query) Close() {
	if q.q != nil {
		q.q.Close()
		q.q = nil
	}
}
