// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/treenav/services/treenav/enabler"
	"github.com/AleutianAI/treenav/services/treenav/engine"
	"github.com/AleutianAI/treenav/services/treenav/textrange"
	"github.com/AleutianAI/treenav/services/treenav/tsitter"
)

const goSource = `package main

// greet says hello.
// It is polite.
func greet(name string) string {
	return "hello " + name
}

func main() {
	greet("a")
}
`

const funcQuery = `(function_declaration name: (identifier) @func.name) @func`

func grammar(t *testing.T, lang string) tsitter.Grammar {
	t.Helper()
	g, ok := tsitter.DefaultRegistry().Lookup(lang)
	require.True(t, ok)
	return g
}

func forest(t *testing.T, src, lang string) *tsitter.Tree {
	t.Helper()
	f, err := tsitter.NewBuilder().Build(context.Background(), []byte(src), lang)
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return f
}

func compile(t *testing.T, source string, captures *enabler.Set) *Query {
	t.Helper()
	q, err := Compile(grammar(t, "go"), source, captures)
	require.NoError(t, err)
	t.Cleanup(q.Close)
	return q
}

func TestCompile(t *testing.T) {
	q := compile(t, funcQuery, Captures("func"))

	assert.Equal(t, "go", q.Lang())
	assert.Equal(t, funcQuery, q.Source())
	assert.ElementsMatch(t, []string{"func", "func.name"}, q.Names())
	assert.Equal(t, []string{"func"}, q.Accepted())

	all := compile(t, funcQuery, nil)
	assert.Len(t, all.Accepted(), 2)

	pattern := compile(t, funcQuery, Captures("func.*"))
	assert.Equal(t, []string{"func.name"}, pattern.Accepted())
}

func TestCompile_Errors(t *testing.T) {
	g := grammar(t, "go")

	tests := []struct {
		name     string
		source   string
		captures *enabler.Set
		want     error
	}{
		{"unknown capture", funcQuery, Captures("fn"), ErrUnknownCapture},
		{"unknown rejected capture", funcQuery, enabler.Except("fn"), ErrUnknownCapture},
		{"unknown node type", `(no_such_node) @x`, nil, ErrInvalidQuery},
		{"syntax error", `(function_declaration`, nil, ErrInvalidQuery},
		{"nothing accepted", funcQuery, enabler.None(), ErrNoCaptures},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Compile(g, tt.source, tt.captures)
			assert.Nil(t, q)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := Compile(tsitter.Grammar{Name: "broken"}, funcQuery, nil)
	assert.True(t, errors.Is(err, ErrInvalidQuery))
}

func TestRun(t *testing.T) {
	f := forest(t, goSource, "go")
	q := compile(t, funcQuery, Captures("func"))

	b, err := Run(context.Background(), q, f, nil)
	require.NoError(t, err)
	require.Equal(t, 2, b.Len())

	greet, main := b.Captures()[0], b.Captures()[1]
	assert.Equal(t, "func", greet.Name)
	assert.Equal(t, textrange.New(4, 0, 6, 1), greet.Range)
	assert.Equal(t, 8, main.Range.Start.Row)
	require.Len(t, greet.Nodes, 1)
	assert.Equal(t, "function_declaration", greet.Nodes[0].Type())

	pos := greet.Position()
	assert.True(t, b.Accept(pos))
	assert.Equal(t, "go", pos.Lang())

	name := engine.At(f.NodeForRange(textrange.New(4, 5, 4, 10)), f)
	assert.Equal(t, "identifier", name.Type())
	assert.False(t, b.Accept(name), "func.name is not accepted")
	assert.False(t, b.Accept(engine.Position{}))
}

func TestRun_Predicates(t *testing.T) {
	f := forest(t, goSource, "go")
	q := compile(t, funcQuery, Captures("func"))
	split := textrange.Point{Row: 7, Column: 0}

	tests := []struct {
		name    string
		pred    Predicate
		wantRow []int
	}{
		{"after", After(split), []int{8}},
		{"before", Before(split), []int{4}},
		{"contained by", ContainedBy(textrange.New(8, 0, 11, 0)), []int{8}},
		{"contained by nothing", ContainedBy(textrange.New(5, 0, 6, 0)), nil},
		{"intersects", Intersects(textrange.New(5, 0, 5, 1)), []int{4}},
		{"intersects both", Intersects(textrange.New(6, 0, 9, 0)), []int{4, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Run(context.Background(), q, f, tt.pred)
			require.NoError(t, err)
			var rows []int
			for _, c := range b.Captures() {
				rows = append(rows, c.Range.Start.Row)
			}
			assert.Equal(t, tt.wantRow, rows)
		})
	}
}

func TestRun_TextPredicate(t *testing.T) {
	f := forest(t, goSource, "go")
	q := compile(t, `((identifier) @id (#eq? @id "greet"))`, nil)

	b, err := Run(context.Background(), q, f, nil)
	require.NoError(t, err)
	require.Equal(t, 2, b.Len())
	for _, c := range b.Captures() {
		assert.Equal(t, "greet", f.Text(c.Nodes[0]))
	}
	assert.Equal(t, 4, b.Captures()[0].Range.Start.Row)
	assert.Equal(t, 9, b.Captures()[1].Range.Start.Row)
}

func TestRun_MultiNodeCapture(t *testing.T) {
	f := forest(t, goSource, "go")
	q := compile(t, `((comment)+ @doc)`, nil)

	b, err := Run(context.Background(), q, f, nil)
	require.NoError(t, err)

	var widest Capture
	for _, c := range b.Captures() {
		if len(c.Nodes) > len(widest.Nodes) {
			widest = c
		}
	}
	require.Len(t, widest.Nodes, 2)
	assert.Equal(t, textrange.New(2, 0, 3, 16), widest.Range, "span runs from the first node to the last")

	second := engine.At(widest.Nodes[1], f)
	assert.True(t, b.Accept(second), "every node of a capture is accepted")
}

func TestRun_InjectedTrees(t *testing.T) {
	md := "Intro.\n\n```go\nfunc a() {}\n```\n\n```lua\nprint(1)\n```\n"
	f := forest(t, md, "markdown")
	q := compile(t, `(function_declaration) @func`, nil)

	b, err := Run(context.Background(), q, f, nil)
	require.NoError(t, err)
	require.Equal(t, 1, b.Len())

	c := b.Captures()[0]
	assert.Equal(t, "go", c.Tree.Lang())
	assert.Equal(t, 3, c.Range.Start.Row)

	host := engine.At(f.NodeForRange(c.Range), f)
	assert.Equal(t, "markdown", host.Lang())
	assert.False(t, b.Accept(host), "acceptance is per tree")
}

func TestRun_Canceled(t *testing.T) {
	f := forest(t, goSource, "go")
	q := compile(t, funcQuery, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, q, f, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBatch_AsMatcher(t *testing.T) {
	f := forest(t, goSource, "go")
	q := compile(t, funcQuery, Captures("func"))
	b, err := Run(context.Background(), q, f, nil)
	require.NoError(t, err)

	nav := engine.NewNavigator(f)
	ctx := context.Background()
	pkg := engine.At(f.NodeForRange(textrange.New(0, 0, 0, 7)), f)
	require.Equal(t, "package_clause", pkg.Type())

	o := engine.DefaultOptions()
	o.Types = enabler.Only("comment")
	o.Matcher = b

	next, ok := nav.Next(ctx, pkg, o)
	require.True(t, ok)
	assert.Equal(t, textrange.New(4, 0, 6, 1), next.Range(), "matcher overrides types")

	next, ok = nav.Next(ctx, next, o)
	require.True(t, ok)
	assert.Equal(t, 8, next.Range().Start.Row)

	_, ok = nav.Next(ctx, next, o)
	assert.False(t, ok)

	prev, ok := nav.Prev(ctx, next, o)
	require.True(t, ok)
	assert.Equal(t, 4, prev.Range().Start.Row)
}

func TestCaptureDetector(t *testing.T) {
	assert.False(t, CaptureDetector("function.outer"))
	assert.False(t, CaptureDetector("doc"))
	assert.True(t, CaptureDetector("function.*"))
	assert.True(t, CaptureDetector("{a,b}"))

	s := Captures("function.outer")
	assert.True(t, s.Get("function.outer"))
	assert.False(t, s.Get("function_outer"))
}
