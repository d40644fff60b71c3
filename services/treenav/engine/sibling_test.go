// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/treenav/services/treenav/enabler"
	"github.com/AleutianAI/treenav/services/treenav/langtree/memtree"
)

func TestSibling_Direct(t *testing.T) {
	tree := memtree.MustParse("go", "(block (a) (b) (c))")
	nav := NewNavigator(tree)

	got, ok := nav.Sibling(ctx, find(t, tree, "a"), Forward, DefaultOptions())
	require.True(t, ok)
	assert.Equal(t, "b", got.Type())

	got, ok = nav.Sibling(ctx, find(t, tree, "c"), Backward, DefaultOptions())
	require.True(t, ok)
	assert.Equal(t, "b", got.Type())

	_, ok = nav.Sibling(ctx, find(t, tree, "a"), Backward, DefaultOptions())
	assert.False(t, ok)

	_, ok = nav.Sibling(ctx, find(t, tree, "c"), Forward, DefaultOptions())
	assert.False(t, ok, "default link distance keeps the search among direct siblings")
}

func TestSibling_TypeFilteredSkip(t *testing.T) {
	tree := memtree.MustParse("go", "(block (stmt) (comment) (comment) (stmt))")
	nav := NewNavigator(tree)
	o := withOpts(func(o *Options) { o.Types = enabler.Except("comment") })

	got, ok := nav.Sibling(ctx, find(t, tree, "stmt"), Forward, o)
	require.True(t, ok)
	assert.True(t, got.Equal(find(t, tree, "stmt", 1)))

	got, ok = nav.Sibling(ctx, find(t, tree, "stmt", 1), Backward, o)
	require.True(t, ok)
	assert.True(t, got.Equal(find(t, tree, "stmt")))
}

func TestSibling_MaxSkip(t *testing.T) {
	tree := memtree.MustParse("go", "(block (a) (b) (c) (d))")
	nav := NewNavigator(tree)
	a := find(t, tree, "a")

	tests := []struct {
		skip int
		ok   bool
	}{
		{0, false},
		{1, false},
		{2, true},
		{Unset, true},
	}
	for _, tt := range tests {
		got, ok := nav.Sibling(ctx, a, Forward, withOpts(func(o *Options) {
			only("c")(o)
			o.MaxSkip = tt.skip
		}))
		assert.Equal(t, tt.ok, ok, "max_skip=%d", tt.skip)
		if ok {
			assert.Equal(t, "c", got.Type())
		}
	}
}

func TestSibling_Fallback(t *testing.T) {
	tree := memtree.MustParse("go", "(block (a) (b) (c))")
	nav := NewNavigator(tree)
	a := find(t, tree, "a")

	_, ok := nav.Sibling(ctx, a, Forward, withOpts(only("zzz")))
	assert.False(t, ok)

	got, ok := nav.Sibling(ctx, a, Forward, withOpts(func(o *Options) {
		only("zzz")(o)
		o.Fallback = true
	}))
	require.True(t, ok)
	assert.Equal(t, "c", got.Type(), "last visited sibling")

	_, ok = nav.Sibling(ctx, find(t, tree, "c"), Forward, withOpts(func(o *Options) { o.Fallback = true }))
	assert.False(t, ok, "fallback needs at least one visited sibling")
}

func TestSibling_IdenticalRangeDoesNotCountAsLevel(t *testing.T) {
	tree := memtree.MustParse("go", "(block (stmt (expr (ident:3))) (stmt))")
	nav := NewNavigator(tree)

	got, ok := nav.Sibling(ctx, find(t, tree, "ident"), Forward, DefaultOptions())
	require.True(t, ok)
	assert.True(t, got.Equal(find(t, tree, "stmt", 1)))
}

// cousins: root (p (a) (b)) (q (c) (d))
const cousins = "(root (p (a) (b)) (q (c) (d)))"

func TestSibling_LvlDiff(t *testing.T) {
	tree := memtree.MustParse("go", cousins)
	nav := NewNavigator(tree)
	b := find(t, tree, "b")

	got, ok := nav.Sibling(ctx, b, Forward, withOpts(func(o *Options) {
		o.LvlDiff = 0
		o.MaxLinkDst = 2
	}))
	require.True(t, ok)
	assert.Equal(t, "c", got.Type(), "cousin at the same depth")

	got, ok = nav.Sibling(ctx, b, Forward, withOpts(func(o *Options) {
		o.LvlDiff = 1
		o.MaxLinkDst = 2
	}))
	require.True(t, ok)
	assert.Equal(t, "q", got.Type(), "uncle accepted one level up")

	got, ok = nav.Sibling(ctx, find(t, tree, "c"), Backward, withOpts(func(o *Options) {
		o.LvlDiff = 0
		o.MaxLinkDst = 2
	}))
	require.True(t, ok)
	assert.Equal(t, "b", got.Type(), "backward descends via last children")
}

func TestSibling_MaxLinkDst(t *testing.T) {
	tree := memtree.MustParse("go", cousins)
	nav := NewNavigator(tree)

	_, ok := nav.Sibling(ctx, find(t, tree, "b"), Forward, withOpts(func(o *Options) {
		o.LvlDiff = 0
		o.MaxLinkDst = 1
	}))
	assert.False(t, ok)
}

func TestSibling_AncestorDiffSecondary(t *testing.T) {
	tree := memtree.MustParse("go", cousins)
	nav := NewNavigator(tree)

	// Only the ancestor policy is configured; lvl policy is disabled so the
	// first ancestor match is held as secondary and returned on exhaustion.
	got, ok := nav.Sibling(ctx, find(t, tree, "b"), Forward, withOpts(func(o *Options) {
		o.AncestorDiff = 1
		o.MaxLinkDst = 2
	}))
	require.True(t, ok)
	assert.Equal(t, "q", got.Type())
}

func TestSibling_Prioritize(t *testing.T) {
	tree := memtree.MustParse("go", cousins)
	nav := NewNavigator(tree)
	b := find(t, tree, "b")

	base := func(o *Options) {
		o.LvlDiff = 1
		o.AncestorDiff = 2
		o.MaxLinkDst = 2
	}

	// q satisfies only the lvl policy, c satisfies both.
	got, ok := nav.Sibling(ctx, b, Forward, withOpts(base))
	require.True(t, ok)
	assert.Equal(t, "q", got.Type())

	got, ok = nav.Sibling(ctx, b, Forward, withOpts(func(o *Options) {
		base(o)
		o.Prioritize = PrioritizeAncestorDiff
	}))
	require.True(t, ok)
	assert.Equal(t, "c", got.Type())
}

func TestSibling_TieGoesToPrioritized(t *testing.T) {
	tree := memtree.MustParse("go", cousins)
	nav := NewNavigator(tree)

	for _, p := range []Priority{PrioritizeLvlDiff, PrioritizeAncestorDiff} {
		got, ok := nav.Sibling(ctx, find(t, tree, "b"), Forward, withOpts(func(o *Options) {
			o.LvlDiff = 0
			o.AncestorDiff = 2
			o.MaxLinkDst = 2
			o.Prioritize = p
		}))
		require.True(t, ok, p.String())
		assert.Equal(t, "c", got.Type(), p.String())
	}
}

func TestSibling_BudgetBoundsVisits(t *testing.T) {
	tree := memtree.MustParse("go", "(block (a) (b) (c) (d) (e) (f))")
	nav := NewNavigator(tree)

	for skip := 0; skip < 6; skip++ {
		o := withOpts(func(o *Options) {
			only("zzz")(o)
			o.MaxSkip = skip
			o.Fallback = true
		})
		got, ok := nav.Sibling(ctx, find(t, tree, "a"), Forward, o)
		if skip == 0 {
			assert.False(t, ok)
			continue
		}
		require.True(t, ok)
		// The fallback is the last sibling the budget allowed.
		want := string(rune('a' + skip))
		assert.Equal(t, want, got.Type(), "max_skip=%d", skip)
	}
}

// nested: root (x) (s (p) (q)) (tt)
const nested = "(root (x) (s (p) (q)) (tt))"

func TestSibling_ResumesFromDeepestNode(t *testing.T) {
	tree := memtree.MustParse("go", nested)
	nav := NewNavigator(tree)

	tests := []struct {
		name string
		from string
		dir  Direction
		opts func(o *Options)
		want string
	}{
		{"second child of next sibling", "x", Forward, only("q"), "q"},
		{"second child with wider link distance", "x", Forward, func(o *Options) {
			only("q")(o)
			o.MaxLinkDst = 5
		}, "q"},
		{"skip budget counts siblings below the origin", "x", Forward, func(o *Options) {
			only("q")(o)
			o.MaxSkip = 2
		}, "q"},
		{"first child of previous sibling", "tt", Backward, only("p"), "p"},
		{"skip across a subtree forward", "x", Forward, only("tt"), "tt"},
		{"skip across a subtree backward", "tt", Backward, only("x"), "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := nav.Sibling(ctx, find(t, tree, tt.from), tt.dir, withOpts(tt.opts))
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Type())
		})
	}

	_, ok := nav.Sibling(ctx, find(t, tree, "x"), Forward, withOpts(func(o *Options) {
		only("q")(o)
		o.MaxSkip = 1
	}))
	assert.False(t, ok, "q is the second sibling visited")
}
