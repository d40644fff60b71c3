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
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/treenav/services/treenav/enabler"
	"github.com/AleutianAI/treenav/services/treenav/langtree/memtree"
)

// find returns the position of the n-th node of type typ (0 when omitted).
func find(t *testing.T, tree *memtree.Tree, typ string, nth ...int) Position {
	t.Helper()
	i := 0
	if len(nth) > 0 {
		i = nth[0]
	}
	n := tree.FindNth(typ, i)
	require.NotNil(t, n, "fixture has no %s #%d", typ, i)
	return At(n, tree)
}

// withOpts returns DefaultOptions modified by fn.
func withOpts(fn func(o *Options)) Options {
	o := DefaultOptions()
	if fn != nil {
		fn(&o)
	}
	return o
}

func only(types ...string) func(o *Options) {
	return func(o *Options) { o.Types = enabler.Only(types...) }
}

// injected builds a Markdown document with a Lua code fence:
//
//	paragraph  0-5
//	fence      6-30   (info 6-9, content 10-30)
//	paragraph  31-36
//	lua chunk  10-24  (call 10-20 (name 10-15, args 16-20), ret 21-24)
func injected() (*memtree.Tree, *memtree.Tree) {
	md := memtree.MustParse("markdown",
		"(document (paragraph:5) (fence (info:3) (content:20)) (paragraph:5))")
	lua := md.MustInject("lua", "(chunk (call (name:5) (args:4)) (ret:3))", "content")
	return md, lua
}

var ctx = context.Background()
