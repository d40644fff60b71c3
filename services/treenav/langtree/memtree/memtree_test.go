// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package memtree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/treenav/services/treenav/langtree"
	"github.com/AleutianAI/treenav/services/treenav/textrange"
)

func TestParse_Layout(t *testing.T) {
	tr := MustParse("go", "(block (a) (b:3) (c))")

	root := tr.Root()
	assert.Equal(t, "block", root.Type())
	assert.Equal(t, 3, root.NamedChildCount())

	assert.Equal(t, textrange.New(0, 0, 0, 1), tr.Find("a").Range())
	assert.Equal(t, textrange.New(0, 2, 0, 5), tr.Find("b").Range())
	assert.Equal(t, textrange.New(0, 6, 0, 7), tr.Find("c").Range())
	assert.Equal(t, textrange.New(0, 0, 0, 7), root.Range())
}

func TestParse_IdenticalRangeStack(t *testing.T) {
	tr := MustParse("go", "(expr (call (ident:4)))")
	assert.Equal(t, tr.Find("ident").Range(), tr.Find("call").Range())
	assert.Equal(t, tr.Find("call").Range(), tr.Find("expr").Range())
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{"", "a", "(", "()", "(a (b)", "(a) (b)", "(a:0)", "(a:x)"} {
		_, err := Parse("go", src)
		assert.True(t, errors.Is(err, ErrSyntax), "%q: %v", src, err)
	}
}

func TestSiblings_NilAtEdges(t *testing.T) {
	tr := MustParse("go", "(block (a) (b))")
	a, b := tr.Find("a"), tr.Find("b")

	assert.True(t, a.NextNamedSibling().Equal(b))
	assert.True(t, b.PrevNamedSibling().Equal(a))
	assert.Nil(t, a.PrevNamedSibling())
	assert.Nil(t, b.NextNamedSibling())
	assert.Nil(t, tr.Root().Parent())
	assert.Nil(t, tr.Root().NamedChild(5))
	assert.Nil(t, tr.Root().NamedChild(-1))
}

func TestNodeForRange(t *testing.T) {
	tr := MustParse("go", "(block (expr (call (ident:4))) (b:3))")

	n := tr.NodeForRange(textrange.New(0, 1, 0, 2))
	require.NotNil(t, n)
	assert.Equal(t, "ident", n.Type())

	n = tr.NodeForRange(textrange.New(0, 0, 0, 8))
	require.NotNil(t, n)
	assert.Equal(t, "block", n.Type())

	assert.Nil(t, tr.NodeForRange(textrange.New(0, 0, 3, 0)))
}

func TestInject(t *testing.T) {
	md := MustParse("markdown", "(document (paragraph:5) (fence (info:3) (content:20)))")
	lua := md.MustInject("lua", "(chunk (call (name:5) (args:4)))", "content")

	content := md.Find("content")
	assert.Equal(t, content.Range(), lua.Region())
	assert.Equal(t, content.Range().Start, lua.Root().Range().Start)
	assert.True(t, langtree.SameTree(md, lua.Parent()))
	assert.Equal(t, 1, langtree.Depth(lua))

	inside := lua.Find("args").Range()
	assert.True(t, langtree.SameTree(lua, md.LanguageForRange(inside)))
	assert.True(t, langtree.SameTree(md, md.LanguageForRange(md.Find("info").Range())))

	_, err := md.Inject("lua", "(chunk (x:50))", "paragraph")
	assert.True(t, errors.Is(err, ErrHostTooSmall))

	_, err = md.Inject("lua", "(chunk)", "content")
	assert.True(t, errors.Is(err, ErrHostNotFound), "host already used")
}

func TestWalk(t *testing.T) {
	md := MustParse("markdown", "(document (content:10) (content:10))")
	a := md.MustInject("lua", "(chunk (s:8))", "content")
	a.MustInject("sql", "(stmt)", "s")
	md.MustInject("python", "(module)", "content")

	var langs []string
	var depths []int
	langtree.Walk(md, func(tree langtree.Tree, depth int) bool {
		langs = append(langs, tree.Lang())
		depths = append(depths, depth)
		return true
	})
	assert.Equal(t, []string{"markdown", "lua", "sql", "python"}, langs)
	assert.Equal(t, []int{0, 1, 2, 1}, depths)
}
