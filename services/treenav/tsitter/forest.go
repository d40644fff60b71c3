// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tsitter

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/treenav/services/treenav/langtree"
	"github.com/AleutianAI/treenav/services/treenav/textrange"
)

// Tree is one parsed language region of a buffer and the root of the
// injected trees below it. It implements langtree.Tree.
//
// Columns are byte offsets within the row, as tree-sitter reports them.
//
// Thread Safety:
//
//	A Tree is read-only once Build returns, but go-tree-sitter caches node
//	wrappers inside each tree, so a forest must not be navigated from more
//	than one goroutine at a time.
type Tree struct {
	lang     string
	grammar  Grammar
	tree     *sitter.Tree
	src      []byte
	parent   *Tree
	region   textrange.Range
	children []*Tree
}

// Lang implements langtree.Tree.
func (t *Tree) Lang() string { return t.lang }

// Parent implements langtree.Tree.
func (t *Tree) Parent() langtree.Tree {
	if t.parent == nil {
		return nil
	}
	return t.parent
}

// Root implements langtree.Tree.
func (t *Tree) Root() langtree.Node {
	return t.wrap(t.tree.RootNode())
}

// Region implements langtree.Tree.
func (t *Tree) Region() textrange.Range { return t.region }

// Children implements langtree.Tree.
func (t *Tree) Children() []langtree.Tree {
	out := make([]langtree.Tree, len(t.children))
	for i, c := range t.children {
		out[i] = c
	}
	return out
}

// NodeForRange implements langtree.Tree.
func (t *Tree) NodeForRange(r textrange.Range) langtree.Node {
	root := t.tree.RootNode()
	if root == nil || !rangeOf(root).Contains(r) {
		return nil
	}
	return t.wrap(root.NamedDescendantForPointRange(toPoint(r.Start), toPoint(r.End)))
}

// LanguageForRange implements langtree.Tree.
func (t *Tree) LanguageForRange(r textrange.Range) langtree.Tree {
	for _, c := range t.children {
		if c.region.Contains(r) {
			return c.LanguageForRange(r)
		}
	}
	return t
}

// Grammar returns the grammar this tree was parsed with.
func (t *Tree) Grammar() Grammar { return t.grammar }

// SitterRoot returns the underlying tree-sitter root node, for callers
// that run tree-sitter queries over the tree.
func (t *Tree) SitterRoot() *sitter.Node { return t.tree.RootNode() }

// Wrap adapts a node of this tree to langtree.Node. A null node gives nil.
func (t *Tree) Wrap(n *sitter.Node) langtree.Node { return t.wrap(n) }

// Source returns the buffer the forest was built from.
func (t *Tree) Source() []byte { return t.src }

// Text returns the source text covered by a node of this forest.
func (t *Tree) Text(n langtree.Node) string {
	if sn, ok := n.(*node); ok {
		return sn.n.Content(t.src)
	}
	return ""
}

// Close releases this tree and every injected tree below it.
func (t *Tree) Close() {
	for _, c := range t.children {
		c.Close()
	}
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// wrap adapts a tree-sitter node. Null nodes become a nil interface.
func (t *Tree) wrap(n *sitter.Node) langtree.Node {
	if n == nil || n.IsNull() {
		return nil
	}
	return &node{n: n, t: t}
}

// node adapts *sitter.Node to langtree.Node.
type node struct {
	n *sitter.Node
	t *Tree
}

func (n *node) Type() string { return n.n.Type() }

func (n *node) Range() textrange.Range { return rangeOf(n.n) }

func (n *node) Parent() langtree.Node { return n.t.wrap(n.n.Parent()) }

func (n *node) NamedChildCount() int { return int(n.n.NamedChildCount()) }

func (n *node) NamedChild(i int) langtree.Node {
	if i < 0 || i >= n.NamedChildCount() {
		return nil
	}
	return n.t.wrap(n.n.NamedChild(i))
}

func (n *node) NextNamedSibling() langtree.Node { return n.t.wrap(n.n.NextNamedSibling()) }

func (n *node) PrevNamedSibling() langtree.Node { return n.t.wrap(n.n.PrevNamedSibling()) }

func (n *node) Equal(other langtree.Node) bool {
	o, ok := other.(*node)
	return ok && o.t == n.t && o.n.Equal(n.n)
}

func (n *node) String() string {
	return n.n.Type() + "@" + n.Range().String()
}

func rangeOf(n *sitter.Node) textrange.Range {
	return textrange.Range{
		Start: fromPoint(n.StartPoint()),
		End:   fromPoint(n.EndPoint()),
	}
}

func fromPoint(p sitter.Point) textrange.Point {
	return textrange.Point{Row: int(p.Row), Column: int(p.Column)}
}

func toPoint(p textrange.Point) sitter.Point {
	return sitter.Point{Row: uint32(p.Row), Column: uint32(p.Column)}
}
