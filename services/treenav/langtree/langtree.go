// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package langtree defines the contract between the navigation engine and a
// syntax-tree provider.
//
// A provider supplies a root Tree for a buffer plus a forest of injected
// sub-trees (a Lua code fence inside Markdown, JavaScript inside an HTML
// script element). Trees and nodes are immutable and owned by the provider;
// the engine only reads them.
//
// Absent values are reported as a nil interface, never as a typed nil
// pointer wrapped in an interface. Implementations must take care of this
// when adapting pointer-based APIs.
package langtree

import (
	"github.com/AleutianAI/treenav/services/treenav/textrange"
)

// Node is a named node of a concrete syntax tree.
//
// Only named nodes are exposed. Anonymous tokens (punctuation, keywords) are
// not navigable.
type Node interface {
	// Type is the grammar's node type tag, e.g. "function_declaration".
	Type() string

	// Range is the half-open span of the node.
	Range() textrange.Range

	// Parent returns the structural parent inside the same tree, or nil.
	Parent() Node

	// NamedChildCount returns the number of named children.
	NamedChildCount() int

	// NamedChild returns the i-th named child (0-based), or nil when i is out
	// of range.
	NamedChild(i int) Node

	// NextNamedSibling returns the following named sibling, or nil.
	NextNamedSibling() Node

	// PrevNamedSibling returns the preceding named sibling, or nil.
	PrevNamedSibling() Node

	// Equal reports whether other is the same node of the same tree.
	Equal(other Node) bool
}

// Tree is one language region of a buffer: the host tree or an injection.
type Tree interface {
	// Lang is the language tag, e.g. "markdown", "lua".
	Lang() string

	// Parent returns the tree this one is injected into, or nil for the root.
	Parent() Tree

	// Root returns the root node of this tree.
	Root() Node

	// Region is the span of the parent's source this tree was parsed from.
	// For the root tree it is the root node's range.
	Region() textrange.Range

	// NodeForRange returns the smallest named node of this tree covering r,
	// or nil when r is outside the tree.
	NodeForRange(r textrange.Range) Node

	// LanguageForRange returns the most specific tree governing r, descending
	// into injected trees. Returns this tree when no injection contains r.
	LanguageForRange(r textrange.Range) Tree

	// Children returns the trees injected directly into this one.
	Children() []Tree
}

// SameTree reports whether a and b are the same tree instance.
func SameTree(a, b Tree) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}

// Walk visits t and every injected tree below it in depth-first order.
//
// Returning false from fn stops the walk.
func Walk(t Tree, fn func(tree Tree, depth int) bool) {
	var visit func(tree Tree, depth int) bool
	visit = func(tree Tree, depth int) bool {
		if !fn(tree, depth) {
			return false
		}
		for _, child := range tree.Children() {
			if !visit(child, depth+1) {
				return false
			}
		}
		return true
	}
	if t != nil {
		visit(t, 0)
	}
}

// Depth returns how many injection levels separate t from the root tree.
func Depth(t Tree) int {
	d := 0
	for p := t.Parent(); p != nil; p = p.Parent() {
		d++
	}
	return d
}
