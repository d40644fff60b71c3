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
	"github.com/AleutianAI/treenav/services/treenav/langtree"
	"github.com/AleutianAI/treenav/services/treenav/textrange"
)

// Position is a node together with the language tree that owns it.
//
// Positions are transient values. They hold no cache and compare by node
// identity.
type Position struct {
	Node langtree.Node
	Tree langtree.Tree
}

// At builds a Position. Returns the zero Position when node is nil.
func At(node langtree.Node, tree langtree.Tree) Position {
	if node == nil || tree == nil {
		return Position{}
	}
	return Position{Node: node, Tree: tree}
}

// IsZero reports whether p holds no node.
func (p Position) IsZero() bool {
	return p.Node == nil || p.Tree == nil
}

// Range returns the node's range.
func (p Position) Range() textrange.Range {
	if p.IsZero() {
		return textrange.Range{}
	}
	return p.Node.Range()
}

// Type returns the node type, or "" for the zero Position.
func (p Position) Type() string {
	if p.IsZero() {
		return ""
	}
	return p.Node.Type()
}

// Lang returns the owning tree's language, or "".
func (p Position) Lang() string {
	if p.IsZero() {
		return ""
	}
	return p.Tree.Lang()
}

// Equal reports whether p and o are the same node.
func (p Position) Equal(o Position) bool {
	if p.IsZero() || o.IsZero() {
		return p.IsZero() && o.IsZero()
	}
	return p.Node.Equal(o.Node)
}

// String renders "lang:type@range".
func (p Position) String() string {
	if p.IsZero() {
		return "<none>"
	}
	return p.Lang() + ":" + p.Type() + "@" + p.Range().String()
}
