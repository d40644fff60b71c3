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
	"log/slog"

	"github.com/AleutianAI/treenav/services/treenav/langtree"
)

// search carries the options and counters of one navigation call.
//
// It is created per call and never shared, so the engine keeps no mutable
// state between calls.
type search struct {
	o       *Options
	logger  *slog.Logger
	visited int

	// exhausted names the budget that ended the search, if any.
	exhausted string
}

func newSearch(o *Options, logger *slog.Logger) *search {
	return &search{o: o, logger: logger}
}

// exhaust records that a budget stopped the search.
func (s *search) exhaust(budget string, at Position) {
	if s.exhausted == "" {
		s.exhausted = budget
	}
	s.logger.Debug("navigation budget exhausted",
		slog.String("budget", budget),
		slog.String("at", at.String()),
	)
}

// parent returns the structural parent of pos.
//
// At the root of an injected tree, and only when crossing is enabled, it
// continues into the parent tree at the node covering pos's range. The
// parent tree's language is not checked here; callers decide whether a
// node in that language is a valid stop.
func (s *search) parent(pos Position) (Position, bool) {
	s.visited++
	if p := pos.Node.Parent(); p != nil {
		return Position{Node: p, Tree: pos.Tree}, true
	}
	if !s.o.crossing() {
		return Position{}, false
	}
	pt := pos.Tree.Parent()
	if pt == nil {
		return Position{}, false
	}
	n := pt.NodeForRange(pos.Node.Range())
	if n == nil {
		return Position{}, false
	}
	s.logger.Debug("crossed into parent tree",
		slog.String("from", pos.Tree.Lang()),
		slog.String("to", pt.Lang()),
	)
	return Position{Node: n, Tree: pt}, true
}

// child returns the named child at index; negative indexes count from the
// end.
//
// A node without named children may host an injected tree. When crossing is
// enabled the tree governing the node's range, narrowed by one column, is
// looked up, and its root is returned if it is a different tree in an
// accepted language.
func (s *search) child(pos Position, index int) (Position, bool) {
	s.visited++
	n := pos.Node
	if count := n.NamedChildCount(); count > 0 {
		i := index
		if i < 0 {
			i += count
		}
		if i < 0 || i >= count {
			return Position{}, false
		}
		c := n.NamedChild(i)
		if c == nil {
			return Position{}, false
		}
		return Position{Node: c, Tree: pos.Tree}, true
	}

	if !s.o.crossing() {
		return Position{}, false
	}
	sub := pos.Tree.LanguageForRange(n.Range().Narrow())
	if sub == nil || langtree.SameTree(sub, pos.Tree) || !s.o.Langs.Get(sub.Lang()) {
		return Position{}, false
	}
	root := sub.Root()
	if root == nil {
		return Position{}, false
	}
	s.logger.Debug("crossed into injected tree",
		slog.String("from", pos.Tree.Lang()),
		slog.String("to", sub.Lang()),
	)
	return Position{Node: root, Tree: sub}, true
}

// sibling returns the next (forward) or previous named sibling within the
// same tree.
func (s *search) sibling(pos Position, forward bool) (Position, bool) {
	s.visited++
	var n langtree.Node
	if forward {
		n = pos.Node.NextNamedSibling()
	} else {
		n = pos.Node.PrevNamedSibling()
	}
	if n == nil {
		return Position{}, false
	}
	return Position{Node: n, Tree: pos.Tree}, true
}

// farChild is the first child for forward searches and the last one
// otherwise.
func farChild(forward bool) int {
	if forward {
		return 0
	}
	return -1
}
