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
	"github.com/AleutianAI/treenav/services/treenav/textrange"
)

// acceptedLang moves pos up through parent trees until it sits in a tree
// whose language is accepted, relocating by range at each boundary.
func (s *search) acceptedLang(pos Position) (Position, bool) {
	for !s.o.acceptsLang(pos.Tree.Lang()) {
		pt := pos.Tree.Parent()
		if pt == nil {
			return Position{}, false
		}
		n := pt.NodeForRange(pos.Node.Range())
		if n == nil {
			return Position{}, false
		}
		pos = Position{Node: n, Tree: pt}
	}
	return pos, true
}

// top resolves pos to its canonical node when ascending.
//
// Description:
//
//	Walks upward from pos. The first accepted node fixes the candidate
//	range; the highest accepted node of that identical-range stack is the
//	result. The walk stops as soon as the range grows after a candidate
//	exists. Reaching a tree root without a candidate continues into the
//	parent tree when crossing is enabled.
//
// Outputs:
//
//	Position - The canonical node.
//	bool     - False when no accepted node exists on the way up.
func (s *search) top(pos Position) (Position, bool) {
	pos, ok := s.acceptedLang(pos)
	if !ok {
		return Position{}, false
	}

	var (
		best      Position
		bestRange textrange.Range
		found     bool
	)
	cur := pos
	for {
		r := cur.Node.Range()
		if found && !r.Equal(bestRange) {
			break
		}
		if s.o.accepts(cur) {
			if !found {
				found = true
				bestRange = r
			}
			best = cur
		}

		if next := cur.Node.Parent(); next != nil {
			cur = Position{Node: next, Tree: cur.Tree}
			continue
		}
		if found || !s.o.crossing() {
			break
		}
		up, ok := s.parent(cur)
		if !ok {
			break
		}
		if cur, ok = s.acceptedLang(up); !ok {
			break
		}
	}
	return best, found
}

// ancestor finds the lowest ancestor of pos with a strictly larger range
// that is accepted, canonicalized with top.
//
// MaxAscend counts range-growing steps only.
func (s *search) ancestor(pos Position) (Position, bool) {
	origin := pos.Node.Range()
	last := origin
	steps := 0
	cur := pos
	for {
		next, ok := s.parent(cur)
		if !ok {
			return Position{}, false
		}
		cur = next
		r := cur.Node.Range()
		if !r.Equal(last) {
			steps++
			last = r
			if !within(s.o.MaxAscend, steps) {
				s.exhaust("max_ascend", cur)
				return Position{}, false
			}
		}
		if !r.Equal(origin) && s.o.accepts(cur) {
			return s.top(cur)
		}
	}
}

// descend returns the first accepted node below pos, in pre-order from the
// first or the last child, whose range differs from pos's.
//
// Identical-range children do not count against MaxDescend.
func (s *search) descend(pos Position, forward bool) (Position, bool) {
	origin := pos.Node.Range()
	return s.descendFrom(pos, origin, 0, forward)
}

func (s *search) descendFrom(pos Position, origin textrange.Range, depth int, forward bool) (Position, bool) {
	count := pos.Node.NamedChildCount()
	if count == 0 {
		// A leaf may host an injected tree; child handles the crossing.
		count = 1
	}
	for i := 0; i < count; i++ {
		idx := i
		if !forward {
			idx = -1 - i
		}
		c, ok := s.child(pos, idx)
		if !ok {
			continue
		}
		d := depth
		if !c.Node.Range().Equal(pos.Node.Range()) {
			d++
		}
		if !within(s.o.MaxDescend, d) {
			s.exhaust("max_descend", c)
			continue
		}
		if !c.Node.Range().Equal(origin) && s.o.accepts(c) {
			return c, true
		}
		if found, ok := s.descendFrom(c, origin, d, forward); ok {
			return found, true
		}
	}
	return Position{}, false
}

// childAt implements Child for an explicit index.
//
// Single-child wrappers that share the node's range are collapsed first so
// that index refers to the children a user sees. The raw child is returned
// when it is accepted, otherwise the search descends from it.
func (s *search) childAt(pos Position, index int) (Position, bool) {
	origin := pos.Node.Range()
	cur := pos
	for cur.Node.NamedChildCount() == 1 {
		only := cur.Node.NamedChild(0)
		if only == nil || !only.Range().Equal(origin) {
			break
		}
		cur = Position{Node: only, Tree: cur.Tree}
	}

	c, ok := s.child(cur, index)
	if !ok {
		return Position{}, false
	}
	if !c.Node.Range().Equal(origin) && s.o.accepts(c) {
		return c, true
	}
	return s.descendFrom(c, origin, 0, index >= 0)
}
