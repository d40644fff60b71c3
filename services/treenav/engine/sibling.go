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

// Direction is the direction of a sibling or graph move.
type Direction int

const (
	// Forward moves toward the end of the document.
	Forward Direction = iota

	// Backward moves toward the start of the document.
	Backward
)

// String returns "next" or "prev".
func (d Direction) String() string {
	if d == Backward {
		return "prev"
	}
	return "next"
}

// siblingLevels is the level bookkeeping of a sibling search.
//
// lvl is the current depth relative to the origin: positive above it,
// negative below. ancestorLvl is the level of the ancestor shared by the
// origin and the siblings currently being visited.
type siblingLevels struct {
	lvlDiff      int
	ancestorDiff int
	maxAncestor  int
}

func newSiblingLevels(o *Options) siblingLevels {
	l := siblingLevels{
		lvlDiff:      o.LvlDiff,
		ancestorDiff: o.AncestorDiff,
		maxAncestor:  o.MaxLinkDst,
	}
	if l.lvlDiff == Unset && l.ancestorDiff == Unset {
		l.lvlDiff = 0
		if l.maxAncestor == Unset {
			l.maxAncestor = 1
		}
	}
	return l
}

// relative finds the nearest acceptable relative of pos in direction dir.
//
// Description:
//
//	Climbs from pos until a sibling exists, moves to it, and evaluates the
//	sibling and its far-child chain (first children going forward, last
//	children going backward). A node satisfying the prioritized policy is
//	returned at once. The first node satisfying only the other policy is
//	kept as a secondary result. The next sibling is looked up from the
//	deepest node of that chain, so a later child of a visited sibling is
//	reached before the sibling's own next sibling. Identical-range steps
//	leave the levels unchanged.
//
// The search terminates when the shared ancestor would be more than
// maxAncestor levels up, when MaxSkip siblings have been visited, or when no
// parent is left. On termination the secondary result is returned, otherwise
// the last visited sibling when Fallback is set, otherwise nothing.
func (s *search) relative(pos Position, dir Direction) (Position, bool) {
	forward := dir == Forward
	levels := newSiblingLevels(s.o)
	origin := pos.Node.Range()

	var (
		secondary, last Position
		hasSecondary    bool
		hasLast         bool
	)
	finish := func() (Position, bool) {
		if hasSecondary {
			return secondary, true
		}
		if s.o.Fallback && hasLast {
			return last, true
		}
		return Position{}, false
	}

	lvl, ancestorLvl, visited := 0, 1, 0
	cur := pos
	for {
		sib, ok := s.sibling(cur, forward)
		for !ok {
			up, pok := s.parent(cur)
			if !pok {
				return finish()
			}
			if !up.Node.Range().Equal(cur.Node.Range()) {
				lvl++
			}
			if lvl >= ancestorLvl {
				ancestorLvl = lvl + 1
				if levels.maxAncestor >= 0 && ancestorLvl > levels.maxAncestor {
					s.exhaust("max_link_dst", up)
					return finish()
				}
			}
			cur = up
			sib, ok = s.sibling(cur, forward)
		}

		cur = sib
		visited++
		if !within(s.o.MaxSkip, visited) {
			s.exhaust("max_skip", cur)
			return finish()
		}
		last, hasLast = cur, true

		node, l := cur, lvl
		for {
			if !node.Node.Range().Equal(origin) && s.o.accepts(node) {
				lvlOK := levels.lvlDiff >= 0 && l <= levels.lvlDiff
				ancOK := levels.ancestorDiff >= 0 && ancestorLvl-l >= levels.ancestorDiff
				primary, other := lvlOK, ancOK
				if s.o.Prioritize == PrioritizeAncestorDiff {
					primary, other = ancOK, lvlOK
				}
				if primary {
					return node, true
				}
				if other && !hasSecondary {
					secondary, hasSecondary = node, true
				}
			}
			c, ok := s.child(node, farChild(forward))
			if !ok {
				break
			}
			if !c.Node.Range().Equal(node.Node.Range()) {
				l--
			}
			node = c
		}
		cur, lvl = node, l
	}
}
