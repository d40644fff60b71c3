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

// basePoint is the point candidates are compared against.
func basePoint(o *Options, origin textrange.Range, forward bool) textrange.Point {
	if o.StartPoint != nil {
		return *o.StartPoint
	}
	if forward && !o.AllowChild {
		return origin.End
	}
	return origin.Start
}

// beyond reports whether r lies past base in the search direction.
//
// Ranges are half-open, so going forward a range starting exactly at base
// is beyond it, and going backward a range ending exactly at base is too.
func beyond(r textrange.Range, base textrange.Point, forward, compareEnd bool) bool {
	switch {
	case forward && compareEnd:
		return r.End.After(base)
	case forward:
		return r.Start.Compare(base) >= 0
	case compareEnd:
		return r.End.Compare(base) <= 0
	default:
		return r.Start.Before(base)
	}
}

// walk searches the node graph in document order.
//
// Description:
//
//	Forward is pre-order: the origin's children first when AllowChild is
//	set, then following siblings and their subtrees, then the parent's
//	following siblings. Backward is the exact reverse: the previous
//	sibling's deepest last descendant first, then its way back up to that
//	sibling, then earlier siblings, then ascends. Parents reached by
//	ascending from the origin are never candidates. Crossing into injected
//	trees happens on descent, crossing out on ascent.
//
//	depth is relative to the origin and ignores identical-range steps.
//	Ascending below -min(MaxAscend, MaxLinkDst) gives up; descending below
//	MaxDescend skips that branch. A skipped branch is reported as
//	max_descend only when nothing is found.
//
// Outputs:
//
//	Position - The first accepted node beyond the base point whose range
//	           differs from the origin.
//	bool     - False when the graph or a budget is exhausted.
func (s *search) walk(pos Position, dir Direction) (Position, bool) {
	forward := dir == Forward
	origin := pos.Node.Range()
	base := basePoint(s.o, origin, forward)
	match := func(p Position) bool {
		r := p.Node.Range()
		return !r.Equal(origin) && beyond(r, base, forward, s.o.CompareEnd) && s.o.accepts(p)
	}

	g := graphWalk{search: s, maxUp: minBudget(s.o.MaxAscend, s.o.MaxLinkDst)}
	var (
		found Position
		ok    bool
	)
	if forward {
		found, ok = g.next(pos, match)
	} else {
		found, ok = g.prev(pos, match)
	}
	if !ok && g.hasPruned && s.exhausted == "" {
		s.exhaust("max_descend", g.pruned)
	}
	return found, ok
}

// graphWalk is the state of one walk.
type graphWalk struct {
	*search
	maxUp int

	// depth is relative to the origin.
	depth int

	// pruned is the first node left out because of MaxDescend.
	pruned    Position
	hasPruned bool
}

// down moves to the child at index of cur if MaxDescend allows it.
func (g *graphWalk) down(cur Position, index int) (Position, bool) {
	c, ok := g.child(cur, index)
	if !ok {
		return Position{}, false
	}
	d := g.depth
	if !c.Node.Range().Equal(cur.Node.Range()) {
		d++
	}
	if !within(g.o.MaxDescend, d) {
		if !g.hasPruned {
			g.pruned, g.hasPruned = c, true
		}
		return Position{}, false
	}
	g.depth = d
	return c, true
}

// up moves to the parent of cur. above reports that cur is an ancestor of
// the origin or the origin itself, in which case the ascent budget applies.
func (g *graphWalk) up(cur Position, above bool) (Position, bool) {
	p, ok := g.parent(cur)
	if !ok {
		return Position{}, false
	}
	if !p.Node.Range().Equal(cur.Node.Range()) {
		g.depth--
		if above && g.maxUp >= 0 && g.depth < -g.maxUp {
			g.exhaust("max_ascend", p)
			return Position{}, false
		}
	}
	return p, true
}

func (g *graphWalk) next(pos Position, match func(Position) bool) (Position, bool) {
	cur := pos
	descend := g.o.AllowChild
	for {
		next, moved := Position{}, false
		if descend {
			next, moved = g.down(cur, 0)
		}
		for !moved {
			if sib, ok := g.sibling(cur, true); ok {
				next, moved = sib, true
				break
			}
			up, ok := g.up(cur, true)
			if !ok {
				return Position{}, false
			}
			cur = up
		}

		cur = next
		descend = true
		if match(cur) {
			return cur, true
		}
	}
}

// prev walks in reverse pre-order. inside counts the levels below the
// sibling subtree currently being visited; parents reached while it is
// positive are inside that subtree and are candidates.
func (g *graphWalk) prev(pos Position, match func(Position) bool) (Position, bool) {
	cur := pos
	inside := 0
	for {
		if sib, ok := g.sibling(cur, false); ok {
			cur = sib
			for {
				c, ok := g.down(cur, -1)
				if !ok {
					break
				}
				cur = c
				inside++
			}
			if match(cur) {
				return cur, true
			}
			continue
		}

		up, ok := g.up(cur, inside == 0)
		if !ok {
			return Position{}, false
		}
		cur = up
		if inside > 0 {
			inside--
			if match(cur) {
				return cur, true
			}
		}
	}
}
