// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine implements syntax-tree navigation across nested language
// trees.
//
// Given a position and a direction (parent, child, sibling, next or previous
// in document order) the engine finds the node a user means, skipping nodes
// whose type is not accepted, collapsing stacks of nodes with identical
// ranges, and crossing into injected trees and back out when the language
// set allows it. Every search is bounded by the distance budgets in Options.
//
// # Results
//
// Every operation returns (Position, bool). False means nothing acceptable
// was found within the budgets; it is an expected outcome, not an error.
//
// # Thread Safety
//
// A Navigator holds no mutable state. Trees supplied by the provider must be
// read-only while navigated; given that, all methods are safe for
// concurrent use.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/AleutianAI/treenav/services/treenav/langtree"
	"github.com/AleutianAI/treenav/services/treenav/textrange"
)

// Navigator runs navigation operations over one buffer's tree forest.
type Navigator struct {
	root   langtree.Tree
	logger *slog.Logger
}

// NavigatorOption configures a Navigator.
type NavigatorOption func(*Navigator)

// WithLogger sets the logger used for debug output about budgets and
// boundary crossings.
func WithLogger(logger *slog.Logger) NavigatorOption {
	return func(n *Navigator) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNavigator creates a Navigator over the forest rooted at root.
//
// Example:
//
//	nav := engine.NewNavigator(forest, engine.WithLogger(logger))
//	pos, ok := nav.Resolve(ctx, textrange.New(3, 4, 3, 9), engine.DefaultOptions())
func NewNavigator(root langtree.Tree, opts ...NavigatorOption) *Navigator {
	n := &Navigator{
		root:   root,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Root returns the root tree of the forest.
func (n *Navigator) Root() langtree.Tree {
	return n.root
}

// run wraps one operation with tracing and metrics.
func (n *Navigator) run(ctx context.Context, op string, from Position, o Options, fn func(*search) (Position, bool)) (Position, bool) {
	ctx, span := startNavSpan(ctx, op, from)
	defer span.End()

	start := time.Now()
	s := newSearch(&o, n.logger.With(slog.String("op", op)))
	pos, ok := fn(s)
	if !ok {
		pos = Position{}
	}

	setNavSpanResult(span, s, pos, ok)
	recordNavigation(ctx, op, time.Since(start), s, ok)
	return pos, ok
}

// Resolve returns the canonical node for a range.
//
// Description:
//
//	Finds the smallest node covering r, in the most specific language tree
//	when crossing is enabled, then ascends to the top of the first accepted
//	identical-range stack. When the governing injected tree does not cover
//	r (an injected root smaller than its host region) the lookup falls back
//	to the enclosing trees.
//
// Inputs:
//
//	ctx - Carries tracing spans only.
//	r   - The range to resolve, typically the cursor or a selection.
//	o   - Acceptance rules and budgets.
//
// Outputs:
//
//	Position - The canonical node.
//	bool     - False when no accepted node covers r.
func (n *Navigator) Resolve(ctx context.Context, r textrange.Range, o Options) (Position, bool) {
	return n.run(ctx, "resolve", Position{}, o, func(s *search) (Position, bool) {
		tree := n.root
		if o.crossing() {
			if t := n.root.LanguageForRange(r); t != nil {
				tree = t
			}
		}
		for ; tree != nil; tree = tree.Parent() {
			if node := tree.NodeForRange(r); node != nil {
				return s.top(Position{Node: node, Tree: tree})
			}
		}
		return Position{}, false
	})
}

// Parent returns the nearest accepted ancestor of pos with a larger range.
func (n *Navigator) Parent(ctx context.Context, pos Position, o Options) (Position, bool) {
	if pos.IsZero() {
		return Position{}, false
	}
	return n.run(ctx, "parent", pos, o, func(s *search) (Position, bool) {
		return s.ancestor(pos)
	})
}

// Child returns an accepted descendant of pos.
//
// Index 0 searches from the first child and -1 from the last child,
// returning the nearest accepted descendant with a different range. Other
// indexes select that named child (negative counts from the end) and return
// it if accepted, otherwise its nearest accepted descendant.
func (n *Navigator) Child(ctx context.Context, pos Position, o Options, index int) (Position, bool) {
	if pos.IsZero() {
		return Position{}, false
	}
	return n.run(ctx, "child", pos, o, func(s *search) (Position, bool) {
		switch index {
		case 0:
			return s.descend(pos, true)
		case -1:
			return s.descend(pos, false)
		}
		return s.childAt(pos, index)
	})
}

// Sibling returns the nearest accepted relative of pos in direction dir.
//
// With LvlDiff and AncestorDiff unset this is a plain next/previous named
// sibling that skips rejected types. Setting them allows moving to cousins
// and more distant relatives within MaxLinkDst.
func (n *Navigator) Sibling(ctx context.Context, pos Position, dir Direction, o Options) (Position, bool) {
	if pos.IsZero() {
		return Position{}, false
	}
	return n.run(ctx, dir.String()+"_sibling", pos, o, func(s *search) (Position, bool) {
		return s.relative(pos, dir)
	})
}

// Next returns the next accepted node in document order.
func (n *Navigator) Next(ctx context.Context, pos Position, o Options) (Position, bool) {
	if pos.IsZero() {
		return Position{}, false
	}
	return n.run(ctx, "next", pos, o, func(s *search) (Position, bool) {
		return s.walk(pos, Forward)
	})
}

// Prev returns the previous accepted node in document order.
func (n *Navigator) Prev(ctx context.Context, pos Position, o Options) (Position, bool) {
	if pos.IsZero() {
		return Position{}, false
	}
	return n.run(ctx, "prev", pos, o, func(s *search) (Position, bool) {
		return s.walk(pos, Backward)
	})
}

// Path returns pos followed by its chain of accepted ancestors, innermost
// first. Each element is what Parent returns for the one before it.
func (n *Navigator) Path(ctx context.Context, pos Position, o Options) []Position {
	if pos.IsZero() {
		return nil
	}
	path := []Position{pos}
	n.run(ctx, "path", pos, o, func(s *search) (Position, bool) {
		cur := pos
		for {
			up, ok := s.ancestor(cur)
			if !ok {
				return cur, true
			}
			path = append(path, up)
			cur = up
		}
	})
	return path
}
