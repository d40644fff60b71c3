// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/treenav/services/treenav/engine"
	"github.com/AleutianAI/treenav/services/treenav/langtree"
	"github.com/AleutianAI/treenav/services/treenav/textrange"
	"github.com/AleutianAI/treenav/services/treenav/tsitter"
)

var tracer = otel.Tracer("treenav.query")

// Predicate selects captures by their span.
type Predicate func(span textrange.Range) bool

// ContainedBy keeps captures lying fully inside r.
func ContainedBy(r textrange.Range) Predicate {
	return func(span textrange.Range) bool { return r.Contains(span) }
}

// After keeps captures starting at or after p.
func After(p textrange.Point) Predicate {
	return func(span textrange.Range) bool { return !span.Start.Before(p) }
}

// Before keeps captures ending at or before p.
func Before(p textrange.Point) Predicate {
	return func(span textrange.Range) bool { return !span.End.After(p) }
}

// Intersects keeps captures sharing at least one position with r.
func Intersects(r textrange.Range) Predicate {
	return func(span textrange.Range) bool { return textrange.Intersects(r, span) }
}

// Capture is one accepted capture of one match.
//
// Quantified captures such as ((comment)+ @doc) hold several nodes; Range
// spans from the start of the first to the end of the last.
type Capture struct {
	Name  string
	Nodes []langtree.Node
	Range textrange.Range
	Tree  langtree.Tree
}

// Position returns the capture's first node as a navigation position.
func (c Capture) Position() engine.Position {
	if len(c.Nodes) == 0 {
		return engine.Position{}
	}
	return engine.At(c.Nodes[0], c.Tree)
}

type memberKey struct {
	tree langtree.Tree
	r    textrange.Range
}

// Batch is the result of running a Query over a forest.
//
// A Batch implements engine.Acceptor: a position is accepted when it is a
// node of a capture or covers exactly a capture's span, in the same tree.
type Batch struct {
	captures []Capture
	members  map[memberKey]struct{}
}

var _ engine.Acceptor = (*Batch)(nil)

// Captures returns the captures in document order per tree, host tree
// first.
func (b *Batch) Captures() []Capture { return b.captures }

// Len returns the number of captures.
func (b *Batch) Len() int { return len(b.captures) }

// Accept implements engine.Acceptor.
func (b *Batch) Accept(pos engine.Position) bool {
	if pos.IsZero() {
		return false
	}
	_, ok := b.members[memberKey{tree: pos.Tree, r: pos.Range()}]
	return ok
}

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger sets the logger for the run summary.
func WithLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Run executes q over every tree of forest in the query's language.
//
// Description:
//
//	Walks the forest depth-first, runs the query on each tree whose
//	language matches, evaluates the query's text predicates (#eq?,
//	#match?), groups each match's nodes by capture name, keeps the
//	accepted names, and applies pred to each group's span. A capture
//	reported by several matches is kept once.
//
// Inputs:
//
//	ctx    - Carries the tracing span; checked between trees.
//	q      - Compiled query.
//	forest - Root of a tree-sitter forest.
//	pred   - Span filter. Nil keeps everything.
//
// Outputs:
//
//	*Batch - The accepted captures. Empty, never nil, when nothing matched.
//	error  - Non-nil only when ctx is done.
func Run(ctx context.Context, q *Query, forest *tsitter.Tree, pred Predicate, opts ...RunOption) (*Batch, error) {
	cfg := runConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, span := tracer.Start(ctx, "query.Run",
		trace.WithAttributes(
			attribute.String("query.language", q.lang),
			attribute.StringSlice("query.captures", q.Accepted()),
		),
	)
	defer span.End()
	start := time.Now()

	b := &Batch{members: make(map[memberKey]struct{})}
	trees := 0
	var err error
	langtree.Walk(forest, func(t langtree.Tree, _ int) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		st, ok := t.(*tsitter.Tree)
		if !ok || st.Lang() != q.lang {
			return true
		}
		trees++
		b.collect(q, st, pred)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("query canceled: %w", err)
	}

	span.SetAttributes(
		attribute.Int("query.trees", trees),
		attribute.Int("query.captures_found", len(b.captures)),
	)
	cfg.logger.Debug("query batch collected",
		slog.String("lang", q.lang),
		slog.Int("trees", trees),
		slog.Int("captures", len(b.captures)),
		slog.Duration("duration", time.Since(start)),
	)
	return b, nil
}

// collect appends the accepted captures of t.
func (b *Batch) collect(q *Query, t *tsitter.Tree, pred Predicate) {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q.q, t.SitterRoot())

	seen := make(map[string]struct{})
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		m = cursor.FilterPredicates(m, t.Source())
		if m == nil || len(m.Captures) == 0 {
			continue
		}
		for _, c := range groupMatch(q, t, m) {
			if pred != nil && !pred(c.Range) {
				continue
			}
			key := c.Name + "@" + c.Range.String()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			b.add(c)
		}
	}
}

// groupMatch turns one match into captures, one per accepted name, in
// order of first appearance.
func groupMatch(q *Query, t *tsitter.Tree, m *sitter.QueryMatch) []Capture {
	var out []Capture
	index := make(map[uint32]int)
	for _, qc := range m.Captures {
		id := qc.Index
		if int(id) >= len(q.accepted) || !q.accepted[id] {
			continue
		}
		n := t.Wrap(qc.Node)
		if n == nil {
			continue
		}
		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			out = append(out, Capture{Name: q.names[id], Tree: t, Range: n.Range()})
		}
		c := &out[i]
		c.Nodes = append(c.Nodes, n)
		c.Range = textrange.FromPoints(c.Nodes[0].Range().Start, n.Range().End)
	}
	return out
}

func (b *Batch) add(c Capture) {
	b.captures = append(b.captures, c)
	b.members[memberKey{tree: c.Tree, r: c.Range}] = struct{}{}
	for _, n := range c.Nodes {
		b.members[memberKey{tree: c.Tree, r: n.Range()}] = struct{}{}
	}
}
