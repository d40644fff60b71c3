// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tsitter builds language-tree forests with tree-sitter.
//
// A forest is the tree of a buffer's host language plus the trees of every
// region injected into it: the Lua inside a Markdown code fence, the
// JavaScript inside an HTML script element. Injected regions are parsed
// from the same buffer with included ranges, so every node of every tree
// reports positions in buffer coordinates.
//
// Example:
//
//	b := tsitter.NewBuilder(tsitter.WithLogger(logger))
//	forest, err := b.Build(ctx, content, "markdown")
//	if err != nil {
//	    return err
//	}
//	defer forest.Close()
//	nav := engine.NewNavigator(forest)
package tsitter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxFileSize is the largest buffer Build accepts (10MB).
	DefaultMaxFileSize = 10 * 1024 * 1024

	// DefaultMaxInjectionDepth limits how many injection levels are built.
	DefaultMaxInjectionDepth = 4
)

// Builder parses buffers into forests.
//
// Thread Safety:
//
//	Builder is safe for concurrent use. Each Build call uses its own
//	tree-sitter parsers.
type Builder struct {
	registry    *Registry
	rules       []InjectionRule
	maxDepth    int
	maxFileSize int
	parallelism int
	logger      *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithRegistry replaces the default grammar registry.
func WithRegistry(r *Registry) Option {
	return func(b *Builder) {
		if r != nil {
			b.registry = r
		}
	}
}

// WithInjections replaces the injection rules. Passing none disables
// injection.
func WithInjections(rules ...InjectionRule) Option {
	return func(b *Builder) {
		b.rules = rules
	}
}

// WithMaxInjectionDepth sets how many injection levels are built.
// Zero builds the host tree only.
func WithMaxInjectionDepth(depth int) Option {
	return func(b *Builder) {
		if depth >= 0 {
			b.maxDepth = depth
		}
	}
}

// WithMaxFileSize sets the maximum buffer size in bytes.
func WithMaxFileSize(size int) Option {
	return func(b *Builder) {
		if size > 0 {
			b.maxFileSize = size
		}
	}
}

// WithParallelism caps how many sibling injections are parsed at once.
func WithParallelism(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.parallelism = n
		}
	}
}

// WithLogger sets the logger for skipped injections and build summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a Builder with the default registry and injection
// rules.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		registry:    DefaultRegistry(),
		rules:       DefaultInjections(),
		maxDepth:    DefaultMaxInjectionDepth,
		maxFileSize: DefaultMaxFileSize,
		parallelism: runtime.NumCPU(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Registry returns the grammar registry used by the builder.
func (b *Builder) Registry() *Registry {
	return b.registry
}

// Build parses content as lang and every injected region below it.
//
// Description:
//
//	Parses the host tree, finds injection sites with the builder's rules,
//	and parses each site's content region with the site's grammar using
//	included ranges. Sibling sites are parsed concurrently; nesting is
//	followed up to the maximum injection depth. Sites naming a language
//	without a registered grammar are skipped with a warning.
//
// Inputs:
//
//	ctx     - Context for cancellation. Checked before and after parsing.
//	content - Source bytes. Must be valid UTF-8.
//	lang    - Host language name or alias.
//
// Outputs:
//
//	*Tree - The root of the forest. The caller must Close it.
//	error - ErrUnsupportedLanguage, ErrFileTooLarge, ErrInvalidContent, or
//	        a *ParseError for a failed region.
func (b *Builder) Build(ctx context.Context, content []byte, lang string) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build canceled before start: %w", err)
	}
	if len(content) > b.maxFileSize {
		return nil, ErrFileTooLarge
	}
	if !utf8.Valid(content) {
		return nil, ErrInvalidContent
	}
	g, ok := b.registry.Lookup(lang)
	if !ok {
		return nil, fmt.Errorf("%q: %w", lang, ErrUnsupportedLanguage)
	}

	ctx, span := startBuildSpan(ctx, g.Name, len(content))
	defer span.End()
	start := time.Now()

	ts, err := parseRegion(ctx, g, content, nil)
	if err != nil {
		recordBuildMetrics(ctx, g.Name, time.Since(start), 0, false)
		return nil, wrapParseError(err, g.Name, 0, 0)
	}
	root := &Tree{lang: g.Name, grammar: g, tree: ts, src: content}
	root.region = rangeOf(ts.RootNode())

	if err := b.inject(ctx, root, 1); err != nil {
		root.Close()
		recordBuildMetrics(ctx, g.Name, time.Since(start), 0, false)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		root.Close()
		return nil, fmt.Errorf("build canceled after parsing: %w", err)
	}

	injected := countInjected(root)
	setBuildSpanResult(span, injected)
	recordBuildMetrics(ctx, g.Name, time.Since(start), injected, true)
	b.logger.Debug("forest built",
		slog.String("lang", g.Name),
		slog.Int("bytes", len(content)),
		slog.Int("injected_trees", injected),
		slog.Duration("duration", time.Since(start)),
	)
	return root, nil
}

// BuildFile reads path and builds it with the grammar chosen by its name.
func (b *Builder) BuildFile(ctx context.Context, path string) (*Tree, error) {
	g, ok := b.registry.ForPath(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedLanguage)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b.Build(ctx, content, g.Name)
}

// inject builds the trees injected into t, recursively.
func (b *Builder) inject(ctx context.Context, t *Tree, depth int) error {
	if depth > b.maxDepth {
		return nil
	}
	sites := findSites(t.tree.RootNode(), t.src, t.lang, b.rules)
	if len(sites) == 0 {
		return nil
	}

	children := make([]*Tree, len(sites))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallelism)
	for i, s := range sites {
		grammar, ok := b.registry.Lookup(s.lang)
		if !ok {
			b.logger.Warn("skipping injection with unknown language",
				slog.String("host", t.lang),
				slog.String("lang", s.lang),
				slog.String("at", rangeOf(s.content).String()),
			)
			recordSkippedInjection(ctx, t.lang, s.lang)
			continue
		}
		region := rangeOf(s.content)
		included := sitter.Range{
			StartPoint: s.content.StartPoint(),
			EndPoint:   s.content.EndPoint(),
			StartByte:  s.content.StartByte(),
			EndByte:    s.content.EndByte(),
		}
		g.Go(func() error {
			ts, err := parseRegion(gctx, grammar, t.src, &included)
			if err != nil {
				return wrapParseError(err, grammar.Name, region.Start.Row, region.Start.Column)
			}
			child := &Tree{
				lang:    grammar.Name,
				grammar: grammar,
				tree:    ts,
				src:     t.src,
				parent:  t,
				region:  region,
			}
			children[i] = child
			return b.inject(gctx, child, depth+1)
		})
	}
	err := g.Wait()

	// Attach even on error so Close releases everything parsed.
	for _, c := range children {
		if c != nil {
			t.children = append(t.children, c)
		}
	}
	return err
}

// parseRegion parses src with g, restricted to one included range when
// given.
func parseRegion(ctx context.Context, g Grammar, src []byte, included *sitter.Range) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(g.Language)
	if included != nil {
		parser.SetIncludedRanges([]sitter.Range{*included})
	}

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	if tree == nil {
		return nil, ErrParseFailed
	}
	return tree, nil
}

func countInjected(t *Tree) int {
	n := 0
	for _, c := range t.children {
		n += 1 + countInjected(c)
	}
	return n
}
