// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/treenav/pkg/ux"
	"github.com/AleutianAI/treenav/services/treenav/engine"
	"github.com/AleutianAI/treenav/services/treenav/langtree"
	"github.com/AleutianAI/treenav/services/treenav/query"
	"github.com/AleutianAI/treenav/services/treenav/textrange"
	"github.com/AleutianAI/treenav/services/treenav/tsitter"
	"github.com/spf13/cobra"
)

// Operations accepted by --op.
const (
	opParent      = "parent"
	opChild       = "child"
	opNextSibling = "next-sibling"
	opPrevSibling = "prev-sibling"
	opNext        = "next"
	opPrev        = "prev"
)

var errUnknownOp = errors.New("unknown operation")

var validOps = []string{opParent, opChild, opNextSibling, opPrevSibling, opNext, opPrev}

// moveFlags are shared by move and watch.
type moveFlags struct {
	at     string
	op     string
	action string
	index  int
	repeat int
}

func (f *moveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.at, "at", "", "Start position ROW:COL or range ROW:COL-ROW:COL")
	cmd.Flags().StringVar(&f.op, "op", "", "Operation: "+strings.Join(validOps, ", "))
	cmd.Flags().StringVar(&f.action, "action", "", "Preset or action name supplying navigation options")
	cmd.Flags().IntVar(&f.index, "index", 0, "Child index for --op child (0 first, -1 last)")
	cmd.Flags().IntVar(&f.repeat, "repeat", 1, "Apply the operation this many times")
	_ = cmd.MarkFlagRequired("at")
	_ = cmd.MarkFlagRequired("op")
}

func (f *moveFlags) validate() error {
	for _, op := range validOps {
		if f.op == op {
			if f.repeat < 1 {
				return fmt.Errorf("--repeat must be at least 1, got %d", f.repeat)
			}
			return nil
		}
	}
	return fmt.Errorf("%w %q (want one of %s)", errUnknownOp, f.op, strings.Join(validOps, ", "))
}

func newResolveCmd(a *app) *cobra.Command {
	var at, action string
	cmd := &cobra.Command{
		Use:   "resolve FILE",
		Short: "Print the node at a position and its ancestors",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&at, "at", "", "Position ROW:COL or range ROW:COL-ROW:COL")
	cmd.Flags().StringVar(&action, "action", "", "Preset or action name supplying navigation options")
	_ = cmd.MarkFlagRequired("at")

	cmd.RunE = a.command("resolve", func(ctx context.Context, args []string) error {
		r, err := textrange.Parse(at)
		if err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		o, err := a.store.Options(action)
		if err != nil {
			return err
		}
		forest, err := a.builder.BuildFile(ctx, args[0])
		if err != nil {
			return err
		}
		defer forest.Close()

		nav := engine.NewNavigator(forest, engine.WithLogger(a.logger.Slog()))
		pos, ok := nav.Resolve(ctx, r, o)
		if !ok {
			return fmt.Errorf("%w at %s", errNotFound, r)
		}
		a.printer.Title(args[0] + " @ " + r.String())
		for i, p := range nav.Path(ctx, pos, o) {
			if err := a.emitPosition(forest, i, p); err != nil {
				return err
			}
		}
		return nil
	})
	return cmd
}

func newMoveCmd(a *app) *cobra.Command {
	var f moveFlags
	cmd := &cobra.Command{
		Use:   "move FILE",
		Short: "Move from a position with a navigation operation",
		Long: `Resolves --at to a node, then applies --op up to --repeat times,
printing each step. Repetition stops at the first step that finds nothing.`,
		Args: cobra.ExactArgs(1),
	}
	f.register(cmd)

	cmd.RunE = a.command("move", func(ctx context.Context, args []string) error {
		if err := f.validate(); err != nil {
			return err
		}
		forest, err := a.builder.BuildFile(ctx, args[0])
		if err != nil {
			return err
		}
		defer forest.Close()
		return a.move(ctx, forest, f)
	})
	return cmd
}

// move resolves the start position and applies the operation.
func (a *app) move(ctx context.Context, forest *tsitter.Tree, f moveFlags) error {
	r, err := textrange.Parse(f.at)
	if err != nil {
		return fmt.Errorf("--at: %w", err)
	}
	o, err := a.store.Options(f.action)
	if err != nil {
		return err
	}

	nav := engine.NewNavigator(forest, engine.WithLogger(a.logger.Slog()))
	pos, ok := nav.Resolve(ctx, r, o)
	if !ok {
		return fmt.Errorf("%w at %s", errNotFound, r)
	}

	steps := 0
	for steps < f.repeat {
		next, ok := step(ctx, nav, f, pos, o)
		if !ok {
			break
		}
		steps++
		pos = next
		if err := a.emitPosition(forest, steps, pos); err != nil {
			return err
		}
	}

	a.logger.Debug("move finished",
		slog.String("op", f.op),
		slog.Int("steps", steps),
		slog.Int("requested", f.repeat),
	)
	if steps == 0 {
		return fmt.Errorf("%w: %s from %s", errNotFound, f.op, r)
	}
	if steps < f.repeat {
		a.printer.Muted(fmt.Sprintf("stopped after %d of %d steps", steps, f.repeat))
	}
	return nil
}

func step(ctx context.Context, nav *engine.Navigator, f moveFlags, pos engine.Position, o engine.Options) (engine.Position, bool) {
	switch f.op {
	case opParent:
		return nav.Parent(ctx, pos, o)
	case opChild:
		return nav.Child(ctx, pos, o, f.index)
	case opNextSibling:
		return nav.Sibling(ctx, pos, engine.Forward, o)
	case opPrevSibling:
		return nav.Sibling(ctx, pos, engine.Backward, o)
	case opNext:
		return nav.Next(ctx, pos, o)
	case opPrev:
		return nav.Prev(ctx, pos, o)
	}
	return engine.Position{}, false
}

func newQueryCmd(a *app) *cobra.Command {
	var (
		lang     string
		source   string
		captures []string
		within   string
	)
	cmd := &cobra.Command{
		Use:   "query FILE",
		Short: "Run a tree-sitter query and print the captured spans",
		Long: `Runs --query against every tree of --lang in the file's forest,
including trees embedded in Markdown fences or HTML. Only the named
--captures are kept; names may be glob patterns such as 'func.*'.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&lang, "lang", "", "Query language (defaults to the file's language)")
	cmd.Flags().StringVar(&source, "query", "", "Query source in tree-sitter s-expression syntax")
	cmd.Flags().StringSliceVar(&captures, "captures", []string{"*"}, "Capture names or patterns to keep")
	cmd.Flags().StringVar(&within, "within", "", "Keep only captures inside ROW:COL-ROW:COL")
	_ = cmd.MarkFlagRequired("query")

	cmd.RunE = a.command("query", func(ctx context.Context, args []string) error {
		forest, err := a.builder.BuildFile(ctx, args[0])
		if err != nil {
			return err
		}
		defer forest.Close()

		g := forest.Grammar()
		if lang != "" {
			var ok bool
			if g, ok = a.builder.Registry().Lookup(lang); !ok {
				return fmt.Errorf("%q: %w", lang, tsitter.ErrUnsupportedLanguage)
			}
		}

		var pred query.Predicate
		if within != "" {
			r, err := textrange.Parse(within)
			if err != nil {
				return fmt.Errorf("--within: %w", err)
			}
			pred = query.ContainedBy(r)
		}

		q, err := query.Compile(g, source, query.Captures(captures...))
		if err != nil {
			return err
		}
		defer q.Close()

		batch, err := query.Run(ctx, q, forest, pred, query.WithLogger(a.logger.Slog()))
		if err != nil {
			return err
		}
		if batch.Len() == 0 {
			return fmt.Errorf("%w for query in %s", errNotFound, g.Name)
		}
		for _, c := range batch.Captures() {
			pos := c.Position()
			v := nodeView{
				Capture: c.Name,
				Lang:    c.Tree.Lang(),
				Type:    pos.Type(),
				Range:   c.Range,
				Text:    nodeText(pos),
			}
			if err := a.emit(forest, "@"+c.Name+" "+c.Tree.Lang()+":"+c.Range.String(), v); err != nil {
				return err
			}
		}
		return nil
	})
	return cmd
}

func newTreesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trees FILE",
		Short: "Print the language trees of a file",
		Args:  cobra.ExactArgs(1),
		RunE: a.command("trees", func(ctx context.Context, args []string) error {
			forest, err := a.builder.BuildFile(ctx, args[0])
			if err != nil {
				return err
			}
			defer forest.Close()

			a.printer.Title(args[0])
			var emitErr error
			langtree.Walk(forest, func(t langtree.Tree, depth int) bool {
				if a.jsonOut {
					emitErr = a.emit(forest, "", nodeView{Lang: t.Lang(), Range: t.Region(), Depth: depth})
					return emitErr == nil
				}
				icon := ux.IconBullet
				if depth > 0 {
					icon = ux.IconArrow
				}
				a.printer.Line(icon, strings.Repeat("  ", depth)+t.Lang()+" "+t.Region().String())
				return true
			})
			return emitErr
		}),
	}
}
