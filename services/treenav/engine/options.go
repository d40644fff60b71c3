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
	"fmt"

	"github.com/AleutianAI/treenav/services/treenav/enabler"
	"github.com/AleutianAI/treenav/services/treenav/textrange"
)

// Unset marks a budget or level difference as not configured.
//
// For budgets (MaxAscend, MaxDescend, MaxLinkDst, MaxSkip) it means
// unlimited. For LvlDiff and AncestorDiff it disables that policy. Zero is
// always a literal zero.
const Unset = -1

// Priority selects which sibling-search policy returns immediately when it
// matches. The other policy only records a fallback candidate.
type Priority int

const (
	// PrioritizeLvlDiff prefers nodes close to the origin's depth.
	PrioritizeLvlDiff Priority = iota

	// PrioritizeAncestorDiff prefers nodes far enough below the shared
	// ancestor.
	PrioritizeAncestorDiff
)

// String returns the configuration name of the priority.
func (p Priority) String() string {
	switch p {
	case PrioritizeLvlDiff:
		return "lvl_diff"
	case PrioritizeAncestorDiff:
		return "ancestor_diff"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// ParsePriority maps a configuration name to a Priority.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "", "lvl_diff":
		return PrioritizeLvlDiff, nil
	case "ancestor_diff":
		return PrioritizeAncestorDiff, nil
	}
	return 0, ValidationError{Field: "prioritize", Message: fmt.Sprintf("unknown policy %q", s)}
}

// Acceptor is an alternative to type filtering: it decides whether a
// position is an acceptable stop. Query batches implement it.
type Acceptor interface {
	Accept(pos Position) bool
}

// Options controls a single navigation call.
//
// Build with DefaultOptions and override fields; the zero value has every
// budget set to a literal zero and therefore finds almost nothing.
type Options struct {
	// Types accepts node types. Nil accepts every type.
	Types *enabler.Set

	// Langs gates language-tree crossing. Nil disables crossing entirely:
	// navigation stays in the tree it started in. A non-nil set enables
	// crossing into and out of the languages it accepts.
	Langs *enabler.Set

	// Matcher, when set, replaces Types as the acceptance test.
	Matcher Acceptor

	// MaxAscend caps how many range-growing parent steps a search may take.
	MaxAscend int

	// MaxDescend caps how deep a search may descend below its start.
	MaxDescend int

	// MaxLinkDst caps the distance to the shared ancestor in sibling search
	// and the ascent in graph search.
	MaxLinkDst int

	// MaxSkip caps the number of siblings a sibling search visits.
	MaxSkip int

	// LvlDiff accepts sibling-search candidates whose depth relative to the
	// origin is at most this value.
	LvlDiff int

	// AncestorDiff accepts sibling-search candidates at least this many
	// levels below the shared ancestor.
	AncestorDiff int

	Prioritize Priority

	// Fallback returns the last visited sibling when nothing is accepted.
	Fallback bool

	// AllowChild lets Next start with the origin's own children.
	AllowChild bool

	// CompareEnd tests candidate end points against the base point instead
	// of start points.
	CompareEnd bool

	// StartPoint overrides the base point of graph search.
	StartPoint *textrange.Point
}

// DefaultOptions returns options with every budget unlimited, both sibling
// policies unset, all types accepted and crossing disabled.
func DefaultOptions() Options {
	return Options{
		MaxAscend:    Unset,
		MaxDescend:   Unset,
		MaxLinkDst:   Unset,
		MaxSkip:      Unset,
		LvlDiff:      Unset,
		AncestorDiff: Unset,
	}
}

// Validate checks that numeric fields are Unset or non-negative and that the
// priority is known.
func (o Options) Validate() error {
	budgets := []struct {
		name string
		v    int
	}{
		{"max_ascend", o.MaxAscend},
		{"max_descend", o.MaxDescend},
		{"max_link_dst", o.MaxLinkDst},
		{"max_skip", o.MaxSkip},
		{"lvl_diff", o.LvlDiff},
		{"ancestor_diff", o.AncestorDiff},
	}
	for _, b := range budgets {
		if b.v < Unset {
			return ValidationError{Field: b.name, Message: "must be >= -1"}
		}
	}
	if o.Prioritize != PrioritizeLvlDiff && o.Prioritize != PrioritizeAncestorDiff {
		return ValidationError{Field: "prioritize", Message: "unknown policy"}
	}
	return nil
}

// crossing reports whether language boundaries may be crossed.
func (o *Options) crossing() bool {
	return o.Langs != nil
}

// acceptsLang reports whether nodes of lang may be returned.
func (o *Options) acceptsLang(lang string) bool {
	return o.Langs == nil || o.Langs.Get(lang)
}

// accepts is the full acceptance test for a candidate position.
func (o *Options) accepts(pos Position) bool {
	if !o.acceptsLang(pos.Tree.Lang()) {
		return false
	}
	if o.Matcher != nil {
		return o.Matcher.Accept(pos)
	}
	return o.Types.Get(pos.Node.Type())
}

// within reports whether n stays inside budget.
func within(budget, n int) bool {
	return budget < 0 || n <= budget
}

// minBudget returns the tighter of two budgets, treating Unset as unlimited.
func minBudget(a, b int) int {
	switch {
	case a < 0:
		return b
	case b < 0:
		return a
	case a < b:
		return a
	}
	return b
}
