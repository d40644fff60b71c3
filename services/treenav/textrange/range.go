// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package textrange provides the 2D (row, column) position and range types
// shared by every tree navigation component.
//
// Rows and columns are 0-indexed. Ranges are half-open: End is the first
// position after the range, matching what tree-sitter reports for nodes.
// All comparisons are lexicographic on (row, column), so the half-open
// convention only matters for CmpEnd and for callers translating to an
// editor's inclusive selection.
//
// Range and Point are values. Every transform returns a new value.
package textrange

import (
	"fmt"
	"strconv"
	"strings"
)

// Point is a (row, column) position in a buffer.
type Point struct {
	Row    int `json:"row" yaml:"row"`
	Column int `json:"column" yaml:"column"`
}

// Compare returns -1, 0 or 1 as p is before, equal to, or after o.
func (p Point) Compare(o Point) int {
	switch {
	case p.Row < o.Row:
		return -1
	case p.Row > o.Row:
		return 1
	case p.Column < o.Column:
		return -1
	case p.Column > o.Column:
		return 1
	}
	return 0
}

// Before reports whether p is strictly before o.
func (p Point) Before(o Point) bool { return p.Compare(o) < 0 }

// After reports whether p is strictly after o.
func (p Point) After(o Point) bool { return p.Compare(o) > 0 }

// String returns "row:col".
func (p Point) String() string {
	return fmt.Sprintf("%d:%d", p.Row, p.Column)
}

// Range is a half-open interval [Start, End) between two points.
//
// Invariants:
//   - Start <= End in (row, column) order. Construct with New to check it.
type Range struct {
	Start Point `json:"start" yaml:"start"`
	End   Point `json:"end" yaml:"end"`
}

// New builds a Range from its four coordinates.
//
// Panics if the start is after the end. A malformed range is a programming
// error in the caller, not a runtime condition.
func New(startRow, startCol, endRow, endCol int) Range {
	r := Range{
		Start: Point{Row: startRow, Column: startCol},
		End:   Point{Row: endRow, Column: endCol},
	}
	if r.Start.After(r.End) {
		panic(fmt.Sprintf("textrange: start %s after end %s", r.Start, r.End))
	}
	return r
}

// FromPoints builds a Range from two points with the same check as New.
func FromPoints(start, end Point) Range {
	return New(start.Row, start.Column, end.Row, end.Column)
}

// At returns the empty range positioned at p.
func At(p Point) Range {
	return Range{Start: p, End: p}
}

// Contains reports whether b lies fully inside a.
func Contains(a, b Range) bool {
	return a.Start.Compare(b.Start) <= 0 && b.End.Compare(a.End) <= 0
}

// Compare orders ranges by start point, then by end point.
//
// Suitable for sort.Slice and for < / <= tests via the sign of the result.
func Compare(a, b Range) int {
	if c := a.Start.Compare(b.Start); c != 0 {
		return c
	}
	return a.End.Compare(b.End)
}

// Equal reports whether both ranges cover exactly the same span.
func Equal(a, b Range) bool {
	return a.Start == b.Start && a.End == b.End
}

// CmpEnd compares the end of a with the start of b.
//
// A negative result means a ends strictly before b starts. Because ranges
// are half-open, CmpEnd(a, b) == 0 means a ends exactly where b begins and
// the two do not overlap.
func CmpEnd(a, b Range) int {
	return a.End.Compare(b.Start)
}

// Intersects reports whether a and b share at least one position, or are
// the same empty range.
func Intersects(a, b Range) bool {
	if Equal(a, b) {
		return true
	}
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains reports whether o lies fully inside r.
func (r Range) Contains(o Range) bool { return Contains(r, o) }

// Equal reports whether r and o cover the same span.
func (r Range) Equal(o Range) bool { return Equal(r, o) }

// ContainsPoint reports whether p is inside [Start, End).
func (r Range) ContainsPoint(p Point) bool {
	return r.Start.Compare(p) <= 0 && p.Before(r.End)
}

// IsEmpty reports whether the range covers no positions.
func (r Range) IsEmpty() bool { return r.Start == r.End }

// Narrow returns the range with its start moved one column inward.
//
// Used when looking up the language that governs a node's content: some
// grammars place the injected region one column after the node start
// (doc-comment markers, fence continuations). An empty or single-column
// range is returned unchanged.
func (r Range) Narrow() Range {
	next := Point{Row: r.Start.Row, Column: r.Start.Column + 1}
	if next.After(r.End) || next == r.End {
		return r
	}
	return Range{Start: next, End: r.End}
}

// String returns "sr:sc-er:ec".
func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// ParsePoint parses "row:col".
func ParsePoint(s string) (Point, error) {
	row, col, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Point{}, fmt.Errorf("point %q: want row:col", s)
	}
	r, err := strconv.Atoi(row)
	if err != nil {
		return Point{}, fmt.Errorf("point %q row: %w", s, err)
	}
	c, err := strconv.Atoi(col)
	if err != nil {
		return Point{}, fmt.Errorf("point %q column: %w", s, err)
	}
	if r < 0 || c < 0 {
		return Point{}, fmt.Errorf("point %q: negative coordinate", s)
	}
	return Point{Row: r, Column: c}, nil
}

// Parse parses "row:col" (an empty range) or "row:col-row:col".
func Parse(s string) (Range, error) {
	start, end, isSpan := strings.Cut(s, "-")
	sp, err := ParsePoint(start)
	if err != nil {
		return Range{}, err
	}
	if !isSpan {
		return At(sp), nil
	}
	ep, err := ParsePoint(end)
	if err != nil {
		return Range{}, err
	}
	if sp.After(ep) {
		return Range{}, fmt.Errorf("range %q: start after end", s)
	}
	return Range{Start: sp, End: ep}, nil
}
