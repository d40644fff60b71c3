// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package textrange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleRanges covers same-line, multi-line, nested, touching and empty ranges.
func sampleRanges() []Range {
	return []Range{
		New(0, 0, 0, 0),
		New(0, 0, 0, 5),
		New(0, 2, 0, 3),
		New(0, 5, 0, 9),
		New(0, 0, 3, 0),
		New(1, 4, 2, 1),
		New(2, 1, 2, 1),
		New(3, 0, 3, 7),
	}
}

func TestPoint_Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want int
	}{
		{"equal", Point{1, 2}, Point{1, 2}, 0},
		{"earlier row", Point{0, 9}, Point{1, 0}, -1},
		{"later row", Point{2, 0}, Point{1, 9}, 1},
		{"same row earlier col", Point{1, 1}, Point{1, 2}, -1},
		{"same row later col", Point{1, 3}, Point{1, 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
			assert.Equal(t, -tt.want, tt.b.Compare(tt.a))
		})
	}
}

func TestNew_PanicsOnInvertedRange(t *testing.T) {
	assert.Panics(t, func() { New(2, 0, 1, 0) })
	assert.Panics(t, func() { New(1, 5, 1, 4) })
	assert.NotPanics(t, func() { New(1, 4, 1, 4) })
}

func TestContains(t *testing.T) {
	outer := New(0, 0, 3, 0)
	assert.True(t, Contains(outer, New(1, 4, 2, 1)))
	assert.True(t, Contains(outer, outer))
	assert.False(t, Contains(New(1, 4, 2, 1), outer))
	assert.False(t, Contains(New(0, 0, 0, 5), New(0, 5, 0, 9)))
	assert.True(t, Contains(New(0, 0, 0, 5), New(0, 5, 0, 5)))
}

func TestContains_MutualImpliesEqual(t *testing.T) {
	for _, a := range sampleRanges() {
		for _, b := range sampleRanges() {
			if Contains(a, b) && Contains(b, a) {
				assert.True(t, Equal(a, b), "%s and %s", a, b)
			}
		}
	}
}

func TestCompare_Reflexive(t *testing.T) {
	for _, a := range sampleRanges() {
		assert.Equal(t, 0, Compare(a, a), a.String())
	}
}

func TestCompare_Ordering(t *testing.T) {
	assert.Negative(t, Compare(New(0, 0, 0, 5), New(0, 2, 0, 3)))
	assert.Negative(t, Compare(New(0, 0, 0, 5), New(0, 0, 3, 0)))
	assert.Positive(t, Compare(New(3, 0, 3, 7), New(1, 4, 2, 1)))
}

func TestCmpEnd_Antisymmetric(t *testing.T) {
	for _, a := range sampleRanges() {
		for _, b := range sampleRanges() {
			if CmpEnd(a, b) < 0 {
				assert.Positive(t, CmpEnd(b, a), "%s vs %s", a, b)
			}
		}
	}
}

func TestCmpEnd_Touching(t *testing.T) {
	left := New(0, 0, 0, 5)
	right := New(0, 5, 0, 9)
	assert.Equal(t, 0, CmpEnd(left, right))
	assert.False(t, Intersects(left, right))
	assert.Negative(t, CmpEnd(New(0, 2, 0, 3), right))
}

func TestIntersects(t *testing.T) {
	assert.True(t, Intersects(New(0, 0, 0, 5), New(0, 4, 0, 9)))
	assert.True(t, Intersects(New(1, 0, 1, 0), New(1, 0, 1, 0)))
	assert.False(t, Intersects(New(0, 0, 0, 1), New(0, 3, 0, 4)))
}

func TestRange_Narrow(t *testing.T) {
	r := New(2, 0, 4, 3)
	n := r.Narrow()
	assert.Equal(t, New(2, 1, 4, 3), n)
	assert.Equal(t, New(2, 0, 4, 3), r, "original must not change")

	single := New(1, 1, 1, 2)
	assert.Equal(t, single, single.Narrow())

	empty := New(1, 1, 1, 1)
	assert.Equal(t, empty, empty.Narrow())
}

func TestRange_ContainsPoint(t *testing.T) {
	r := New(1, 2, 1, 6)
	assert.True(t, r.ContainsPoint(Point{1, 2}))
	assert.True(t, r.ContainsPoint(Point{1, 5}))
	assert.False(t, r.ContainsPoint(Point{1, 6}))
	assert.False(t, r.ContainsPoint(Point{0, 4}))
}

func TestParse(t *testing.T) {
	r, err := Parse("3:4")
	require.NoError(t, err)
	assert.Equal(t, At(Point{3, 4}), r)

	r, err = Parse("1:0-2:7")
	require.NoError(t, err)
	assert.Equal(t, New(1, 0, 2, 7), r)
	assert.Equal(t, "1:0-2:7", r.String())

	for _, bad := range []string{"", "3", "a:1", "1:b", "2:0-1:0", "-1:0"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}
