// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const excerptSource = "local x = 1\nprint(x)\nreturn x\nend"

func TestExcerpt_SingleLine(t *testing.T) {
	got := Excerpt([]byte(excerptSource), Span{StartRow: 1, StartCol: 0, EndRow: 1, EndCol: 5}, 0, true)
	assert.Equal(t, "   2 │ [[print]](x)\n", got)
}

func TestExcerpt_MultiLineWithContext(t *testing.T) {
	got := Excerpt([]byte(excerptSource), Span{StartRow: 1, StartCol: 6, EndRow: 2, EndCol: 6}, 1, true)
	want := "   1 │ local x = 1\n" +
		"   2 │ print([[x)]]\n" +
		"   3 │ [[return]] x\n" +
		"   4 │ end\n"
	assert.Equal(t, want, got)
}

func TestExcerpt_Clamps(t *testing.T) {
	got := Excerpt([]byte(excerptSource), Span{StartRow: 3, StartCol: 1, EndRow: 3, EndCol: 99}, 5, true)
	assert.True(t, strings.HasSuffix(got, "   4 │ e[[nd]]\n"))
	assert.Equal(t, 4, strings.Count(got, "\n"))

	assert.Empty(t, Excerpt([]byte(excerptSource), Span{StartRow: 10, EndRow: 10}, 0, true))

	empty := Excerpt([]byte(excerptSource), Span{StartRow: 0, StartCol: 2, EndRow: 0, EndCol: 2}, 0, true)
	assert.Equal(t, "   1 │ local x = 1\n", empty)
}

func TestExcerpt_Styled(t *testing.T) {
	got := Excerpt([]byte(excerptSource), Span{StartRow: 1, EndRow: 1, EndCol: 5}, 0, false)
	assert.Contains(t, got, "print")
	assert.NotContains(t, got, "[[")
}

func TestPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.Title("hidden title")
	p.Line(IconSuccess, "found")
	p.Muted("not found")
	p.Box("node", "body")

	assert.Equal(t, "found\nnot found\nnode:\nbody\n", buf.String())
}

func TestPrinter_Styled(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Title("Forest")
	p.Line(IconArrow, "lua")
	p.Box("node", "body")

	out := buf.String()
	assert.Contains(t, out, "Forest")
	assert.Contains(t, out, "→")
	assert.Contains(t, out, "lua")
	assert.Contains(t, out, "╭")
}

func TestIcon_Render(t *testing.T) {
	for _, icon := range []Icon{IconSuccess, IconWarning, IconError, IconArrow, IconBullet} {
		assert.Contains(t, icon.Render(), string(icon))
	}
}
