// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides terminal output styling for the treenav CLI.
package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette: deep ocean teals.
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorTealDeep    = lipgloss.Color("#16858E") // borders
	ColorDeepSea     = lipgloss.Color("#104855") // selection background
	ColorSlate       = lipgloss.Color("#2C4A54") // muted text, gutters

	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Selection lipgloss.Style
	Gutter    lipgloss.Style
	Box       lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorTealBright),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),
	Selection: lipgloss.NewStyle().Background(ColorDeepSea).Foreground(ColorTealBright),
	Gutter:    lipgloss.NewStyle().Foreground(ColorSlate),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
}

// Icon is a themed status glyph.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Render returns the icon with its style.
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	case IconArrow:
		return Styles.Subtitle.Render(string(i))
	default:
		return string(i)
	}
}

// Printer writes styled lines. A plain printer writes unstyled text for
// scripts and pipes.
type Printer struct {
	w     io.Writer
	plain bool
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer, plain bool) *Printer {
	return &Printer{w: w, plain: plain}
}

// Title prints a styled title. Plain printers skip it.
func (p *Printer) Title(text string) {
	if p.plain {
		return
	}
	fmt.Fprintln(p.w, Styles.Title.Render(text))
}

// Line prints icon and text; plain printers print the text alone.
func (p *Printer) Line(icon Icon, text string) {
	if p.plain {
		fmt.Fprintln(p.w, text)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", icon.Render(), text)
}

// Muted prints de-emphasized text.
func (p *Printer) Muted(text string) {
	if p.plain {
		fmt.Fprintln(p.w, text)
		return
	}
	fmt.Fprintln(p.w, Styles.Muted.Render(text))
}

// Box prints content in a rounded box under a title.
func (p *Printer) Box(title, content string) {
	if p.plain {
		fmt.Fprintf(p.w, "%s:\n%s\n", title, content)
		return
	}
	fmt.Fprintln(p.w, Styles.Box.Render(Styles.Title.Render(title)+"\n"+content))
}

// Span is a zero-based half-open text span; columns are byte offsets.
type Span struct {
	StartRow, StartCol int
	EndRow, EndCol     int
}

// Excerpt renders the source lines covered by s, plus context lines on each
// side, with a line-number gutter and the span itself in the Selection
// style. Plain excerpts mark the span with [[ and ]].
func Excerpt(src []byte, s Span, context int, plain bool) string {
	lines := strings.Split(string(src), "\n")
	if len(lines) == 0 || s.StartRow >= len(lines) {
		return ""
	}
	first := max(0, s.StartRow-context)
	last := min(len(lines)-1, s.EndRow+context)

	mark := func(text string) string {
		if plain {
			return "[[" + text + "]]"
		}
		return Styles.Selection.Render(text)
	}

	var b strings.Builder
	for row := first; row <= last; row++ {
		line := lines[row]
		gutter := fmt.Sprintf("%4d │ ", row+1)
		if !plain {
			gutter = Styles.Gutter.Render(gutter)
		}
		b.WriteString(gutter)

		if row < s.StartRow || row > s.EndRow {
			b.WriteString(line)
			b.WriteByte('\n')
			continue
		}
		from, to := 0, len(line)
		if row == s.StartRow {
			from = min(s.StartCol, len(line))
		}
		if row == s.EndRow {
			to = min(max(s.EndCol, from), len(line))
		}
		b.WriteString(line[:from])
		if to > from {
			b.WriteString(mark(line[from:to]))
		}
		b.WriteString(line[to:])
		b.WriteByte('\n')
	}
	return b.String()
}
