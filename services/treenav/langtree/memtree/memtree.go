// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package memtree is an in-memory langtree provider built from
// s-expressions.
//
// It exists so that navigation behavior can be pinned against exact tree
// shapes without depending on a grammar's output:
//
//	md := memtree.MustParse("markdown", "(document (fence (info) (content:20)))")
//	lua := md.MustInject("lua", "(chunk (call (name) (args)))", "content")
//
// Layout is deterministic. Every node lives on one row. A leaf occupies
// width columns (default 1, set with the "type:width" suffix) followed by a
// one column gap. An inner node spans from its first child's start to its
// last child's end, so a node with a single child shares that child's range
// exactly, which is how identical-range stacks are written:
//
//	(expression (call (identifier)))
//
// An injected tree is laid out from the start of its host leaf and must fit
// inside it.
package memtree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/AleutianAI/treenav/services/treenav/langtree"
	"github.com/AleutianAI/treenav/services/treenav/textrange"
)

// Sentinel errors for fixture construction.
var (
	ErrSyntax       = errors.New("s-expression syntax error")
	ErrHostNotFound = errors.New("injection host not found")
	ErrHostTooSmall = errors.New("injected tree does not fit its host")
)

// Tree is an immutable in-memory language tree.
type Tree struct {
	lang     string
	root     *node
	parent   *Tree
	region   textrange.Range
	children []*Tree
}

type node struct {
	typ      string
	rng      textrange.Range
	parent   *node
	children []*node
	index    int
	tree     *Tree
}

// wrap converts an absent node into a nil interface.
func wrap(n *node) langtree.Node {
	if n == nil {
		return nil
	}
	return n
}

// Parse builds a root tree laid out from row 0, column 0.
func Parse(lang, sexpr string) (*Tree, error) {
	return parseAt(lang, sexpr, textrange.Point{})
}

// MustParse is Parse for test fixtures; it panics on error.
func MustParse(lang, sexpr string) *Tree {
	t, err := Parse(lang, sexpr)
	if err != nil {
		panic(err)
	}
	return t
}

func parseAt(lang, sexpr string, origin textrange.Point) (*Tree, error) {
	p := &parser{src: sexpr}
	spec, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("%w: trailing input at %d", ErrSyntax, p.pos)
	}

	t := &Tree{lang: lang}
	col := origin.Column
	t.root = layout(spec, t, nil, 0, origin.Row, &col)
	t.region = t.root.rng
	return t, nil
}

// Inject parses sexpr as a tree of language lang and injects it into the
// first leaf of type hostType (pre-order) that is not already hosting an
// injection.
func (t *Tree) Inject(lang, sexpr, hostType string) (*Tree, error) {
	var host *node
	t.root.walk(func(n *node) bool {
		if n.typ == hostType && len(n.children) == 0 && !t.hosts(n.rng) {
			host = n
			return false
		}
		return true
	})
	if host == nil {
		return nil, fmt.Errorf("%w: %q in %s tree", ErrHostNotFound, hostType, t.lang)
	}

	child, err := parseAt(lang, sexpr, host.rng.Start)
	if err != nil {
		return nil, err
	}
	if !host.rng.Contains(child.root.rng) {
		return nil, fmt.Errorf("%w: %s needs %s, host %s is %s",
			ErrHostTooSmall, lang, child.root.rng, hostType, host.rng)
	}
	child.parent = t
	child.region = host.rng
	t.children = append(t.children, child)
	return child, nil
}

// MustInject is Inject for test fixtures; it panics on error.
func (t *Tree) MustInject(lang, sexpr, hostType string) *Tree {
	c, err := t.Inject(lang, sexpr, hostType)
	if err != nil {
		panic(err)
	}
	return c
}

func (t *Tree) hosts(r textrange.Range) bool {
	for _, c := range t.children {
		if c.region.Equal(r) {
			return true
		}
	}
	return false
}

// Find returns the first node of type typ in pre-order, or nil.
func (t *Tree) Find(typ string) langtree.Node {
	return wrap(t.find(typ, 0))
}

// FindNth returns the n-th (0-based) node of type typ in pre-order, or nil.
func (t *Tree) FindNth(typ string, n int) langtree.Node {
	return wrap(t.find(typ, n))
}

func (t *Tree) find(typ string, nth int) *node {
	var found *node
	t.root.walk(func(n *node) bool {
		if n.typ == typ {
			if nth == 0 {
				found = n
				return false
			}
			nth--
		}
		return true
	})
	return found
}

// Lang implements langtree.Tree.
func (t *Tree) Lang() string { return t.lang }

// Parent implements langtree.Tree.
func (t *Tree) Parent() langtree.Tree {
	if t.parent == nil {
		return nil
	}
	return t.parent
}

// Root implements langtree.Tree.
func (t *Tree) Root() langtree.Node { return t.root }

// Region implements langtree.Tree.
func (t *Tree) Region() textrange.Range { return t.region }

// Children implements langtree.Tree.
func (t *Tree) Children() []langtree.Tree {
	out := make([]langtree.Tree, len(t.children))
	for i, c := range t.children {
		out[i] = c
	}
	return out
}

// NodeForRange implements langtree.Tree.
func (t *Tree) NodeForRange(r textrange.Range) langtree.Node {
	if !t.root.rng.Contains(r) {
		return nil
	}
	cur := t.root
	for {
		next := (*node)(nil)
		for _, c := range cur.children {
			if c.rng.Contains(r) {
				next = c
				break
			}
		}
		if next == nil {
			return cur
		}
		cur = next
	}
}

// LanguageForRange implements langtree.Tree.
func (t *Tree) LanguageForRange(r textrange.Range) langtree.Tree {
	for _, c := range t.children {
		if c.region.Contains(r) {
			return c.LanguageForRange(r)
		}
	}
	return t
}

// Type implements langtree.Node.
func (n *node) Type() string { return n.typ }

// Range implements langtree.Node.
func (n *node) Range() textrange.Range { return n.rng }

// Parent implements langtree.Node.
func (n *node) Parent() langtree.Node { return wrap(n.parent) }

// NamedChildCount implements langtree.Node.
func (n *node) NamedChildCount() int { return len(n.children) }

// NamedChild implements langtree.Node.
func (n *node) NamedChild(i int) langtree.Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// NextNamedSibling implements langtree.Node.
func (n *node) NextNamedSibling() langtree.Node {
	if n.parent == nil || n.index+1 >= len(n.parent.children) {
		return nil
	}
	return n.parent.children[n.index+1]
}

// PrevNamedSibling implements langtree.Node.
func (n *node) PrevNamedSibling() langtree.Node {
	if n.parent == nil || n.index == 0 {
		return nil
	}
	return n.parent.children[n.index-1]
}

// Equal implements langtree.Node.
func (n *node) Equal(other langtree.Node) bool {
	o, ok := other.(*node)
	return ok && o == n
}

// String renders "type@range" for test failure messages.
func (n *node) String() string {
	return n.typ + "@" + n.rng.String()
}

func (n *node) walk(fn func(*node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

// nodeSpec is the parsed, not yet positioned, form of a node.
type nodeSpec struct {
	typ      string
	width    int
	children []*nodeSpec
}

func layout(s *nodeSpec, t *Tree, parent *node, index, row int, col *int) *node {
	n := &node{typ: s.typ, parent: parent, index: index, tree: t}
	if len(s.children) == 0 {
		start := *col
		*col += s.width
		n.rng = textrange.New(row, start, row, *col)
		*col++
		return n
	}
	for i, cs := range s.children {
		n.children = append(n.children, layout(cs, t, n, i, row, col))
	}
	first := n.children[0].rng
	last := n.children[len(n.children)-1].rng
	n.rng = textrange.FromPoints(first.Start, last.End)
	return n
}

type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) parseNode() (*nodeSpec, error) {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '(' {
		return nil, fmt.Errorf("%w: expected '(' at %d", ErrSyntax, p.pos)
	}
	p.pos++
	p.skipSpace()

	start := p.pos
	for p.pos < len(p.src) && !unicode.IsSpace(rune(p.src[p.pos])) && p.src[p.pos] != '(' && p.src[p.pos] != ')' {
		p.pos++
	}
	atom := p.src[start:p.pos]
	if atom == "" {
		return nil, fmt.Errorf("%w: missing node type at %d", ErrSyntax, start)
	}

	spec := &nodeSpec{typ: atom, width: 1}
	if typ, w, ok := strings.Cut(atom, ":"); ok {
		width, err := strconv.Atoi(w)
		if err != nil || width < 1 {
			return nil, fmt.Errorf("%w: bad width in %q", ErrSyntax, atom)
		}
		spec.typ, spec.width = typ, width
	}

	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("%w: unterminated %q", ErrSyntax, spec.typ)
		}
		if p.src[p.pos] == ')' {
			p.pos++
			return spec, nil
		}
		child, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		spec.children = append(spec.children, child)
	}
}
