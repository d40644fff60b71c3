// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tsitter

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Node types used by the default injection rules.
const (
	markdownNodeFencedCodeBlock  = "fenced_code_block"
	markdownNodeLanguage         = "language"
	markdownNodeCodeFenceContent = "code_fence_content"

	htmlNodeScriptElement = "script_element"
	htmlNodeStyleElement  = "style_element"
	htmlNodeRawText       = "raw_text"
)

// InjectionRule describes where one language embeds another.
//
// A site is a Container node in a Host tree. The injected region is the
// Content node found below the container (or the container itself when
// Content equals Container). The injected language is either fixed by
// Language or read from the text of the LanguageNode below the container.
type InjectionRule struct {
	Host         string `yaml:"host" validate:"required"`
	Container    string `yaml:"container" validate:"required"`
	Content      string `yaml:"content" validate:"required"`
	LanguageNode string `yaml:"language_node,omitempty" validate:"required_without=Language"`
	Language     string `yaml:"language,omitempty" validate:"required_without=LanguageNode"`
}

// DefaultInjections returns the bundled rules: Markdown code fences, and
// HTML script and style elements.
func DefaultInjections() []InjectionRule {
	return []InjectionRule{
		{
			Host:         "markdown",
			Container:    markdownNodeFencedCodeBlock,
			Content:      markdownNodeCodeFenceContent,
			LanguageNode: markdownNodeLanguage,
		},
		{
			Host:      "html",
			Container: htmlNodeScriptElement,
			Content:   htmlNodeRawText,
			Language:  "javascript",
		},
		{
			Host:      "html",
			Container: htmlNodeStyleElement,
			Content:   htmlNodeRawText,
			Language:  "css",
		},
	}
}

// site is one injection found in a host tree.
type site struct {
	lang    string
	content *sitter.Node
}

// findSites walks the host tree in document order and returns the
// injection sites of the rules whose Host is lang. Sites nested inside an
// earlier site's container are not reported; they belong to the injected
// language.
func findSites(root *sitter.Node, src []byte, lang string, rules []InjectionRule) []site {
	var active []InjectionRule
	for _, r := range rules {
		if strings.EqualFold(r.Host, lang) {
			active = append(active, r)
		}
	}
	if len(active) == 0 || root == nil {
		return nil
	}

	var sites []site
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		for _, r := range active {
			if n.Type() != r.Container {
				continue
			}
			content := n
			if r.Content != r.Container {
				content = findDescendant(n, r.Content)
			}
			if content == nil || content.StartByte() == content.EndByte() {
				return
			}
			injected := r.Language
			if injected == "" {
				if ln := findDescendant(n, r.LanguageNode); ln != nil {
					injected = infoLanguage(ln.Content(src))
				}
			}
			if injected == "" {
				return
			}
			sites = append(sites, site{lang: injected, content: content})
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c != nil {
				visit(c)
			}
		}
	}
	visit(root)
	return sites
}

// findDescendant returns the first named descendant of n with type typ in
// pre-order, excluding n itself.
func findDescendant(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		if c.Type() == typ {
			return c
		}
		if d := findDescendant(c, typ); d != nil {
			return d
		}
	}
	return nil
}

// infoLanguage normalizes a code fence info word: "Lua", "{.lua}" and
// "lua,linenos" all give "lua".
func infoLanguage(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "{.")
	if i := strings.IndexAny(s, " \t,}"); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(s)
}
