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
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/dockerfile"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/lua"
	tree_sitter_markdown "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/sql"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/yaml"
)

// Grammar is a tree-sitter language registered under a canonical name.
type Grammar struct {
	// Name is the canonical lowercase language name, e.g. "lua".
	Name string

	// Language is the compiled grammar.
	Language *sitter.Language

	// Extensions are the file extensions (with dot) mapped to this grammar.
	Extensions []string

	// Filenames are exact base names mapped to this grammar, e.g.
	// "Dockerfile". Matched case-insensitively.
	Filenames []string
}

// Registry maps language names, aliases and file names to grammars.
//
// Thread Safety:
//
//	Registry is safe for concurrent use. Registration uses write locks,
//	lookups use read locks.
type Registry struct {
	mu sync.RWMutex

	byName     map[string]Grammar
	byExt      map[string]Grammar
	byFilename map[string]Grammar
	aliases    map[string]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:     make(map[string]Grammar),
		byExt:      make(map[string]Grammar),
		byFilename: make(map[string]Grammar),
		aliases:    make(map[string]string),
	}
}

// DefaultRegistry returns a Registry with every bundled grammar and the
// common aliases registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, g := range []Grammar{
		{Name: "bash", Language: bash.GetLanguage(), Extensions: []string{".sh", ".bash"}},
		{Name: "css", Language: css.GetLanguage(), Extensions: []string{".css"}},
		{Name: "dockerfile", Language: dockerfile.GetLanguage(), Extensions: []string{".dockerfile"}, Filenames: []string{"dockerfile"}},
		{Name: "go", Language: golang.GetLanguage(), Extensions: []string{".go"}},
		{Name: "html", Language: html.GetLanguage(), Extensions: []string{".html", ".htm"}},
		{Name: "javascript", Language: javascript.GetLanguage(), Extensions: []string{".js", ".jsx", ".mjs", ".cjs"}},
		{Name: "lua", Language: lua.GetLanguage(), Extensions: []string{".lua"}},
		{Name: "markdown", Language: tree_sitter_markdown.GetLanguage(), Extensions: []string{".md", ".markdown", ".mdown", ".mkd"}},
		{Name: "python", Language: python.GetLanguage(), Extensions: []string{".py", ".pyi"}},
		{Name: "rust", Language: rust.GetLanguage(), Extensions: []string{".rs"}},
		{Name: "sql", Language: sql.GetLanguage(), Extensions: []string{".sql"}},
		{Name: "tsx", Language: tsx.GetLanguage(), Extensions: []string{".tsx"}},
		{Name: "typescript", Language: typescript.GetLanguage(), Extensions: []string{".ts", ".mts", ".cts"}},
		{Name: "yaml", Language: yaml.GetLanguage(), Extensions: []string{".yaml", ".yml"}},
	} {
		r.Register(g)
	}
	for alias, name := range map[string]string{
		"golang":     "go",
		"js":         "javascript",
		"ts":         "typescript",
		"sh":         "bash",
		"shell":      "bash",
		"zsh":        "bash",
		"yml":        "yaml",
		"md":         "markdown",
		"postgres":   "sql",
		"postgresql": "sql",
		"py":         "python",
		"rs":         "rust",
		"docker":     "dockerfile",
	} {
		r.Alias(alias, name)
	}
	return r
}

// Register adds g under its name, extensions and file names, replacing
// earlier registrations.
func (r *Registry) Register(g Grammar) {
	if g.Language == nil || g.Name == "" {
		return
	}
	g.Name = strings.ToLower(g.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byName[g.Name] = g
	for _, ext := range g.Extensions {
		r.byExt[strings.ToLower(ext)] = g
	}
	for _, fn := range g.Filenames {
		r.byFilename[strings.ToLower(fn)] = g
	}
}

// Alias makes alias resolve to the grammar registered as name.
func (r *Registry) Alias(alias, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[strings.ToLower(alias)] = strings.ToLower(name)
}

// Lookup returns the grammar for a language name or alias.
//
// Names are matched case-insensitively after trimming, so info strings
// such as "Lua" resolve.
func (r *Registry) Lookup(name string) (Grammar, bool) {
	key := strings.ToLower(strings.TrimSpace(name))

	r.mu.RLock()
	defer r.mu.RUnlock()

	if canonical, ok := r.aliases[key]; ok {
		key = canonical
	}
	g, ok := r.byName[key]
	return g, ok
}

// ForPath returns the grammar for a file path by base name, then by
// extension.
func (r *Registry) ForPath(path string) (Grammar, bool) {
	base := strings.ToLower(filepath.Base(path))

	r.mu.RLock()
	defer r.mu.RUnlock()

	if g, ok := r.byFilename[base]; ok {
		return g, true
	}
	g, ok := r.byExt[filepath.Ext(base)]
	return g, ok
}

// Languages returns the canonical names of all registered grammars, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
