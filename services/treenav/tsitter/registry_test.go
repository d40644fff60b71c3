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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lookup(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		in   string
		want string
	}{
		{"lua", "lua"},
		{"Lua", "lua"},
		{" golang ", "go"},
		{"js", "javascript"},
		{"ts", "typescript"},
		{"shell", "bash"},
		{"yml", "yaml"},
		{"md", "markdown"},
		{"postgresql", "sql"},
	}
	for _, tt := range tests {
		g, ok := r.Lookup(tt.in)
		require.True(t, ok, tt.in)
		assert.Equal(t, tt.want, g.Name, tt.in)
		assert.NotNil(t, g.Language)
	}

	_, ok := r.Lookup("cobol")
	assert.False(t, ok)
}

func TestRegistry_ForPath(t *testing.T) {
	r := DefaultRegistry()

	tests := map[string]string{
		"README.md":           "markdown",
		"deploy/values.yml":   "yaml",
		"build/Dockerfile":    "dockerfile",
		"src/app.TSX":         "tsx",
		"scripts/init.lua":    "lua",
		"schema/001_init.sql": "sql",
	}
	for path, want := range tests {
		g, ok := r.ForPath(path)
		require.True(t, ok, path)
		assert.Equal(t, want, g.Name, path)
	}

	_, ok := r.ForPath("notes.txt")
	assert.False(t, ok)
}

func TestRegistry_RegisterAndLanguages(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Languages())

	lua, ok := DefaultRegistry().Lookup("lua")
	require.True(t, ok)

	r.Register(Grammar{Name: "LuaJIT", Language: lua.Language, Extensions: []string{".LJ"}})
	r.Register(Grammar{Name: "broken"})
	r.Alias("jit", "luajit")

	assert.Equal(t, []string{"luajit"}, r.Languages())
	g, ok := r.Lookup("JIT")
	require.True(t, ok)
	assert.Equal(t, "luajit", g.Name)

	g, ok = r.ForPath("x.lj")
	require.True(t, ok)
	assert.Equal(t, "luajit", g.Name)
}

func TestInfoLanguage(t *testing.T) {
	tests := map[string]string{
		"lua":         "lua",
		"Lua":         "lua",
		" python ":    "python",
		"{.lua}":      "lua",
		"js,linenos":  "js",
		"sql title=x": "sql",
		"":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, infoLanguage(in), in)
	}
}
