// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package enabler implements the acceptance tables used to decide whether a
// node type or a language is accepted by a navigation.
//
// A Set has a default polarity for unlisted keys, explicit per-key
// overrides, and an ordered list of glob patterns. Sets are built from a
// Raw configuration value by Activate and are immutable afterwards.
//
// # Source forms
//
// List form: the listed keys get the opposite of the default, so listing
// keys "punches holes" in the default.
//
//	types: [function_declaration, "*_statement"]     # deny by default
//	types: {"*": true, keys: [comment]}              # allow by default
//
// Map form: explicit polarity per key, "*" is the default.
//
//	types: {"*": false, identifier: true, call: true}
//
// Keys containing a rune outside [a-z_] are treated as glob patterns by the
// default detector.
//
// # Thread Safety
//
// A Set is read-only after activation and safe for concurrent use.
package enabler

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultKey is the map key that carries the default polarity.
const DefaultKey = "*"

// ErrMalformed indicates a configuration value that cannot be activated.
var ErrMalformed = errors.New("malformed enabler set")

// Detector reports whether a configured key is a pattern rather than an
// exact node type or language name.
type Detector func(key string) bool

// DefaultDetector flags keys containing any rune outside [a-z_].
func DefaultDetector(key string) bool {
	for _, r := range key {
		if (r < 'a' || r > 'z') && r != '_' {
			return true
		}
	}
	return false
}

// Option configures activation.
type Option func(*activateOptions)

type activateOptions struct {
	detector Detector
}

// WithDetector replaces the pattern detector.
//
// Passing nil disables pattern detection: every key is exact.
func WithDetector(d Detector) Option {
	return func(o *activateOptions) {
		o.detector = d
	}
}

// Source is anything that can produce an activated Set.
//
// Both Raw and *Set implement it, so activating an already activated set is
// a no-op that returns the same set.
type Source interface {
	Activate(opts ...Option) (*Set, error)
}

// Raw is the configuration form of a Set.
type Raw struct {
	// Default is the polarity for keys not otherwise listed ("*").
	// Nil means false for the list form and false for the map form.
	Default *bool

	// Keys are listed keys whose polarity is the inverse of Default.
	Keys []string

	// Map holds explicit key polarities.
	Map map[string]bool

	// Disabled records a scalar false in configuration. For language sets
	// it means "do not cross language boundaries"; activating it yields a
	// set that rejects everything.
	Disabled bool
}

type pattern struct {
	source   string
	matcher  glob.Glob
	polarity bool
}

// Set is an activated acceptance table.
//
// The zero value is not useful; build sets with Activate, New or All.
// A nil *Set accepts every key.
type Set struct {
	def      bool
	exact    map[string]bool
	patterns []pattern
}

// Activate builds an immutable Set from r.
//
// Description:
//
//	Splits keys into exact entries and glob patterns using the detector,
//	compiles the patterns in their configured order, and records the
//	default. Map entries keep their explicit polarity. List entries get the
//	inverse of the default. When a key appears in both forms the map wins.
//
// Outputs:
//
//	*Set  - The activated set.
//	error - Wraps ErrMalformed when a pattern does not compile or a key is
//	        empty.
func (r Raw) Activate(opts ...Option) (*Set, error) {
	o := activateOptions{detector: DefaultDetector}
	for _, opt := range opts {
		opt(&o)
	}

	if r.Disabled {
		return &Set{def: false, exact: map[string]bool{}}, nil
	}

	def := false
	if r.Default != nil {
		def = *r.Default
	}
	if v, ok := r.Map[DefaultKey]; ok && r.Default == nil {
		def = v
	}

	s := &Set{
		def:   def,
		exact: make(map[string]bool, len(r.Keys)+len(r.Map)),
	}

	add := func(key string, polarity bool) error {
		if key == "" {
			return fmt.Errorf("%w: empty key", ErrMalformed)
		}
		if o.detector != nil && o.detector(key) {
			g, err := glob.Compile(key)
			if err != nil {
				return fmt.Errorf("%w: pattern %q: %v", ErrMalformed, key, err)
			}
			s.patterns = append(s.patterns, pattern{source: key, matcher: g, polarity: polarity})
			return nil
		}
		s.exact[key] = polarity
		return nil
	}

	for _, key := range r.Keys {
		if key == DefaultKey {
			continue
		}
		if err := add(key, !def); err != nil {
			return nil, err
		}
	}

	// Map keys are sorted so that pattern order is deterministic.
	mapKeys := make([]string, 0, len(r.Map))
	for key := range r.Map {
		if key != DefaultKey {
			mapKeys = append(mapKeys, key)
		}
	}
	sort.Strings(mapKeys)
	for _, key := range mapKeys {
		if err := add(key, r.Map[key]); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Activate returns s itself.
func (s *Set) Activate(...Option) (*Set, error) {
	return s, nil
}

// New activates a list-form set: keys get the inverse of def.
func New(def bool, keys ...string) (*Set, error) {
	return Raw{Default: &def, Keys: keys}.Activate()
}

// MustNew is New for static configuration; it panics on malformed input.
func MustNew(def bool, keys ...string) *Set {
	s, err := New(def, keys...)
	if err != nil {
		panic(err)
	}
	return s
}

// Only accepts exactly the given keys (and patterns).
func Only(keys ...string) *Set {
	return MustNew(false, keys...)
}

// Except accepts everything except the given keys (and patterns).
func Except(keys ...string) *Set {
	return MustNew(true, keys...)
}

// All accepts every key.
func All() *Set {
	return &Set{def: true, exact: map[string]bool{}}
}

// None rejects every key.
func None() *Set {
	return &Set{def: false, exact: map[string]bool{}}
}

// Get reports whether key is accepted.
//
// Lookup order: exact entries, then patterns in order (first match wins),
// then the default. A nil set accepts everything.
func (s *Set) Get(key string) bool {
	if s == nil {
		return true
	}
	if v, ok := s.exact[key]; ok {
		return v
	}
	for _, p := range s.patterns {
		if p.matcher.Match(key) {
			return p.polarity
		}
	}
	return s.def
}

// Default returns the polarity for unlisted keys.
func (s *Set) Default() bool {
	if s == nil {
		return true
	}
	return s.def
}

// Explicit returns the exact keys with the given polarity, sorted.
//
// Used to validate configuration against a known vocabulary such as the
// capture names of a query.
func (s *Set) Explicit(polarity bool) []string {
	if s == nil {
		return nil
	}
	var keys []string
	for k, v := range s.exact {
		if v == polarity {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// String renders the set in its map form for logs and CLI output.
func (s *Set) String() string {
	if s == nil {
		return "{*: true}"
	}
	parts := []string{fmt.Sprintf("*: %t", s.def)}
	for _, k := range s.Explicit(!s.def) {
		parts = append(parts, fmt.Sprintf("%s: %t", k, !s.def))
	}
	for _, k := range s.Explicit(s.def) {
		parts = append(parts, fmt.Sprintf("%s: %t", k, s.def))
	}
	for _, p := range s.patterns {
		parts = append(parts, fmt.Sprintf("%q: %t", p.source, p.polarity))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
