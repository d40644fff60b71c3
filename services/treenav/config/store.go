// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/AleutianAI/treenav/services/treenav/engine"
	"github.com/AleutianAI/treenav/services/treenav/tsitter"
)

// EnvConfigPath names the environment variable that overrides the
// configuration file path.
const EnvConfigPath = "TREENAV_CONFIG"

const builtinConfig = `
presets:
  nodes: {}
  cross:
    langs: true
  statements:
    types: ["*_statement", "*_declaration", function_definition, fenced_code_block, section]
  blocks:
    inherit: statements
    langs: true
    max_ascend: 8
actions:
  next_statement:
    preset: blocks
    allow_child: true
  sibling:
    preset: nodes
    fallback: true
`

// Builtin returns the configuration used when no file is given.
func Builtin() *File {
	f, err := Parse([]byte(builtinConfig))
	if err != nil {
		panic(fmt.Sprintf("builtin config: %v", err))
	}
	return f
}

// ResolvePath picks the configuration path: the environment variable wins
// over the flag value. Empty means the built-in configuration.
func ResolvePath(flag string) string {
	if env := strings.TrimSpace(os.Getenv(EnvConfigPath)); env != "" {
		return env
	}
	return flag
}

// Store holds resolved options for every preset and action of a
// configuration. Enabler tables are activated once per load.
//
// Thread Safety:
//
//	Store is safe for concurrent use. Reload swaps the resolved set
//	atomically; readers see either the old or the new configuration.
type Store struct {
	path   string
	logger *slog.Logger

	mu         sync.RWMutex
	file       *File
	defaults   engine.Options
	resolved   map[string]engine.Options
	injections []tsitter.InjectionRule
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for reloads.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore resolves every preset and action of f.
func NewStore(f *File, opts ...StoreOption) (*Store, error) {
	s := &Store{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.set(f); err != nil {
		return nil, err
	}
	return s, nil
}

// Open loads the configuration named by ResolvePath(flag), or the built-in
// configuration when no path is given.
func Open(flag string, opts ...StoreOption) (*Store, error) {
	path := ResolvePath(flag)
	if path == "" {
		return NewStore(Builtin(), opts...)
	}
	f, err := Load(path)
	if err != nil {
		return nil, err
	}
	s, err := NewStore(f, opts...)
	if err != nil {
		return nil, err
	}
	s.path = path
	return s, nil
}

// Path returns the file the store was loaded from, or "" for the built-in
// configuration.
func (s *Store) Path() string { return s.path }

// Options returns the resolved options for a preset or action. The empty
// name gives the defaults.
func (s *Store) Options(name string) (engine.Options, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name == "" {
		return s.defaults, nil
	}
	o, ok := s.resolved[name]
	if !ok {
		return engine.Options{}, fmt.Errorf("%w %q", ErrUnknownPreset, name)
	}
	return o, nil
}

// Names returns the preset and action names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file.Names()
}

// Injections returns the configured injection rules. Nil means the
// provider defaults apply.
func (s *Store) Injections() []tsitter.InjectionRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.injections
}

// Reload re-reads the store's file. On error the previous configuration
// stays active.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	f, err := Load(s.path)
	if err != nil {
		return err
	}
	return s.set(f)
}

func (s *Store) set(f *File) error {
	defaults, err := f.Defaults.Options()
	if err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	resolved := make(map[string]engine.Options)
	for _, name := range f.Names() {
		raw, err := f.Resolve(name)
		if err != nil {
			return err
		}
		o, err := raw.Options()
		if err != nil {
			return fmt.Errorf("%q: %w", name, err)
		}
		resolved[name] = o
	}

	s.mu.Lock()
	s.file = f
	s.defaults = defaults
	s.resolved = resolved
	s.injections = f.Injections
	s.mu.Unlock()

	s.logger.Debug("configuration loaded",
		slog.String("path", s.path),
		slog.Int("names", len(resolved)),
		slog.Int("injections", len(f.Injections)),
	)
	return nil
}
