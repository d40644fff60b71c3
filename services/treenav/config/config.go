// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads navigation presets from YAML and resolves them into
// engine options.
//
// A configuration file has three parts:
//
//	defaults:            # applied to every preset and action
//	  max_ascend: 8
//	presets:
//	  statements:
//	    types: ["*_statement", function_declaration]
//	  cross:
//	    inherit: statements
//	    langs: true
//	actions:
//	  next_statement:
//	    preset: cross
//	    allow_child: true
//
// Resolution merges defaults, then the inherit chain from its root, then the
// preset itself, then the action's overrides. Unset fields fall through;
// set fields replace, including whole type and language tables.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/treenav/services/treenav/enabler"
	"github.com/AleutianAI/treenav/services/treenav/engine"
	"github.com/AleutianAI/treenav/services/treenav/tsitter"
)

var (
	// ErrUnknownPreset indicates a name that is neither a preset nor an
	// action, or an inherit/preset reference to a missing preset.
	ErrUnknownPreset = errors.New("unknown preset")

	// ErrInheritCycle indicates presets that inherit from each other.
	ErrInheritCycle = errors.New("preset inheritance cycle")

	// ErrInvalidConfig indicates a configuration that fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

var validate = validator.New()

// RawOptions is the configuration form of engine.Options. Nil fields are
// unset and inherit from the layer below.
type RawOptions struct {
	Types        *enabler.Raw `yaml:"types,omitempty"`
	Langs        *enabler.Raw `yaml:"langs,omitempty"`
	MaxAscend    *int         `yaml:"max_ascend,omitempty" validate:"omitempty,gte=-1"`
	MaxDescend   *int         `yaml:"max_descend,omitempty" validate:"omitempty,gte=-1"`
	MaxLinkDst   *int         `yaml:"max_link_dst,omitempty" validate:"omitempty,gte=-1"`
	MaxSkip      *int         `yaml:"max_skip,omitempty" validate:"omitempty,gte=-1"`
	LvlDiff      *int         `yaml:"lvl_diff,omitempty" validate:"omitempty,gte=-1"`
	AncestorDiff *int         `yaml:"ancestor_diff,omitempty" validate:"omitempty,gte=-1"`
	Prioritize   *string      `yaml:"prioritize,omitempty" validate:"omitempty,oneof=lvl_diff ancestor_diff"`
	Fallback     *bool        `yaml:"fallback,omitempty"`
	AllowChild   *bool        `yaml:"allow_child,omitempty"`
	CompareEnd   *bool        `yaml:"compare_end,omitempty"`
}

// Preset is a named option set that may inherit from another preset.
type Preset struct {
	Inherit    string `yaml:"inherit,omitempty"`
	RawOptions `yaml:",inline"`
}

// Action binds a motion name to a preset plus overrides.
type Action struct {
	Preset     string `yaml:"preset" validate:"required"`
	RawOptions `yaml:",inline"`
}

// File is a parsed configuration file.
type File struct {
	Defaults   RawOptions              `yaml:"defaults"`
	Presets    map[string]Preset       `yaml:"presets" validate:"dive"`
	Actions    map[string]Action       `yaml:"actions" validate:"dive"`
	Injections []tsitter.InjectionRule `yaml:"injections,omitempty" validate:"dive"`
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Validate checks field values, preset references and inheritance.
//
// Description:
//
//	Runs the struct validation tags (budgets >= -1, known priority names,
//	complete injection rules), then checks that every inherit and action
//	preset names an existing preset, that inheritance is acyclic, and that
//	every preset and action activates into valid engine options.
//
// Outputs:
//
//	error - Wraps ErrInvalidConfig, ErrUnknownPreset or ErrInheritCycle.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, describe(err))
	}
	for _, name := range sortedKeys(f.Presets) {
		if _, err := f.chain(name); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(f.Actions) {
		a := f.Actions[name]
		if _, ok := f.Presets[a.Preset]; !ok {
			return fmt.Errorf("action %q: %w %q", name, ErrUnknownPreset, a.Preset)
		}
	}
	for _, name := range f.Names() {
		raw, err := f.Resolve(name)
		if err != nil {
			return err
		}
		if _, err := raw.Options(); err != nil {
			return fmt.Errorf("%q: %w", name, err)
		}
	}
	return nil
}

// Names returns every preset and action name, sorted. Actions shadow
// presets of the same name.
func (f *File) Names() []string {
	seen := make(map[string]bool, len(f.Presets)+len(f.Actions))
	for name := range f.Presets {
		seen[name] = true
	}
	for name := range f.Actions {
		seen[name] = true
	}
	return sortedKeys(seen)
}

// Resolve merges the layers for name, which may be an action or a preset.
// The empty name resolves the defaults alone.
func (f *File) Resolve(name string) (RawOptions, error) {
	out := f.Defaults
	if name == "" {
		return out, nil
	}

	presetName := name
	action, isAction := f.Actions[name]
	if isAction {
		presetName = action.Preset
	} else if _, ok := f.Presets[name]; !ok {
		return RawOptions{}, fmt.Errorf("%w %q", ErrUnknownPreset, name)
	}

	chain, err := f.chain(presetName)
	if err != nil {
		return RawOptions{}, err
	}
	for i := len(chain) - 1; i >= 0; i-- {
		out = out.Merge(f.Presets[chain[i]].RawOptions)
	}
	if isAction {
		out = out.Merge(action.RawOptions)
	}
	return out, nil
}

// chain returns name followed by its ancestors, nearest first.
func (f *File) chain(name string) ([]string, error) {
	var chain []string
	seen := make(map[string]bool)
	for cur := name; cur != ""; {
		p, ok := f.Presets[cur]
		if !ok {
			if cur == name {
				return nil, fmt.Errorf("%w %q", ErrUnknownPreset, cur)
			}
			return nil, fmt.Errorf("preset %q inherits %w %q", chain[len(chain)-1], ErrUnknownPreset, cur)
		}
		if seen[cur] {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInheritCycle, strings.Join(chain, " -> "), cur)
		}
		seen[cur] = true
		chain = append(chain, cur)
		cur = p.Inherit
	}
	return chain, nil
}

// Merge returns r with every field set in over replacing its own.
func (r RawOptions) Merge(over RawOptions) RawOptions {
	if over.Types != nil {
		r.Types = over.Types
	}
	if over.Langs != nil {
		r.Langs = over.Langs
	}
	mergeInt(&r.MaxAscend, over.MaxAscend)
	mergeInt(&r.MaxDescend, over.MaxDescend)
	mergeInt(&r.MaxLinkDst, over.MaxLinkDst)
	mergeInt(&r.MaxSkip, over.MaxSkip)
	mergeInt(&r.LvlDiff, over.LvlDiff)
	mergeInt(&r.AncestorDiff, over.AncestorDiff)
	if over.Prioritize != nil {
		r.Prioritize = over.Prioritize
	}
	mergeBool(&r.Fallback, over.Fallback)
	mergeBool(&r.AllowChild, over.AllowChild)
	mergeBool(&r.CompareEnd, over.CompareEnd)
	return r
}

// Options activates the enabler tables and fills engine.Options.
//
// Unset budgets stay engine.Unset. An unset or false langs table disables
// language crossing.
func (r RawOptions) Options() (engine.Options, error) {
	o := engine.DefaultOptions()

	if r.Types != nil {
		s, err := r.Types.Activate()
		if err != nil {
			return o, fmt.Errorf("types: %w", err)
		}
		o.Types = s
	}
	if r.Langs != nil && !r.Langs.Disabled {
		s, err := r.Langs.Activate()
		if err != nil {
			return o, fmt.Errorf("langs: %w", err)
		}
		o.Langs = s
	}

	setInt(&o.MaxAscend, r.MaxAscend)
	setInt(&o.MaxDescend, r.MaxDescend)
	setInt(&o.MaxLinkDst, r.MaxLinkDst)
	setInt(&o.MaxSkip, r.MaxSkip)
	setInt(&o.LvlDiff, r.LvlDiff)
	setInt(&o.AncestorDiff, r.AncestorDiff)
	if r.Prioritize != nil {
		p, err := engine.ParsePriority(*r.Prioritize)
		if err != nil {
			return o, err
		}
		o.Prioritize = p
	}
	setBool(&o.Fallback, r.Fallback)
	setBool(&o.AllowChild, r.AllowChild)
	setBool(&o.CompareEnd, r.CompareEnd)

	if err := o.Validate(); err != nil {
		return o, err
	}
	return o, nil
}

func mergeInt(dst **int, v *int) {
	if v != nil {
		*dst = v
	}
}

func mergeBool(dst **bool, v *bool) {
	if v != nil {
		*dst = v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// describe flattens validator errors into "field: tag" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
