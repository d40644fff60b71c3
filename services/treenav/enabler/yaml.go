// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package enabler

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// keysField is the mapping entry that carries the list form inside a map.
const keysField = "keys"

// UnmarshalYAML accepts a scalar bool, a sequence of keys, or a mapping.
//
//	true                        -> accept all
//	false                       -> Disabled
//	[a, b]                      -> only a and b
//	{"*": true, keys: [a]}      -> all but a
//	{"*": false, a: true}       -> only a
func (r *Raw) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var b bool
		if err := node.Decode(&b); err != nil {
			return fmt.Errorf("%w: line %d: scalar must be a bool: %v", ErrMalformed, node.Line, err)
		}
		if !b {
			*r = Raw{Disabled: true}
			return nil
		}
		t := true
		*r = Raw{Default: &t}
		return nil

	case yaml.SequenceNode:
		var keys []string
		if err := node.Decode(&keys); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrMalformed, node.Line, err)
		}
		*r = Raw{Keys: keys}
		return nil

	case yaml.MappingNode:
		out := Raw{Map: map[string]bool{}}
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			switch {
			case k.Value == keysField && v.Kind == yaml.SequenceNode:
				if err := v.Decode(&out.Keys); err != nil {
					return fmt.Errorf("%w: line %d: %v", ErrMalformed, v.Line, err)
				}
			case k.Value == DefaultKey:
				var b bool
				if err := v.Decode(&b); err != nil {
					return fmt.Errorf("%w: line %d: default must be a bool", ErrMalformed, v.Line)
				}
				out.Default = &b
			default:
				var b bool
				if err := v.Decode(&b); err != nil {
					return fmt.Errorf("%w: line %d: key %q must map to a bool", ErrMalformed, v.Line, k.Value)
				}
				out.Map[k.Value] = b
			}
		}
		*r = out
		return nil
	}
	return fmt.Errorf("%w: line %d: unsupported YAML kind", ErrMalformed, node.Line)
}
