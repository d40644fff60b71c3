// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AleutianAI/treenav/pkg/ux"
	"github.com/AleutianAI/treenav/services/treenav/engine"
	"github.com/AleutianAI/treenav/services/treenav/textrange"
	"github.com/AleutianAI/treenav/services/treenav/tsitter"
)

// maxTextLen caps node text in JSON output.
const maxTextLen = 200

// nodeView is the JSON form of a result.
type nodeView struct {
	Step    int             `json:"step,omitempty"`
	Capture string          `json:"capture,omitempty"`
	Lang    string          `json:"lang"`
	Type    string          `json:"type,omitempty"`
	Range   textrange.Range `json:"range"`
	Depth   int             `json:"depth,omitempty"`
	Text    string          `json:"text,omitempty"`
}

// emit prints one result as a JSON line, an excerpt box, or a plain line.
func (a *app) emit(forest *tsitter.Tree, label string, v nodeView) error {
	if a.jsonOut {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		_, err = fmt.Fprintln(a.out, string(data))
		return err
	}
	if a.show {
		span := ux.Span{
			StartRow: v.Range.Start.Row, StartCol: v.Range.Start.Column,
			EndRow: v.Range.End.Row, EndCol: v.Range.End.Column,
		}
		a.printer.Box(label, strings.TrimRight(ux.Excerpt(forest.Source(), span, a.contextLines, false), "\n"))
		return nil
	}
	a.printer.Line(ux.IconArrow, label)
	return nil
}

// emitPosition prints a navigation result.
func (a *app) emitPosition(forest *tsitter.Tree, step int, pos engine.Position) error {
	v := nodeView{
		Step:  step,
		Lang:  pos.Lang(),
		Type:  pos.Type(),
		Range: pos.Range(),
		Text:  nodeText(pos),
	}
	return a.emit(forest, pos.String(), v)
}

func nodeText(pos engine.Position) string {
	t, ok := pos.Tree.(*tsitter.Tree)
	if !ok {
		return ""
	}
	text := t.Text(pos.Node)
	if len(text) > maxTextLen {
		text = text[:maxTextLen]
	}
	return text
}
