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
	"errors"
	"fmt"
)

// Sentinel errors for forest building.
//
// These errors can be checked using errors.Is() to determine the
// category of failure without inspecting error messages.
var (
	// ErrUnsupportedLanguage indicates that no grammar is registered for the
	// requested language name, alias or file extension.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrFileTooLarge indicates content over the builder's size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidContent indicates content that is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")

	// ErrParseFailed indicates that tree-sitter produced no tree.
	ErrParseFailed = errors.New("parse failed")
)

// ParseError provides detailed information about a failed parse of one
// language region.
//
// Example:
//
//	forest, err := builder.Build(ctx, content, "markdown")
//	var parseErr *ParseError
//	if errors.As(err, &parseErr) {
//	    fmt.Printf("%s region at %d:%d failed\n", parseErr.Language, parseErr.Line, parseErr.Column)
//	}
type ParseError struct {
	// Language is the grammar that failed.
	Language string

	// Line is the 0-indexed row where the failing region starts.
	Line int

	// Column is the 0-indexed column where the failing region starts.
	Column int

	// Message describes the error in human-readable form.
	Message string

	// Cause is the underlying error. May be nil.
	Cause error
}

// Error returns "lang@line:col: message".
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s@%d:%d: %s", e.Language, e.Line, e.Column, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// wrapParseError wraps err with region context. ParseErrors are returned
// unchanged so nested injections report the innermost failure.
func wrapParseError(err error, lang string, line, column int) error {
	if err == nil {
		return nil
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return err
	}
	return &ParseError{
		Language: lang,
		Line:     line,
		Column:   column,
		Message:  err.Error(),
		Cause:    err,
	}
}
