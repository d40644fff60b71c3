// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command treenav navigates the syntax trees of a source file from the
// command line.
//
// Files are parsed with tree-sitter, including code embedded in Markdown
// fences and HTML script and style elements. Positions are ROW:COL with
// zero-based rows and byte columns; a range is ROW:COL-ROW:COL.
//
// Usage:
//
//	treenav resolve README.md --at 12:4
//	treenav move main.go --at 10:2 --op next --action next_statement --repeat 3
//	treenav query main.go --query '(function_declaration) @func' --captures func
//	treenav trees README.md
//	treenav watch main.go --at 10:2 --op parent --metrics-addr :9464
//
// Navigation options come from named presets and actions in a YAML file
// (--config or TREENAV_CONFIG), falling back to the built-in presets.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
