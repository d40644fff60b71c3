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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/AleutianAI/treenav/pkg/logging"
	"github.com/AleutianAI/treenav/pkg/ux"
	"github.com/AleutianAI/treenav/services/treenav/config"
	"github.com/AleutianAI/treenav/services/treenav/telemetry"
	"github.com/AleutianAI/treenav/services/treenav/tsitter"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("treenav.cli")

// errNotFound is returned when a command finds no node at all.
var errNotFound = errors.New("no node found")

// app holds the global flags and the services built from them for one
// command invocation.
type app struct {
	configPath    string
	logLevel      string
	logDir        string
	telemetryMode string
	jsonOut       bool
	show          bool
	contextLines  int

	out    io.Writer
	errOut io.Writer

	logger   *logging.Logger
	store    *config.Store
	builder  *tsitter.Builder
	printer  *ux.Printer
	shutdown func(context.Context) error

	// runMu serializes watch re-runs.
	runMu sync.Mutex
}

// newRootCmd builds the command tree. Command output goes to out, logs and
// telemetry exports to errOut.
func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:   "treenav",
		Short: "Navigate syntax trees across embedded languages",
		Long: `treenav resolves positions to syntax nodes and moves between them:
parent, child, sibling, and next or previous in document order,
crossing into code embedded in Markdown and HTML.`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Preset file (overridden by $"+config.EnvConfigPath+")")
	flags.StringVar(&a.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flags.StringVar(&a.logDir, "log-dir", "", "Also write JSON logs to this directory")
	flags.StringVar(&a.telemetryMode, "telemetry", telemetry.ExporterNone, "Telemetry: none, stdout, otlp, prometheus")
	flags.BoolVar(&a.jsonOut, "json", false, "Print results as JSON lines")
	flags.BoolVar(&a.show, "show", false, "Print a highlighted excerpt for each result")
	flags.IntVar(&a.contextLines, "context", 1, "Lines of context around --show excerpts")

	rootCmd.AddCommand(
		newResolveCmd(a),
		newMoveCmd(a),
		newQueryCmd(a),
		newTreesCmd(a),
		newWatchCmd(a),
	)
	return rootCmd
}

// setup builds the logger, telemetry providers, preset store and forest
// builder from the global flags.
func (a *app) setup(ctx context.Context) error {
	level, err := logging.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	a.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  a.logDir,
		Service: "treenav",
		JSON:    a.jsonOut,
		Output:  a.errOut,
	}).With(slog.String("run_id", uuid.NewString()))

	tcfg := telemetry.ForMode(a.telemetryMode)
	tcfg.Writer = a.errOut
	shutdown, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		a.logger.Close()
		return fmt.Errorf("telemetry: %w", err)
	}
	a.shutdown = shutdown

	store, err := config.Open(a.configPath, config.WithLogger(a.logger.Slog()))
	if err != nil {
		a.close(ctx)
		return err
	}
	a.store = store
	a.logger.Debug("presets loaded",
		slog.String("path", store.Path()),
		slog.Int("names", len(store.Names())),
	)

	opts := []tsitter.Option{tsitter.WithLogger(a.logger.Slog())}
	if rules := store.Injections(); rules != nil {
		opts = append(opts, tsitter.WithInjections(rules...))
	}
	a.builder = tsitter.NewBuilder(opts...)
	a.printer = ux.NewPrinter(a.out, !a.show)
	return nil
}

func (a *app) close(ctx context.Context) {
	if a.shutdown != nil {
		if err := a.shutdown(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
		a.shutdown = nil
	}
	if a.logger != nil {
		a.logger.Close()
	}
}

// command wraps a command body with setup, a span and teardown.
func (a *app) command(name string, fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := a.setup(ctx); err != nil {
			return err
		}
		defer a.close(ctx)

		ctx, span := tracer.Start(ctx, "treenav."+name)
		defer span.End()
		if len(args) > 0 {
			span.SetAttributes(attribute.String("treenav.file", args[0]))
		}

		if err := fn(ctx, args); err != nil {
			telemetry.RecordError(span, err)
			telemetry.LoggerWithTrace(ctx, a.logger.Slog()).Debug("command failed",
				slog.String("command", name),
				slog.String("error", err.Error()),
			)
			return err
		}
		return nil
	}
}
