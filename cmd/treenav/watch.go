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
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/AleutianAI/treenav/services/treenav/config"
	"github.com/AleutianAI/treenav/services/treenav/telemetry"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		f           moveFlags
		metricsAddr string
		debounce    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-run a move whenever the file or preset file changes",
		Long: `Runs the same navigation as move, then again each time FILE is
written. When a preset file is in use it is reloaded on change too.
With --metrics-addr the Prometheus metrics are served at /metrics.`,
		Args: cobra.ExactArgs(1),
	}
	f.register(cmd)
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().DurationVar(&debounce, "debounce", config.DefaultDebounce, "Quiet period before re-running")

	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		if metricsAddr != "" && !cmd.Flags().Changed("telemetry") {
			a.telemetryMode = telemetry.ExporterPrometheus
		}
	}

	cmd.RunE = a.command("watch", func(ctx context.Context, args []string) error {
		if err := f.validate(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if metricsAddr != "" {
			if err := a.serveMetrics(ctx, metricsAddr); err != nil {
				return err
			}
		}

		if a.store.Path() != "" {
			go func() {
				err := a.store.Watch(ctx, debounce, func(err error) {
					if err == nil {
						a.rerun(ctx, args[0], f)
					}
				})
				if err != nil {
					a.logger.Warn("preset watch stopped", slog.String("error", err.Error()))
				}
			}()
		}

		a.rerun(ctx, args[0], f)
		return config.WatchFile(ctx, args[0], debounce, func() {
			a.rerun(ctx, args[0], f)
		})
	})
	return cmd
}

// rerun builds the file and runs the move once. Failures are logged since
// the file may be mid-edit.
func (a *app) rerun(ctx context.Context, path string, f moveFlags) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	forest, err := a.builder.BuildFile(ctx, path)
	if err != nil {
		a.logger.Warn("build failed", slog.String("file", path), slog.String("error", err.Error()))
		return
	}
	defer forest.Close()

	a.printer.Title(fmt.Sprintf("%s %s", path, time.Now().Format(time.TimeOnly)))
	if err := a.move(ctx, forest, f); err != nil {
		a.printer.Muted(err.Error())
	}
}

// serveMetrics starts the /metrics endpoint and stops it when ctx is done.
func (a *app) serveMetrics(ctx context.Context, addr string) error {
	handler := telemetry.MetricsHandler()
	if handler == nil {
		return fmt.Errorf("--metrics-addr needs --telemetry %s", telemetry.ExporterPrometheus)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics server stopped", slog.String("error", err.Error()))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	a.logger.Info("serving metrics", slog.String("addr", ln.Addr().String()))
	return nil
}
