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
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long WatchFile waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// WatchFile calls fn after path is written or replaced, until ctx is done.
//
// Description:
//
//	Watches the directory holding path so that editors which save by
//	renaming a temporary file are seen. Events for other files are
//	ignored. Bursts of events within the debounce window produce a single
//	call. fn runs on the watching goroutine.
//
// Outputs:
//
//	error - Non-nil when the watcher cannot be started. Returns nil once
//	        ctx is done.
func WatchFile(ctx context.Context, path string, debounce time.Duration, fn func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			fn()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Default().Warn("file watcher error", slog.String("path", abs), slog.String("error", err.Error()))
		}
	}
}

// Watch reloads the store whenever its file changes, until ctx is done.
// onReload, when non-nil, receives the result of each reload.
func (s *Store) Watch(ctx context.Context, debounce time.Duration, onReload func(error)) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}
	return WatchFile(ctx, s.path, debounce, func() {
		err := s.Reload()
		if err != nil {
			s.logger.Warn("configuration reload failed, keeping previous",
				slog.String("path", s.path),
				slog.String("error", err.Error()),
			)
		} else {
			s.logger.Info("configuration reloaded", slog.String("path", s.path))
		}
		if onReload != nil {
			onReload(err)
		}
	})
}
