// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for more events before reloading.
const DefaultDebounce = 100 * time.Millisecond

// ReloadFunc receives each reloaded document, or the error that replaced it.
type ReloadFunc func(doc *Document, err error)

// Watch reloads the problem file at path whenever it changes and passes
// the result to fn. It blocks until ctx is cancelled.
//
// Description:
//
//	The parent directory is watched rather than the file itself, so
//	editors that save by rename are followed. Bursts of events within
//	debounce collapse into one reload. Documents whose digest did not
//	change are not reported.
//
// Inputs:
//   - ctx: Cancel to stop watching.
//   - path: Problem file to watch.
//   - debounce: Quiet period before reloading. Zero uses DefaultDebounce.
//   - fn: Called from the watching goroutine, never concurrently.
//
// Outputs:
//   - error: Watcher setup or runtime failures. Nil when ctx is cancelled.
func Watch(ctx context.Context, path string, debounce time.Duration, fn ReloadFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	var lastDigest string
	if doc, err := Load(abs); err == nil {
		lastDigest = doc.Digest
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)

		case <-timer.C:
			doc, err := Load(abs)
			if err != nil {
				fn(nil, err)
				continue
			}
			if doc.Digest == lastDigest {
				continue
			}
			lastDigest = doc.Digest
			fn(doc, nil)
		}
	}
}
