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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reload struct {
	doc *Document
	err error
}

func startWatch(t *testing.T, path string) <-chan reload {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan reload, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, func(doc *Document, err error) {
			got <- reload{doc, err}
		})
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watch did not stop")
		}
	})
	// Let the watcher register before the first write.
	time.Sleep(100 * time.Millisecond)
	return got
}

func waitReload(t *testing.T, got <-chan reload) reload {
	t.Helper()
	select {
	case r := <-got:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
		return reload{}
	}
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	src, err := os.ReadFile("testdata/switches.yaml")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "problem.yaml")
	require.NoError(t, os.WriteFile(path, src, 0600))

	got := startWatch(t, path)

	changed := strings.Replace(string(src), "name: switches", "name: switches2", 1)
	require.NoError(t, os.WriteFile(path, []byte(changed), 0600))

	r := waitReload(t, got)
	require.NoError(t, r.err)
	assert.Equal(t, "switches2", r.doc.Task.Problem.Name())

	require.NoError(t, os.WriteFile(path, []byte("name: [broken"), 0600))
	r = waitReload(t, got)
	assert.Error(t, r.err)
	assert.Nil(t, r.doc)
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "p.yaml"), 0, func(*Document, error) {})
	assert.Error(t, err)
}
