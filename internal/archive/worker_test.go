// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/roomarchiver/internal/delayqueue"
)

func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("file %s never appeared", path)
}

func TestWorkerDrainsQueue(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "05.json.compress-0123abcd", "06.json.compress-deadbeef")

	queue := delayqueue.New[string]()
	queue.Enqueue(0, filepath.Join(dir, "05.json.compress-0123abcd"))
	queue.Enqueue(0, filepath.Join(dir, "06.json.compress-deadbeef"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runWorker(ctx, queue) }()

	waitForFile(t, filepath.Join(dir, "05.json.gz"))
	waitForFile(t, filepath.Join(dir, "06.json.gz"))

	cancel()
	require.NoError(t, <-done)

	assert.NoFileExists(t, filepath.Join(dir, "05.json.compress-0123abcd"))
	assert.NoFileExists(t, filepath.Join(dir, "06.json.compress-deadbeef"))
}

func TestWorkerSkipsInvalidPaths(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "07.json", "06.json.compress-deadbeef")

	queue := delayqueue.New[string]()
	queue.Enqueue(0, filepath.Join(dir, "07.json")) // not finalized: skipped
	queue.Enqueue(0, filepath.Join(dir, "06.json.compress-deadbeef"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runWorker(ctx, queue) }()

	// The invalid item is logged and skipped; the valid one still lands.
	waitForFile(t, filepath.Join(dir, "06.json.gz"))

	cancel()
	require.NoError(t, <-done)
	assert.FileExists(t, filepath.Join(dir, "07.json"), "active file must be untouched")
}

func TestWorkerPropagatesFilesystemErrors(t *testing.T) {
	dir := t.TempDir()

	queue := delayqueue.New[string]()
	// Pending-shaped name that does not exist on disk.
	queue.Enqueue(0, filepath.Join(dir, "05.json.compress-0123abcd"))

	done := make(chan error, 1)
	go func() { done <- runWorker(context.Background(), queue) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not propagate the error")
	}
}
