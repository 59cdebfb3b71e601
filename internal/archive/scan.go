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
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/cardinalhq/roomarchiver/internal/archivefs"
	"github.com/cardinalhq/roomarchiver/internal/delayqueue"
)

// scanPending walks a source's archive subtree and enqueues every file
// left in the finalized-but-uncompressed state by a previous run. It
// runs before the compression worker starts draining, so a crash
// between finalize and compress is always recovered. Returns the number
// of files enqueued.
func scanPending(dir string, queue *delayqueue.Queue[string]) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !archivefs.IsPending(path) {
			return nil
		}
		queue.Enqueue(0, path)
		count++
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		// A source that has never archived anything has no subtree yet.
		return 0, nil
	}
	return count, err
}
