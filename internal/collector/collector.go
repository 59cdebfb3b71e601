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

// Package collector appends records to the current day's archive file
// and hands the file off for compression when the day rotates.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/cardinalhq/roomarchiver/internal/archivefs"
	"github.com/cardinalhq/roomarchiver/internal/delayqueue"
	"github.com/cardinalhq/roomarchiver/internal/events"
	"github.com/cardinalhq/roomarchiver/internal/logctx"
)

// Item is one entry on the collector's merged input channel: either a
// record or a rotation signal, in the order the pipeline observed them.
type Item struct {
	Record events.Record
	Rotate bool
}

// State is the collector's explicit open-file state.
type State int

const (
	// Idle means no archive file is open.
	Idle State = iota
	// Writing means the current day's archive file is open for append.
	Writing
)

// Collector is the per-source ingestion state machine. It owns at most
// one open archive file at a time and is not safe for concurrent use;
// the pipeline drives it from a single goroutine.
type Collector struct {
	dir   string
	queue *delayqueue.Queue[string]
	rng   *rand.Rand
	now   func() time.Time

	state State
	file  *os.File
}

// New returns a collector writing under dir, handing finalized files to
// queue. The rng seeds pending-file tags; passing a fixed-seed generator
// makes naming deterministic under test.
func New(dir string, queue *delayqueue.Queue[string], rng *rand.Rand) *Collector {
	return &Collector{
		dir:   dir,
		queue: queue,
		rng:   rng,
		now:   time.Now,
	}
}

// State reports whether an archive file is currently open.
func (c *Collector) State() State { return c.state }

// Run consumes items until in is closed or ctx is cancelled. Each
// record is written to disk before the next item is taken. On return an
// open file has been flushed and closed but deliberately not finalized:
// a restart on the same UTC day continues appending to it instead of
// fragmenting the day across files.
func (c *Collector) Run(ctx context.Context, in <-chan Item) error {
	ll := logctx.FromContext(ctx)
	defer c.shutdown(ll)

	for {
		select {
		case <-ctx.Done():
			return nil
		case item, ok := <-in:
			if !ok {
				return nil
			}
			if item.Rotate {
				if err := c.rotate(ctx, ll); err != nil {
					return err
				}
				continue
			}
			if err := c.append(ctx, ll, item.Record); err != nil {
				return err
			}
		}
	}
}

func (c *Collector) append(ctx context.Context, ll *slog.Logger, rec events.Record) error {
	if c.state == Idle {
		path := archivefs.DayPath(c.dir, c.now())
		f, err := archivefs.OpenAppend(path)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		c.file = f
		c.state = Writing
		ll.Info("Opened archive", slog.String("path", f.Name()))
	}

	if err := events.AppendLine(c.file, rec); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	recordsWritten.Add(ctx, 1)
	return nil
}

// rotate finalizes the open file: flush, close, rename to its
// pending-compression name, and enqueue it with zero delay. A rotation
// while Idle is a no-op.
func (c *Collector) rotate(ctx context.Context, ll *slog.Logger) error {
	if c.state == Idle {
		return nil
	}

	path := c.file.Name()
	if err := c.file.Sync(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}
	if err := c.file.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	c.file = nil
	c.state = Idle

	pending, err := archivefs.MarkPending(path, c.rng)
	if err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	c.queue.Enqueue(0, pending)
	rotationsTotal.Add(ctx, 1)
	ll.Info("Closed archive", slog.String("path", path))
	return nil
}

// shutdown is the best-effort flush at pipeline exit. The file stays
// under its active name on purpose; see Run.
func (c *Collector) shutdown(ll *slog.Logger) {
	if c.state == Idle {
		return
	}
	_ = c.file.Sync()
	_ = c.file.Close()
	ll.Info("Closed archive", slog.String("path", c.file.Name()))
	c.file = nil
	c.state = Idle
}
