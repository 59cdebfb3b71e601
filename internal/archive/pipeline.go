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

// Package archive assembles the per-source archiving pipeline: startup
// recovery scan, day-rotation watcher, record collector, and the
// background compression worker.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cardinalhq/roomarchiver/internal/collector"
	"github.com/cardinalhq/roomarchiver/internal/delayqueue"
	"github.com/cardinalhq/roomarchiver/internal/events"
	"github.com/cardinalhq/roomarchiver/internal/logctx"
	"github.com/cardinalhq/roomarchiver/internal/rotation"
	"github.com/cardinalhq/roomarchiver/internal/sourcepath"
)

// PipelineConfig holds per-pipeline settings.
type PipelineConfig struct {
	// Root is the archive root directory shared by all sources.
	Root string

	// PollInterval is how often the rotation watcher checks the UTC day.
	// Zero means rotation.DefaultPollInterval.
	PollInterval time.Duration

	// Rand seeds pending-file naming tags. Nil means a freshly seeded
	// generator; tests pass a fixed seed for deterministic names.
	Rand *rand.Rand
}

// Pipeline archives one source's record stream. Construct with
// NewPipeline and drive with Run; the pipeline owns no goroutines
// outside Run.
type Pipeline struct {
	dir    string
	source events.RecordSource
	cfg    PipelineConfig
}

// NewPipeline validates the source identifier and resolves its archive
// directory. Identifier and path errors are fatal here, before any
// goroutine starts or any file is touched.
func NewPipeline(cfg PipelineConfig, source events.RecordSource) (*Pipeline, error) {
	segment, err := sourcepath.Encode(source.Identifier())
	if err != nil {
		return nil, err
	}
	dir, err := sourcepath.Join(cfg.Root, segment)
	if err != nil {
		return nil, err
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Pipeline{dir: dir, source: source, cfg: cfg}, nil
}

// Dir returns the source's archive directory under the root.
func (p *Pipeline) Dir() string { return p.dir }

// Run archives records until ctx is cancelled or the source's record
// channel is closed. It recovers interrupted compressions first, then
// runs the rotation watcher, the collector, and the compression worker
// concurrently. Records and rotation signals are merged onto one
// ordered channel, so within a source their relative order is exactly
// as observed.
func (p *Pipeline) Run(ctx context.Context) error {
	ctx = logctx.With(ctx, slog.String("source", p.source.Identifier()))
	ll := logctx.FromContext(ctx)

	queue := delayqueue.New[string]()
	recovered, err := scanPending(p.dir, queue)
	if err != nil {
		return fmt.Errorf("startup scan: %w", err)
	}
	if recovered > 0 {
		recoveredTotal.Add(ctx, int64(recovered))
		ll.Info("Recovered finalized archives", slog.Int("count", recovered))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watcher := rotation.New(p.cfg.PollInterval)
	col := collector.New(p.dir, queue, p.cfg.Rand)

	signals := make(chan struct{}, 1)
	in := make(chan collector.Item)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watcher.Run(gctx, signals)
	})
	g.Go(func() error {
		// Merge the live record feed and rotation signals onto the
		// collector's single ordered channel. When the source's session
		// ends, the whole pipeline winds down.
		defer cancel()
		records := p.source.Records()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-signals:
				select {
				case in <- collector.Item{Rotate: true}:
				case <-gctx.Done():
					return nil
				}
			case rec, ok := <-records:
				if !ok {
					return nil
				}
				select {
				case in <- collector.Item{Record: rec}:
				case <-gctx.Done():
					return nil
				}
			}
		}
	})
	g.Go(func() error {
		return col.Run(gctx, in)
	})
	g.Go(func() error {
		return runWorker(gctx, queue)
	})
	return g.Wait()
}
