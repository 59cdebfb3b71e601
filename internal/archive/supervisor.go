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
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cardinalhq/roomarchiver/internal/events"
)

// SupervisorConfig holds the settings shared by all pipelines.
type SupervisorConfig struct {
	Root         string
	PollInterval time.Duration
	Rand         *rand.Rand
}

// Supervisor runs one archiving pipeline per source against a shared
// archive root. Sources own disjoint subtrees and disjoint in-memory
// state, so pipelines never coordinate with each other.
type Supervisor struct {
	cfg SupervisorConfig
}

// NewSupervisor returns a supervisor for the given configuration.
func NewSupervisor(cfg SupervisorConfig) *Supervisor {
	return &Supervisor{cfg: cfg}
}

// Run creates the archive root if needed and runs one pipeline per
// source until ctx is cancelled or a pipeline fails. A pipeline that
// cannot even be constructed (bad identifier, path escape) fails the
// whole call before any other pipeline starts.
func (s *Supervisor) Run(ctx context.Context, sources ...events.RecordSource) error {
	root, err := filepath.Abs(s.cfg.Root)
	if err != nil {
		return fmt.Errorf("resolve archive root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create archive root: %w", err)
	}

	pipelines := make([]*Pipeline, 0, len(sources))
	for _, src := range sources {
		p, err := NewPipeline(PipelineConfig{
			Root:         root,
			PollInterval: s.cfg.PollInterval,
			Rand:         s.childRand(),
		}, src)
		if err != nil {
			return fmt.Errorf("pipeline for %q: %w", src.Identifier(), err)
		}
		pipelines = append(pipelines, p)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range pipelines {
		g.Go(func() error {
			return p.Run(gctx)
		})
	}
	return g.Wait()
}

// childRand derives an independent generator per pipeline; a rand.Rand
// must not be shared across pipeline goroutines.
func (s *Supervisor) childRand() *rand.Rand {
	if s.cfg.Rand == nil {
		return nil
	}
	return rand.New(rand.NewPCG(s.cfg.Rand.Uint64(), s.cfg.Rand.Uint64()))
}
