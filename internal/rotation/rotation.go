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

// Package rotation emits one signal per UTC calendar day boundary,
// independent of event traffic.
package rotation

import (
	"context"
	"time"
)

// DefaultPollInterval is how often the wall clock is checked for a day
// change when the caller does not specify an interval.
const DefaultPollInterval = time.Second

// Watcher polls the wall clock and signals day changes. The day
// observed on the first poll is the baseline and produces no signal;
// every subsequent change produces exactly one.
type Watcher struct {
	interval time.Duration
	now      func() time.Time
}

// New returns a Watcher polling at the given interval. A non-positive
// interval falls back to DefaultPollInterval.
func New(interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{interval: interval, now: time.Now}
}

// Run polls until ctx is cancelled, sending one value on signals per
// observed day change. Cancellation has no side effects.
func (w *Watcher) Run(ctx context.Context, signals chan<- struct{}) error {
	lastYear, lastMonth, lastDay := w.now().UTC().Date()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			year, month, day := w.now().UTC().Date()
			if year == lastYear && month == lastMonth && day == lastDay {
				continue
			}
			lastYear, lastMonth, lastDay = year, month, day
			select {
			case signals <- struct{}{}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
