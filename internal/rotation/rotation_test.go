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

package rotation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// steppingClock returns a fixed sequence of instants, repeating the last
// one once exhausted.
type steppingClock struct {
	mu    sync.Mutex
	times []time.Time
}

func (c *steppingClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.times[0]
	if len(c.times) > 1 {
		c.times = c.times[1:]
	}
	return t
}

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 12, 0, 0, 0, time.UTC)
}

func collectSignals(t *testing.T, w *Watcher, timeout time.Duration) int {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	signals := make(chan struct{}, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, signals)
	}()
	<-done

	count := 0
	for {
		select {
		case <-signals:
			count++
		default:
			return count
		}
	}
}

func TestFirstObservedDayIsBaseline(t *testing.T) {
	clock := &steppingClock{times: []time.Time{day(7)}}
	w := New(time.Millisecond)
	w.now = clock.now

	assert.Equal(t, 0, collectSignals(t, w, 50*time.Millisecond))
}

func TestEmitsOncePerDayChange(t *testing.T) {
	clock := &steppingClock{times: []time.Time{day(7), day(8)}}
	w := New(time.Millisecond)
	w.now = clock.now

	assert.Equal(t, 1, collectSignals(t, w, 50*time.Millisecond))
}

func TestEmitsForEachBoundary(t *testing.T) {
	clock := &steppingClock{times: []time.Time{day(7), day(8), day(8), day(9)}}
	w := New(time.Millisecond)
	w.now = clock.now

	assert.Equal(t, 2, collectSignals(t, w, 50*time.Millisecond))
}

func TestCancellationStopsRun(t *testing.T) {
	w := New(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, make(chan struct{})) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancellation")
	}
}

func TestDefaultPollInterval(t *testing.T) {
	assert.Equal(t, DefaultPollInterval, New(0).interval)
	assert.Equal(t, DefaultPollInterval, New(-time.Second).interval)
	assert.Equal(t, 5*time.Second, New(5*time.Second).interval)
}
