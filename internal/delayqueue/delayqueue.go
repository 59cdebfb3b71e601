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

// Package delayqueue provides a delay-ordered work queue: items become
// eligible for dequeue once their scheduled time arrives, ties broken by
// enqueue order. Multiple producers may enqueue; a single consumer
// drains with Next.
package delayqueue

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

type entry[T any] struct {
	item    T
	readyAt time.Time
	seq     uint64
}

type entryHeap[T any] []entry[T]

func (h entryHeap[T]) Len() int { return len(h) }

func (h entryHeap[T]) Less(i, j int) bool {
	if h[i].readyAt.Equal(h[j].readyAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].readyAt.Before(h[j].readyAt)
}

func (h entryHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap[T]) Push(x any) {
	*h = append(*h, x.(entry[T]))
}

func (h *entryHeap[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Queue is a minimum-heap of scheduled items with a wakeup channel so
// the consumer never polls.
type Queue[T any] struct {
	mu     sync.Mutex
	heap   entryHeap[T]
	seq    uint64
	wakeup chan struct{}
	now    func() time.Time
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		heap:   make(entryHeap[T], 0),
		wakeup: make(chan struct{}, 1),
		now:    time.Now,
	}
}

// Enqueue schedules item to become eligible at now+delay. A zero delay
// makes it eligible immediately.
func (q *Queue[T]) Enqueue(delay time.Duration, item T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	heap.Push(&q.heap, entry[T]{
		item:    item,
		readyAt: q.now().Add(delay),
		seq:     q.seq,
	})
	q.signal()
}

// Next blocks until an eligible item exists, then removes and returns
// it. It returns ctx.Err() when the context is cancelled first.
func (q *Queue[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if q.heap.Len() == 0 {
			q.mu.Unlock()
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-q.wakeup:
			}
			continue
		}

		wait := q.heap[0].readyAt.Sub(q.now())
		if wait <= 0 {
			e := heap.Pop(&q.heap).(entry[T])
			q.mu.Unlock()
			return e.item, nil
		}
		q.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		case <-q.wakeup:
			// An earlier item may have arrived; re-evaluate the head.
			timer.Stop()
		}
	}
}

// Len returns the number of items currently queued, eligible or not.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

// signal wakes the consumer without blocking; callers hold q.mu.
func (q *Queue[T]) signal() {
	select {
	case q.wakeup <- struct{}{}:
	default:
	}
}
