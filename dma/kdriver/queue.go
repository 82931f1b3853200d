// Copyright 2026 zynq-timestamping Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package kdriver is an in-process stand-in for the kernel character
// device DMA driver outlined informatively in spec.md §4.C: three
// lists (pending, in_progress, completed) per channel, a submit rule
// that hands a buffer straight to "hardware" when nothing is already
// in flight, and a completion callback that runs buffer bookkeeping
// and starts the next pending transaction.
//
// The real driver's completion runs in hardware IRQ context
// (srs_dma_driver.c, dma_complete_callback); this package models that
// as a callback dispatched on its own goroutine through
// concurrency/gopool so that Submit/Complete never block each other,
// the same way an interrupt handler never waits on the submitter.
// Whether and when a transaction actually completes is decided by the
// caller (see dma/rfdcpool): RX completion is driven
// by an injected "antenna" feed, TX completion is simulated
// immediately once the device has accepted the buffer.
package kdriver

import (
	"container/list"
	"errors"
	"sync"

	"github.com/srsran/zynq-timestamping/concurrency/gopool"
)

// ErrDisabled is returned by Acquire* calls when the queue is disabled
// while they are blocked, or when called on a disabled queue.
var ErrDisabled = errors.New("kdriver: queue disabled")

// Queue implements the pending/in_progress/completed discipline for a
// single DMA channel (one per direction per streamer).
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	enabled bool

	pending    *list.List // ids waiting for a free hardware slot
	inProgress *list.List // ids currently "in flight" (at most one)
	completed  *list.List // ids ready for the caller to acquire

	pool *gopool.GoPool // dispatches simulated completion callbacks
}

// New creates an empty, disabled Queue.
func New() *Queue {
	q := &Queue{
		pending:    list.New(),
		inProgress: list.New(),
		completed:  list.New(),
		pool:       gopool.NewGoPool("kdriver-completion", nil),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// EnableEmpty arms the queue with no buffers initially queued; "enable"
// only flips a flag (spec.md §4.C).
func (q *Queue) EnableEmpty() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enabled = true
}

// EnableWithFreeList arms the queue and populates the completed
// (free) list with every given id; used by the TX side so that all
// allocated buffers start out available.
func (q *Queue) EnableWithFreeList(ids []int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enabled = true
	for _, id := range ids {
		q.completed.PushBack(id)
	}
	q.cond.Broadcast()
}

// EnableAndSubmitAll arms the queue and submits every given id to
// hardware, per the submit rule (first id goes in_progress, the rest
// queue on pending); used by the RX side at enable() time.
func (q *Queue) EnableAndSubmitAll(ids []int, onSubmit func(id int)) {
	q.mu.Lock()
	q.enabled = true
	q.mu.Unlock()
	for _, id := range ids {
		q.Submit(id, onSubmit)
	}
}

// Submit hands id straight to "hardware" if nothing is in flight,
// otherwise queues it on pending (spec.md §4.C submit rule). onSubmit,
// if non-nil, is invoked synchronously once id is handed to hardware
// (used by RX/TX pools to trigger the simulated device side).
func (q *Queue) Submit(id int, onSubmit func(id int)) {
	q.mu.Lock()
	empty := q.inProgress.Len() == 0
	if empty {
		q.inProgress.PushBack(id)
	} else {
		q.pending.PushBack(id)
	}
	q.mu.Unlock()

	if empty && onSubmit != nil {
		onSubmit(id)
	}
}

// Complete runs the completion callback for id: moves it from
// in_progress to completed, wakes any waiter, and if pending is
// non-empty, submits the head of pending. It is dispatched through
// the queue's GoPool to decouple it from the submitter's call stack,
// mirroring hardware IRQ context.
func (q *Queue) Complete(id int, onSubmit func(id int)) {
	q.pool.Go(func() {
		q.completeSync(id, onSubmit)
	})
}

// CompleteSync runs the completion synchronously, for callers (tests,
// the loopback feeder) that need the completed list visibly updated
// before they continue.
func (q *Queue) CompleteSync(id int, onSubmit func(id int)) {
	q.completeSync(id, onSubmit)
}

func (q *Queue) completeSync(id int, onSubmit func(id int)) {
	q.mu.Lock()
	removeValue(q.inProgress, id)
	q.completed.PushBack(id)

	var nextID int
	var hasNext bool
	if q.pending.Len() > 0 {
		front := q.pending.Front()
		nextID = front.Value.(int)
		q.pending.Remove(front)
		q.inProgress.PushBack(nextID)
		hasNext = true
	}
	q.cond.Broadcast()
	q.mu.Unlock()

	if hasNext && onSubmit != nil {
		onSubmit(nextID)
	}
}

// Acquire blocks until the completed list is non-empty (or the queue
// is disabled) and pops its head.
func (q *Queue) Acquire() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.enabled && q.completed.Len() == 0 {
		q.cond.Wait()
	}
	if q.completed.Len() == 0 {
		return 0, ErrDisabled
	}
	front := q.completed.Front()
	id := front.Value.(int)
	q.completed.Remove(front)
	return id, nil
}

// Disable cancels in-flight transactions, clears all three lists, and
// wakes any blocked Acquire with ErrDisabled (spec.md §4.C). The
// caller repopulates the free (completed) list afterwards for TX via
// EnableWithFreeList if/when it re-enables.
func (q *Queue) Disable() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enabled = false
	q.pending.Init()
	q.inProgress.Init()
	q.completed.Init()
	q.cond.Broadcast()
}

// Len reports (pending, inProgress, completed) list lengths, for tests
// and diagnostics.
func (q *Queue) Len() (pending, inProgress, completed int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Len(), q.inProgress.Len(), q.completed.Len()
}

func removeValue(l *list.List, v int) {
	for e := l.Front(); e != nil; e = e.Next() {
		if e.Value.(int) == v {
			l.Remove(e)
			return
		}
	}
}
