// Package progress defines the progress-reporting capability consumed by
// long-running operations, plus the implementations timefs ships with.
//
// A Monitor is driven by the operation: it announces a task size, reports
// progress against it, polls IsCancelled between units of work and calls
// Finished exactly once when done (successfully or not).
package progress

import (
	"context"
	"sync"
)

// Monitor receives progress from a long-running operation.
type Monitor interface {
	SetTaskSize(n int64)
	SetTaskProgress(k int64)
	IsCancelled() bool
	Finished()
}

type nullMonitor struct{}

func (nullMonitor) SetTaskSize(int64)     {}
func (nullMonitor) SetTaskProgress(int64) {}
func (nullMonitor) IsCancelled() bool     { return false }
func (nullMonitor) Finished()             {}

// Null ignores all progress and is never cancelled.
var Null Monitor = nullMonitor{}

// OrNull returns m, or Null when m is nil.
func OrNull(m Monitor) Monitor {
	if m == nil {
		return Null
	}
	return m
}

// sub maps a child task onto the [from, to) slice of its parent's progress.
type sub struct {
	parent   Monitor
	from, to int64

	mu   sync.Mutex
	size int64
}

// Sub returns a monitor whose whole task occupies [from, to) of parent.
// Finished on the sub monitor advances parent to `to` without finishing it.
func Sub(parent Monitor, from, to int64) Monitor {
	return &sub{parent: OrNull(parent), from: from, to: to}
}

func (s *sub) SetTaskSize(n int64) {
	s.mu.Lock()
	s.size = n
	s.mu.Unlock()
}

func (s *sub) SetTaskProgress(k int64) {
	s.mu.Lock()
	size := s.size
	s.mu.Unlock()
	if size <= 0 {
		return
	}
	if k > size {
		k = size
	}
	s.parent.SetTaskProgress(s.from + (s.to-s.from)*k/size)
}

func (s *sub) IsCancelled() bool {
	return s.parent.IsCancelled()
}

func (s *sub) Finished() {
	s.parent.SetTaskProgress(s.to)
}

type ctxMonitor struct {
	Monitor
	ctx context.Context
}

// WithContext returns m reporting cancelled once ctx is done.
func WithContext(ctx context.Context, m Monitor) Monitor {
	return ctxMonitor{Monitor: OrNull(m), ctx: ctx}
}

func (c ctxMonitor) IsCancelled() bool {
	return c.ctx.Err() != nil || c.Monitor.IsCancelled()
}
