// Package preview debounces document snapshots and renders the latest one.
package preview

import (
	"sync"
	"time"
)

// Timer is the handle returned by an AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d; time.AfterFunc is the default.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Option configures a Scheduler or a Previewer.
type Option func(*options)

type options struct {
	afterFunc AfterFunc
}

// WithAfterFunc replaces the timer source, typically with a fake clock in tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(o *options) { o.afterFunc = fn }
}

func buildOptions(opts []Option) options {
	o := options{afterFunc: stdAfterFunc}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Scheduler is a trailing-edge debouncer: emit receives the most recently scheduled
// value once no new value has been scheduled for the configured delay.
// At most one timer is pending at any time.
type Scheduler[T any] struct {
	delay     time.Duration
	emit      func(T)
	afterFunc AfterFunc

	mu      sync.Mutex
	timer   Timer
	gen     uint64
	pending bool
	stopped bool
}

// NewScheduler returns a scheduler calling emit delay after the last Schedule.
func NewScheduler[T any](delay time.Duration, emit func(T), opts ...Option) *Scheduler[T] {
	o := buildOptions(opts)
	if delay < 0 {
		delay = 0
	}
	return &Scheduler[T]{delay: delay, emit: emit, afterFunc: o.afterFunc}
}

// Schedule replaces any pending value with v and restarts the delay.
// It is a no-op once the scheduler is stopped.
func (s *Scheduler[T]) Schedule(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopTimerLocked()
	s.gen++
	gen := s.gen
	s.pending = true
	s.timer = s.afterFunc(s.delay, func() { s.fire(gen, v) })
}

// fire emits v unless a later Schedule or a Cancel superseded generation gen.
// A timer that already started running when it was stopped lands here with a stale gen.
func (s *Scheduler[T]) fire(gen uint64, v T) {
	s.mu.Lock()
	if s.stopped || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.timer = nil
	s.mu.Unlock()

	s.emit(v)
}

// Cancel drops the pending value, if any.
func (s *Scheduler[T]) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// Stop cancels the pending value and ignores every later Schedule.
func (s *Scheduler[T]) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.stopped = true
}

// Pending reports whether a value is waiting to be emitted.
func (s *Scheduler[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Scheduler[T]) cancelLocked() {
	s.stopTimerLocked()
	s.gen++
	s.pending = false
}

func (s *Scheduler[T]) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
