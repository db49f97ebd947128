package reactor

import (
	"context"
	"sync"

	"github.com/san-kum/tentview/internal/view"
)

// Loop serialises mutations onto a reactor. Consecutive pending mutations
// of the same key collapse into the latest one, so a burst of slider moves
// ends on the last value without replaying the ones in between.
type Loop struct {
	r *Reactor

	mu      sync.Mutex
	pending []view.Mutation
	wake    chan struct{}
	idle    chan struct{}
	closed  bool // idle is closed
	applied uint64
}

// NewLoop creates a loop for r. Call Run to start processing.
func NewLoop(r *Reactor) *Loop {
	idle := make(chan struct{})
	close(idle)
	return &Loop{
		r:      r,
		wake:   make(chan struct{}, 1),
		idle:   idle,
		closed: true,
	}
}

// Submit validates m and queues it. It does not wait for the update.
func (l *Loop) Submit(m view.Mutation) error {
	if err := l.r.Validate(m); err != nil {
		return err
	}

	l.mu.Lock()
	if n := len(l.pending); n > 0 && l.pending[n-1].Key == m.Key {
		l.pending[n-1] = m
	} else {
		l.pending = append(l.pending, m)
	}
	if l.closed {
		l.idle = make(chan struct{})
		l.closed = false
	}
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Handle is Submit with the view.Handler signature.
func (l *Loop) Handle(ctx context.Context, m view.Mutation) error {
	return l.Submit(m)
}

// Run applies queued mutations until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
			l.drain(ctx)
		}
	}
}

func (l *Loop) drain(ctx context.Context) {
	for {
		l.mu.Lock()
		if len(l.pending) == 0 {
			if !l.closed {
				close(l.idle)
				l.closed = true
			}
			l.mu.Unlock()
			return
		}
		m := l.pending[0]
		l.pending = l.pending[1:]
		l.mu.Unlock()

		// errors are logged by Apply
		l.r.Apply(ctx, m)

		l.mu.Lock()
		l.applied++
		l.mu.Unlock()
	}
}

// Wait blocks until every submitted mutation has been applied.
func (l *Loop) Wait(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Applied counts the mutations applied so far, after coalescing.
func (l *Loop) Applied() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applied
}
