// Package dispatch runs policy work on a single goroutine so that every
// notification and query is a non-overlapping callback.
package dispatch

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

var ErrStopped = errors.New("dispatch loop stopped")

type Loop struct {
	tasks chan func()
	done  chan struct{}
}

func New(buffer int) *Loop {
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run executes posted tasks in order until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	log.Info().Str("module", "dispatch").Msg("loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "dispatch").Msg("loop stopped")
			return
		case fn := <-l.tasks:
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "dispatch").Interface("panic", r).Msg("task panicked")
		}
	}()
	fn()
}

// Post queues fn. It must not be called from inside a task when the queue
// may be full.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrStopped
	case l.tasks <- fn:
		return nil
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }
