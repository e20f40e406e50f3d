package engine

import (
	"context"
)

// Loop serializes work onto the goroutine running it. Everything that
// touches an Engine from more than one goroutine goes through a Loop.
type Loop struct {
	ops chan func()
}

// NewLoop creates a loop with a buffer of size pending closures.
func NewLoop(size int) *Loop {
	return &Loop{ops: make(chan func(), size)}
}

// Run executes posted closures until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.ops:
			fn()
		}
	}
}

// Do runs fn on the loop goroutine and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	select {
	case l.ops <- func() { done <- fn() }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post queues fn without waiting for it to run. It blocks while the buffer
// is full.
func (l *Loop) Post(fn func()) {
	l.ops <- fn
}
