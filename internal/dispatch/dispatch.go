// Package dispatch serializes state mutation onto a single goroutine and
// provides the handle returned by asynchronous store operations.
package dispatch

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when work is offered to a stopped loop.
var ErrClosed = errors.New("dispatch loop closed")

const queueSize = 64

// Loop runs queued closures one at a time on its own goroutine.
// Closures must not call Do on the same loop.
type Loop struct {
	queue  chan func()
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLoop creates and starts a loop.
func NewLoop() *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		queue:  make(chan func(), queueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.ctx.Done():
			return
		case fn := <-l.queue:
			fn()
		}
	}
}

// Post enqueues fn without waiting for it to run. It returns false if the
// loop has been stopped.
func (l *Loop) Post(fn func()) bool {
	if l.ctx.Err() != nil {
		return false
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.ctx.Done():
		return false
	}
}

// Do runs fn on the loop and waits for it to finish. It returns false if fn
// did not run because the loop was stopped.
func (l *Loop) Do(fn func()) bool {
	done := make(chan struct{})
	if !l.Post(func() {
		fn()
		close(done)
	}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-l.ctx.Done():
		// fn may have been picked up before the stop; wait for it to finish.
		l.wg.Wait()
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
}

// Stop halts the loop and waits for the goroutine to exit. Queued closures
// that have not started are dropped. Safe to call more than once.
func (l *Loop) Stop() {
	l.cancel()
	l.wg.Wait()
}

// Stopped reports whether Stop has been called.
func (l *Loop) Stopped() bool {
	return l.ctx.Err() != nil
}
