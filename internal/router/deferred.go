package router

import (
	"context"
	"sync"
	"time"
)

// Deferred is a pending callback started by Schedule.
type Deferred struct {
	once  sync.Once
	stop  chan struct{}
	done  chan struct{}
	fired bool
}

// Schedule runs fn once after delay unless ctx is canceled or Stop is
// called first. A non-positive delay still runs fn asynchronously.
func Schedule(ctx context.Context, delay time.Duration, fn func()) *Deferred {
	d := &Deferred{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(d.done)

		timer := time.NewTimer(max(delay, 0))
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-d.stop:
			return
		case <-ctx.Done():
			return
		}

		// Stop and the timer may race; Stop wins if it got there first.
		select {
		case <-d.stop:
			return
		default:
		}
		d.fired = true
		fn()
	}()

	return d
}

// Stop cancels the callback if it has not started. It is safe to call more than once.
func (d *Deferred) Stop() {
	d.once.Do(func() { close(d.stop) })
}

// Wait blocks until the callback ran or was canceled, and reports whether it ran.
func (d *Deferred) Wait() bool {
	<-d.done
	return d.fired
}

// Done is closed once the callback ran or was canceled.
func (d *Deferred) Done() <-chan struct{} {
	return d.done
}
