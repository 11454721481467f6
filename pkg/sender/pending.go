package sender

import (
	"context"
	"sync"
)

// SettleFunc settles a Pending value, only the first call has an effect.
type SettleFunc func(value any, err error)

// Pending is a result of an asynchronous operation, it is settled exactly once.
// It is safe for concurrent use, any number of goroutines can wait for it.
type Pending struct {
	done  chan struct{}
	once  sync.Once
	value any
	err   error
}

// NewPending creates an unsettled Pending value and the function to settle it.
func NewPending() (*Pending, SettleFunc) {
	p := &Pending{done: make(chan struct{})}
	return p, p.settle
}

// Go runs the function in a new goroutine, the result settles the returned Pending.
func Go(fn func() (any, error)) *Pending {
	p, settle := NewPending()
	go func() {
		settle(fn())
	}()
	return p
}

// Resolved returns a Pending already settled with the value.
func Resolved(value any) *Pending {
	p, settle := NewPending()
	settle(value, nil)
	return p
}

// Rejected returns a Pending already settled with the error.
func Rejected(err error) *Pending {
	p, settle := NewPending()
	settle(nil, err)
	return p
}

// Done returns a channel that is closed when the value is settled.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Settled returns true if the value is already settled.
func (p *Pending) Settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the value is settled or the context is done.
// The settlement error is returned unchanged.
func (p *Pending) Wait(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pending) settle(value any, err error) {
	p.once.Do(func() {
		p.value = value
		p.err = err
		close(p.done)
	})
}

// result returns the settled value, it must be called after Done.
func (p *Pending) result() (any, error) {
	<-p.done
	return p.value, p.err
}
