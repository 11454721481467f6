package sender

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/semaphore"
)

// WaitGroupConcurrencyLimit is used by NewWaitGroup.
const WaitGroupConcurrencyLimit = 8

// WaitGroup sends each request as soon as Send is called.
// A failed request doesn't stop the others, Wait returns all errors.
// Use RunGroup to schedule requests first or to stop on the first error.
type WaitGroup struct {
	ctx   context.Context
	wg    sync.WaitGroup
	slots *semaphore.Weighted

	lock sync.Mutex
	errs *multierror.Error
}

func NewWaitGroup(ctx context.Context) *WaitGroup {
	return NewWaitGroupWithLimit(ctx, WaitGroupConcurrencyLimit)
}

// NewWaitGroupWithLimit creates a WaitGroup with at most limit requests in flight.
func NewWaitGroupWithLimit(ctx context.Context, limit int64) *WaitGroup {
	return &WaitGroup{ctx: ctx, slots: semaphore.NewWeighted(limit)}
}

// Send starts the request in a new goroutine.
func (g *WaitGroup) Send(request Sendable) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.addErr(g.send(request))
	}()
}

// Wait blocks until all requests are done.
// A single error is returned as it is, more errors are joined to a multierror.
func (g *WaitGroup) Wait() error {
	g.wg.Wait()
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.errs != nil && len(g.errs.Errors) == 1 {
		return g.errs.Errors[0]
	}
	return g.errs.ErrorOrNil()
}

func (g *WaitGroup) send(request Sendable) error {
	if err := g.slots.Acquire(g.ctx, 1); err != nil {
		return err
	}
	defer g.slots.Release(1)
	return request.SendOrErr(g.ctx)
}

func (g *WaitGroup) addErr(err error) {
	if err == nil {
		return
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	g.errs = multierror.Append(g.errs, err)
}
