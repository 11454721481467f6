package sender

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// RunGroupConcurrencyLimit is used by NewRunGroup.
const RunGroupConcurrencyLimit = 32

// RunGroup collects requests and sends them together on RunAndWait.
// The group fails fast: the first error cancels the other requests and RunAndWait returns it.
// Use WaitGroup to send requests right away or to collect all errors.
type RunGroup struct {
	ctx     context.Context
	started chan struct{}
	group   *errgroup.Group
	slots   *semaphore.Weighted
}

func NewRunGroup(ctx context.Context) *RunGroup {
	return NewRunGroupWithLimit(ctx, RunGroupConcurrencyLimit)
}

// NewRunGroupWithLimit creates a RunGroup with at most limit requests in flight.
func NewRunGroupWithLimit(ctx context.Context, limit int64) *RunGroup {
	group, ctx := errgroup.WithContext(ctx)
	return &RunGroup{ctx: ctx, started: make(chan struct{}), group: group, slots: semaphore.NewWeighted(limit)}
}

// Add schedules the request.
// It can be called while RunAndWait is running, for example from a callback of another request.
func (g *RunGroup) Add(request Sendable) {
	g.group.Go(func() error {
		<-g.started
		if err := g.slots.Acquire(g.ctx, 1); err != nil {
			return err
		}
		defer g.slots.Release(1)
		return request.SendOrErr(g.ctx)
	})
}

// RunAndWait sends the scheduled requests and blocks until all are done or one fails.
func (g *RunGroup) RunAndWait() error {
	close(g.started)
	return g.group.Wait()
}
