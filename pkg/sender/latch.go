package sender

import (
	"context"
	"sync"
)

// latch holds at most one blocking request.
//
// Each set increments the version. When a tracked request settles,
// the latch is cleared only if its version is still the current one,
// so a stale settlement never clears a newer blocking request.
type latch struct {
	lock     sync.Mutex
	ifAbsent sync.Mutex // serializes setIfAbsent calls
	current  *Pending
	version  uint64
}

// set replaces the current blocking request, nil clears the latch.
// The returned value settles with the same result as p, after the latch has been cleared.
func (l *latch) set(p *Pending) *Pending {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.version++
	if p == nil {
		l.current = nil
		return nil
	}

	version := l.version
	wrapped, settle := NewPending()
	l.current = wrapped
	go func() {
		value, err := p.result()
		l.clear(version)
		settle(value, err)
	}()
	return wrapped
}

// setIfAbsent calls the factory and sets its result only if no blocking request is set.
// The factory can call get and set, but not setIfAbsent.
func (l *latch) setIfAbsent(factory func() *Pending) *Pending {
	l.ifAbsent.Lock()
	defer l.ifAbsent.Unlock()
	if current := l.get(); current != nil {
		return current
	}
	return l.set(factory())
}

func (l *latch) get() *Pending {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.current
}

// wait blocks until the current blocking request, if any, settles.
// The settlement error is ignored, only the context error is returned.
func (l *latch) wait(ctx context.Context) (any, error) {
	current := l.get()
	if current == nil {
		return nil, nil
	}
	select {
	case <-current.Done():
		value, _ := current.result()
		return value, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *latch) clear(version uint64) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.version == version {
		l.current = nil
	}
}
