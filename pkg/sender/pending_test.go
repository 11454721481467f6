package sender_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/keboola/go-request-sender/pkg/sender"
)

func TestPending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p, settle := NewPending()
	assert.False(t, p.Settled())

	settle("value", nil)
	settle("ignored", errors.New("ignored"))
	assert.True(t, p.Settled())
	result, err := p.Wait(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "value", result)

	select {
	case <-p.Done():
	default:
		assert.Fail(t, "channel should be closed")
	}
}

func TestPending_Helpers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	result, err := Resolved(123).Wait(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 123, result)

	rejectErr := errors.New("rejected")
	_, err = Rejected(rejectErr).Wait(ctx)
	assert.Same(t, rejectErr, err)

	result, err = Go(func() (any, error) {
		time.Sleep(10 * time.Millisecond)
		return "async", nil
	}).Wait(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "async", result)
}

func TestPending_WaitContext(t *testing.T) {
	t.Parallel()
	p, _ := NewPending()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, p.Settled())
}
