package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimited_DisabledReturnsNext(t *testing.T) {
	next := CompleterFunc(func(ctx context.Context, req Request) (string, error) { return "ok", nil })
	c := NewRateLimited(next, 0, 0)
	_, isLimited := c.(*RateLimited)
	assert.False(t, isLimited)
}

func TestRateLimited_HonorsContext(t *testing.T) {
	calls := 0
	next := CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		calls++
		return "ok", nil
	})
	c := NewRateLimited(next, 0.001, 1)

	out, err := c.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Complete(ctx, Request{})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
