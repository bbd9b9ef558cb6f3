package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket_DrainsToZero(t *testing.T) {
	tb := NewTokenBucket(3, 1, 10*time.Second)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
	assert.Equal(t, 0, tb.Remaining())
}

func TestTokenBucket_WaitHonorsContext(t *testing.T) {
	tb := NewTokenBucket(1, 1, 10*time.Second)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSlidingWindow_LimitWithinWindow(t *testing.T) {
	sw := NewSlidingWindow(2, time.Hour)

	assert.True(t, sw.Allow())
	assert.True(t, sw.Allow())
	assert.False(t, sw.Allow())
	assert.Equal(t, 0, sw.Remaining())
}

func TestSlidingWindow_ExpiredRequestsFreeSlots(t *testing.T) {
	sw := NewSlidingWindow(1, 30*time.Millisecond)

	require.True(t, sw.Allow())
	require.False(t, sw.Allow())

	time.Sleep(40 * time.Millisecond)
	assert.True(t, sw.Allow())
}

func TestManager_UnknownKeyPassesThrough(t *testing.T) {
	m := NewManager()

	err := m.Wait(context.Background(), "no:such:endpoint")
	assert.NoError(t, err)
}

func TestManager_SetReplacesLimiter(t *testing.T) {
	m := NewManager()
	m.Set("clob:order:post", NewSlidingWindow(1, time.Hour))

	require.NoError(t, m.Wait(context.Background(), "clob:order:post"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Wait(ctx, "clob:order:post"), context.DeadlineExceeded)
}

func TestManagerDefaults_RegisteredKeys(t *testing.T) {
	m := NewManager()

	for _, key := range []string{
		"clob:order:post",
		"clob:order:delete",
		"clob:orders:get",
		"clob:balance:get",
	} {
		assert.NoError(t, m.Wait(context.Background(), key), key)
	}
}
