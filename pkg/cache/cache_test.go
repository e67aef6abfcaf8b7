package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Machines int `json:"machines"`
}

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(client, ttl), mr
}

func TestSetAndGetJSON(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "metrics:tenant:1", payload{Machines: 4}))

	var got payload
	require.NoError(t, c.GetJSON(ctx, "metrics:tenant:1", &got))
	assert.Equal(t, 4, got.Machines)
}

func TestGetJSONMiss(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	var got payload
	err := c.GetJSON(context.Background(), "absent", &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestEntriesExpire(t *testing.T) {
	c, mr := newTestCache(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k", payload{Machines: 1}))
	mr.FastForward(time.Minute)

	var got payload
	err := c.GetJSON(ctx, "k", &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestGetJSONAfterClose(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	require.NoError(t, c.Close())

	var got payload
	err := c.GetJSON(context.Background(), "k", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}
