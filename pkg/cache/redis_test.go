package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestJSONRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rc.Close() })
	ctx := context.Background()

	var got sample
	found, err := rc.GetJSON(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, rc.SetJSON(ctx, "k", sample{Name: "sigma", Value: 0.2}, time.Minute))
	found, err = rc.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample{Name: "sigma", Value: 0.2}, got)

	mr.FastForward(2 * time.Minute)
	found, err = rc.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := New(Config{Host: mr.Host(), Port: mustPort(t, mr), MaxPoolSize: 2, ConnTimeout: 1, ReadTimeout: 1, WriteTimeout: 1})
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	_, err = New(Config{Host: "127.0.0.1", Port: 1, ConnTimeout: 1, ReadTimeout: 1, WriteTimeout: 1})
	assert.Error(t, err)
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}
