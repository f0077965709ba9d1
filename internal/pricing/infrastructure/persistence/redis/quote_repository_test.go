package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/optionanalytics/internal/pricing/domain"
	"github.com/wyfcoding/optionanalytics/pkg/cache"
)

func newRepo(t *testing.T) (*QuoteRedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewQuoteRedisRepository(cache.NewFromClient(client), time.Minute), mr
}

func TestSaveAndGetQuote(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()
	params := domain.OptionParameters{S: 100, X: 100, T: 1, R: 0.05, Sigma: 0.2}

	got, err := repo.GetQuote(ctx, domain.QuoteKey(params, domain.OptionTypeCall))
	require.NoError(t, err)
	assert.Nil(t, got)

	quote, err := domain.NewQuote(params, domain.OptionTypeCall)
	require.NoError(t, err)
	require.NoError(t, repo.SaveQuote(ctx, quote))

	assert.True(t, mr.Exists("pricing:quote:call:100:100:1:0.05:0.2"))
	ttl := mr.TTL("pricing:quote:call:100:100:1:0.05:0.2")
	assert.Equal(t, time.Minute, ttl)

	got, err = repo.GetQuote(ctx, quote.CacheKey())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *quote, *got)
}

func TestNilAndEmpty(t *testing.T) {
	repo, _ := newRepo(t)
	assert.NoError(t, repo.SaveQuote(context.Background(), nil))
	got, err := repo.GetQuote(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
