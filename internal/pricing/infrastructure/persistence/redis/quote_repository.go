package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/optionanalytics/internal/pricing/domain"
)

// JSONStore Redis JSON 读写，由 cache.RedisCache 实现
type JSONStore interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error
}

// QuoteRedisRepository 实现 domain.QuoteCache
type QuoteRedisRepository struct {
	store  JSONStore
	prefix string
	ttl    time.Duration
}

// NewQuoteRedisRepository 创建报价缓存，ttl <= 0 时使用 15 分钟
func NewQuoteRedisRepository(store JSONStore, ttl time.Duration) *QuoteRedisRepository {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &QuoteRedisRepository{
		store:  store,
		prefix: "pricing:quote:",
		ttl:    ttl,
	}
}

// GetQuote 读取缓存的报价，未命中时返回 nil, nil
func (r *QuoteRedisRepository) GetQuote(ctx context.Context, key string) (*domain.Quote, error) {
	if key == "" {
		return nil, nil
	}
	var quote domain.Quote
	found, err := r.store.GetJSON(ctx, r.quoteKey(key), &quote)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &quote, nil
}

// SaveQuote 写入报价
func (r *QuoteRedisRepository) SaveQuote(ctx context.Context, quote *domain.Quote) error {
	if quote == nil {
		return nil
	}
	return r.store.SetJSON(ctx, r.quoteKey(quote.CacheKey()), quote, r.ttl)
}

func (r *QuoteRedisRepository) quoteKey(key string) string {
	return fmt.Sprintf("%s%s", r.prefix, key)
}
