package market

import (
	"context"
	"errors"
	"time"

	"ChallengeArena/internal/domain/models"
	drepo "ChallengeArena/internal/domain/repository"
	"ChallengeArena/pkg/cache"
	"ChallengeArena/pkg/logger"
)

// CachedFeed serves prices and history from a cache for ttl before asking the inner feed.
type CachedFeed struct {
	inner drepo.MarketFeed
	cache cache.Service
	ttl   time.Duration
	lgr   *logger.Logger
}

func NewCachedFeed(inner drepo.MarketFeed, c cache.Service, ttl time.Duration, lgr *logger.Logger) *CachedFeed {
	return &CachedFeed{inner: inner, cache: c, ttl: ttl, lgr: lgr}
}

func (f *CachedFeed) Name() string { return f.inner.Name() + "+cache" }

func (f *CachedFeed) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	key := cache.GenerateKey("price", symbol)
	var p float64
	err := f.cache.Get(ctx, key, &p)
	if err == nil && p > 0 {
		return p, nil
	}
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		f.lgr.Warn("price cache read failed", logger.String("symbol", symbol), logger.Error(err))
	}

	p, err = f.inner.CurrentPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if err := f.cache.Set(ctx, key, p, f.ttl); err != nil {
		f.lgr.Warn("price cache write failed", logger.String("symbol", symbol), logger.Error(err))
	}
	return p, nil
}

func (f *CachedFeed) History(ctx context.Context, symbol, period string) ([]models.OHLCV, error) {
	key := cache.GenerateKey("history", symbol, period)
	var bars []models.OHLCV
	if err := f.cache.Get(ctx, key, &bars); err == nil && len(bars) > 0 {
		return bars, nil
	}

	bars, err := f.inner.History(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	// history moves slower than quotes
	if err := f.cache.Set(ctx, key, bars, 5*f.ttl); err != nil {
		f.lgr.Warn("history cache write failed", logger.String("symbol", symbol), logger.Error(err))
	}
	return bars, nil
}

var _ drepo.MarketFeed = (*CachedFeed)(nil)
