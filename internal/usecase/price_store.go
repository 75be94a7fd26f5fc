package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ChallengeArena/internal/domain/models"
	drepo "ChallengeArena/internal/domain/repository"
	"ChallengeArena/pkg/logger"
)

// PriceStore owns the latest known price per ticker.
type PriceStore struct {
	feed    drepo.MarketFeed
	metrics drepo.Metrics
	lgr     *logger.Logger
	timeout time.Duration

	mu     sync.RWMutex
	prices models.PriceSnapshot
	at     time.Time
}

func NewPriceStore(feed drepo.MarketFeed, metrics drepo.Metrics, lgr *logger.Logger, fetchTimeout time.Duration) *PriceStore {
	if fetchTimeout <= 0 {
		fetchTimeout = 5 * time.Second
	}
	return &PriceStore{
		feed:    feed,
		metrics: metrics,
		lgr:     lgr,
		timeout: fetchTimeout,
		prices:  make(models.PriceSnapshot),
	}
}

type fetchResult struct {
	symbol string
	price  float64
	err    error
}

// Refresh fetches every ticker concurrently, each under its own timeout, and
// updates the entries that succeeded. Failures are logged and leave the old value.
func (s *PriceStore) Refresh(ctx context.Context, tickers []string) int {
	start := time.Now()
	results := make(chan fetchResult, len(tickers))

	var wg sync.WaitGroup
	for _, sym := range tickers {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			fctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			results <- s.fetch(fctx, sym)
		}(sym)
	}
	wg.Wait()
	close(results)

	updated, failed := 0, 0
	for r := range results {
		if r.err != nil {
			failed++
			s.metrics.RecordFetchError(r.symbol)
			s.lgr.Warn("price fetch failed", logger.String("symbol", r.symbol), logger.String("feed", s.feed.Name()), logger.Error(r.err))
			continue
		}
		s.mu.Lock()
		s.prices[r.symbol] = r.price
		s.at = time.Now()
		s.mu.Unlock()
		s.metrics.RecordPrice(r.symbol, r.price)
		updated++
	}

	s.metrics.RecordRefresh(updated, failed)
	s.metrics.RecordLatency("price_refresh", time.Since(start).Seconds())
	s.lgr.Debug("prices refreshed", logger.Int("updated", updated), logger.Int("failed", failed))
	return updated
}

func (s *PriceStore) fetch(ctx context.Context, symbol string) (res fetchResult) {
	res.symbol = symbol
	defer func() {
		if r := recover(); r != nil {
			res.err = fmt.Errorf("feed panic: %v", r)
		}
	}()
	p, err := s.feed.CurrentPrice(ctx, symbol)
	if err != nil {
		res.err = err
		return res
	}
	if p <= 0 {
		res.err = fmt.Errorf("non-positive price %v", p)
		return res
	}
	res.price = p
	return res
}

// Snapshot returns a copy; callers may keep or modify it freely.
func (s *PriceStore) Snapshot() models.PriceSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prices.Clone()
}

// Price returns one entry from the snapshot.
func (s *PriceStore) Price(symbol string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[symbol]
	return p, ok
}

// UpdatedAt is the time of the last successful per-ticker update.
func (s *PriceStore) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.at
}

// History passes through to the feed for chart rendering; it does not touch the snapshot.
func (s *PriceStore) History(ctx context.Context, symbol, period string) ([]models.OHLCV, error) {
	return s.feed.History(ctx, symbol, period)
}
