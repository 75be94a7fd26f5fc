package notify

import (
	"context"
	"sync"
	"time"

	drepo "ChallengeArena/internal/domain/repository"
	"ChallengeArena/pkg/logger"
)

// Async sends in the background so callers never wait on the network.
// Failures are logged and counted, never returned.
type Async struct {
	inner   drepo.Notifier
	lgr     *logger.Logger
	metrics drepo.Metrics
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(inner drepo.Notifier, lgr *logger.Logger, metrics drepo.Metrics, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Async{inner: inner, lgr: lgr, metrics: metrics, timeout: timeout}
}

func (a *Async) NotifyWinningTrade(_ context.Context, botName, symbol string, profit float64) error {
	a.spawn("winning_trade", func(ctx context.Context) error {
		return a.inner.NotifyWinningTrade(ctx, botName, symbol, profit)
	})
	return nil
}

func (a *Async) NotifyChallengeWinner(_ context.Context, botName string, profitPct float64) error {
	a.spawn("challenge_winner", func(ctx context.Context) error {
		return a.inner.NotifyChallengeWinner(ctx, botName, profitPct)
	})
	return nil
}

func (a *Async) spawn(kind string, fn func(context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			a.metrics.RecordNotification("failed")
			a.lgr.Error("notification failed", logger.String("kind", kind), logger.Error(err))
			return
		}
		a.metrics.RecordNotification("sent")
	}()
}

// Wait blocks until in-flight sends finish or ctx ends.
func (a *Async) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Noop drops every notification. Used when no channel is configured.
type Noop struct{}

func (Noop) NotifyWinningTrade(context.Context, string, string, float64) error { return nil }
func (Noop) NotifyChallengeWinner(context.Context, string, float64) error       { return nil }

var (
	_ drepo.Notifier = (*Async)(nil)
	_ drepo.Notifier = Noop{}
)
