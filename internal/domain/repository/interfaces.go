package repository

import (
	"context"
	"time"

	"ChallengeArena/internal/domain/models"
)

// MarketFeed is the external market-data collaborator.
// Implementations return an error instead of a price when the symbol is unavailable.
type MarketFeed interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
	History(ctx context.Context, symbol, period string) ([]models.OHLCV, error)
	Name() string
}

// Notifier delivers push notifications. Callers treat it as best effort.
type Notifier interface {
	NotifyWinningTrade(ctx context.Context, botName, symbol string, profit float64) error
	NotifyChallengeWinner(ctx context.Context, botName string, profitPct float64) error
}

type Publisher interface {
	Publish(ctx context.Context, ev *models.VerdictEvent) error
	PublishBatch(ctx context.Context, evs []*models.VerdictEvent) error
	Close() error
}

type Archive interface {
	Init(ctx context.Context) error // ensure tables
	Store(ctx context.Context, ev *models.VerdictEvent) error
	StoreBatch(ctx context.Context, evs []*models.VerdictEvent) error
	Query(ctx context.Context, botID string, since time.Time, limit int) ([]*models.VerdictEvent, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordRefresh(updated, failed int)
	RecordPrice(symbol string, price float64)
	RecordFetchError(symbol string)
	RecordSignal(botID string)
	RecordVerdict(botID string, verdict models.Verdict)
	RecordScoreUpdate(botID string, pnl float64)
	RecordNotification(result string)
	RecordArchived(backend string, n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
