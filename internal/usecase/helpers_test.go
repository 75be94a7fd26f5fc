package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"ChallengeArena/internal/domain/models"
	"ChallengeArena/pkg/logger"
)

var testLogger = logger.NewNop()

// seqRand replays Float64 values in order and then repeats the last one.
type seqRand struct {
	mu     sync.Mutex
	floats []float64
	i      int
}

func newSeqRand(vals ...float64) *seqRand { return &seqRand{floats: vals} }

func (r *seqRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.floats) == 0 {
		return 0.5
	}
	v := r.floats[min(r.i, len(r.floats)-1)]
	r.i++
	return v
}

func (r *seqRand) IntN(n int) int {
	return int(r.Float64() * float64(n))
}

type fakeFeed struct {
	mu     sync.Mutex
	prices map[string]float64
	fail   map[string]bool
	delay  map[string]time.Duration
	calls  int
}

func (f *fakeFeed) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	f.calls++
	p, ok := f.prices[symbol]
	failing := f.fail[symbol]
	d := f.delay[symbol]
	f.mu.Unlock()

	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if failing || !ok {
		return 0, errors.New("feed unavailable")
	}
	return p, nil
}

func (f *fakeFeed) History(context.Context, string, string) ([]models.OHLCV, error) {
	return []models.OHLCV{{Close: 1}}, nil
}

func (f *fakeFeed) Name() string { return "fake" }

type notification struct {
	bot, symbol string
	profit      float64
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []notification
	winners []string
	err     error
}

func (n *fakeNotifier) NotifyWinningTrade(_ context.Context, bot, symbol string, profit float64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{bot, symbol, profit})
	return n.err
}

func (n *fakeNotifier) NotifyChallengeWinner(_ context.Context, bot string, pct float64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.winners = append(n.winners, bot)
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

var testRoster = []string{"hunter", "analyst", "lightning", "sniper", "mastermind", "brave", "guardian", "wave", "striker", "jewel"}
