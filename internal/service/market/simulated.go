package market

import (
	"context"
	"math"
	"sync"
	"time"

	"ChallengeArena/internal/domain/models"
	drepo "ChallengeArena/internal/domain/repository"
	"ChallengeArena/pkg/util"
)

// SimulatedFeed is an offline random-walk feed: each quote moves up to ±1%
// from the previous one, starting from a base between 20 and 150.
type SimulatedFeed struct {
	rnd util.Rand
	mu  sync.Mutex
	px  map[string]float64
	now func() time.Time
}

func NewSimulatedFeed(rnd util.Rand) *SimulatedFeed {
	return &SimulatedFeed{rnd: rnd, px: make(map[string]float64), now: time.Now}
}

func (f *SimulatedFeed) Name() string { return "simulated" }

func (f *SimulatedFeed) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.px[symbol]
	if !ok {
		p = util.Uniform(f.rnd, 20, 150)
	} else {
		p *= 1 + util.Uniform(f.rnd, -0.01, 0.01)
	}
	p = math.Round(p*100) / 100
	f.px[symbol] = p
	return p, nil
}

// History walks backwards from the current simulated price.
func (f *SimulatedFeed) History(ctx context.Context, symbol, period string) ([]models.OHLCV, error) {
	last, err := f.CurrentPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	n := periodDays(period)
	bars := make([]models.OHLCV, n)
	day := f.now().UTC().Truncate(24 * time.Hour)
	closePx := last
	for i := n - 1; i >= 0; i-- {
		open := closePx * (1 + util.Uniform(f.rnd, -0.01, 0.01))
		hi := math.Max(open, closePx) * (1 + util.Uniform(f.rnd, 0, 0.005))
		lo := math.Min(open, closePx) * (1 - util.Uniform(f.rnd, 0, 0.005))
		bars[i] = models.OHLCV{
			Time:   day.AddDate(0, 0, i-(n-1)),
			Open:   round2(open),
			High:   round2(hi),
			Low:    round2(lo),
			Close:  round2(closePx),
			Volume: float64(util.IntRange(f.rnd, 100000, 2000000)),
		}
		closePx = open
	}
	return bars, nil
}

func periodDays(period string) int {
	switch period {
	case "1d":
		return 1
	case "5d":
		return 5
	case "3mo":
		return 90
	case "6mo":
		return 180
	case "1y":
		return 365
	default:
		return 30
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

var _ drepo.MarketFeed = (*SimulatedFeed)(nil)
