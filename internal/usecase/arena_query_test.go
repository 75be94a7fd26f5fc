package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChallengeArena/internal/domain/models"
	"ChallengeArena/internal/services/strategy"
)

func newQuery(t *testing.T) (*arena, *ArenaQuery) {
	t.Helper()
	a := newArena(t, nil)
	ctx := context.Background()
	a.challenge.StartWindow(time.Now())
	a.orch.RunPriceCycle(ctx)
	require.Equal(t, 6, a.orch.RunDecisionCycle(ctx))

	q := NewArenaQuery(ArenaQueryDeps{
		Roster:    strategy.Roster,
		Prices:    a.prices,
		Ledger:    a.ledger,
		Challenge: a.challenge,
		Market:    func(time.Time) models.MarketStatus { return models.MarketOpen },
	})
	return a, q
}

func TestStatusPayload(t *testing.T) {
	_, q := newQuery(t)
	st := q.Status()

	assert.Equal(t, 27.5, st.Snapshot["2222"])
	assert.Equal(t, models.MarketOpen, st.MarketStatus)
	assert.True(t, st.Window.IsActive)
	assert.Len(t, st.Logs, 6)
	require.Len(t, st.Leaderboard, len(strategy.Roster))

	top := st.Leaderboard[0]
	assert.Equal(t, "analyst", top.ID)
	assert.Equal(t, "Wijdan", top.Name)
	assert.Equal(t, models.CategorySentiment, top.Category)
	assert.Equal(t, 250.0, top.PnL)
}

func TestBotProfile(t *testing.T) {
	_, q := newQuery(t)

	p, err := q.Bot("jewel")
	require.NoError(t, err)
	assert.Equal(t, "Jawhara", p.Bot.Name)
	assert.Equal(t, 1, p.Stats.Trades)
	assert.Equal(t, 100250.0, p.Stats.Balance)
	assert.Equal(t, 100000.0, p.Stats.InitialBalance)
	assert.Len(t, p.History.Signals, 1)
	assert.Len(t, p.History.Logs, 1)

	_, err = q.Bot("ghost")
	assert.ErrorIs(t, err, ErrBotNotFound)
}

func TestTradeLivePnL(t *testing.T) {
	a, q := newQuery(t)

	trades := q.Trades(0)
	require.Len(t, trades, 6)
	assert.Equal(t, "jewel", trades[0].BotID)

	analyst := trades[len(trades)-1]
	require.Equal(t, "analyst", analyst.BotID)

	a.feed.mu.Lock()
	a.feed.prices[analyst.Symbol] = analyst.Price + 2.5
	a.feed.mu.Unlock()
	a.orch.RunPriceCycle(context.Background())

	d, err := q.Trade(analyst.ID)
	require.NoError(t, err)
	require.NotNil(t, d.LivePnL)
	assert.Equal(t, TradeQty, d.Qty)
	assert.Equal(t, 250.0, *d.LivePnL)
	require.NotNil(t, d.Log)
	assert.Equal(t, models.VerdictApproved, d.Log.Verdict)
	assert.Equal(t, "Wijdan", d.Bot.Name)

	_, err = q.Trade(999)
	assert.ErrorIs(t, err, ErrTradeNotFound)
}

func TestLivePnLSides(t *testing.T) {
	assert.Equal(t, 250.0, LivePnL(models.SideBuy, 27.5, 30, 100))
	assert.Equal(t, -250.0, LivePnL(models.SideSell, 27.5, 30, 100))
	assert.Equal(t, 12.0, LivePnL(models.SideSell, 10.12, 10, 100))
}

func TestDisqualifyAndRestart(t *testing.T) {
	_, q := newQuery(t)

	s, err := q.Disqualify("hunter", "  spoofing  ")
	require.NoError(t, err)
	assert.Equal(t, models.BotDisqualified, s.Status)
	assert.Equal(t, "spoofing", s.Reason)

	_, err = q.Disqualify("hunter", "again")
	assert.ErrorIs(t, err, ErrAlreadyDisqualified)
	_, err = q.Disqualify("ghost", "x")
	assert.ErrorIs(t, err, ErrBotNotFound)

	w := q.StartChallenge()
	assert.True(t, w.IsActive)
	p, err := q.Bot("hunter")
	require.NoError(t, err)
	assert.Equal(t, models.BotActive, p.Stats.Status)
	assert.Zero(t, p.Stats.Trades)
}

func TestArchiveDisabled(t *testing.T) {
	_, q := newQuery(t)
	_, err := q.Archive(context.Background(), "hunter", time.Time{}, 10)
	assert.ErrorIs(t, err, ErrArchiveDisabled)
	_, err = q.Archive(context.Background(), "ghost", time.Time{}, 10)
	assert.ErrorIs(t, err, ErrBotNotFound)
}
