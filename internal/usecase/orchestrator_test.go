package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChallengeArena/internal/domain/models"
	"ChallengeArena/internal/services/strategy"
	"ChallengeArena/pkg/cache"
	"ChallengeArena/pkg/metrics"
)

type captureSink struct {
	mu  sync.Mutex
	evs []*models.VerdictEvent
}

func (s *captureSink) Submit(ev *models.VerdictEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evs = append(s.evs, ev)
	return nil
}

type panicDecider struct{}

func (panicDecider) Decide(models.Bot, models.PriceSnapshot) (models.Proposal, bool) {
	panic("decider exploded")
}

type arena struct {
	orch      *Orchestrator
	feed      *fakeFeed
	prices    *PriceStore
	ledger    *SignalLedger
	challenge *ChallengeManager
	notifier  *fakeNotifier
	sink      *captureSink
}

// newArena wires real components around a constant 0.5 random source: every
// category with emission above 0.5 fires, audits never reject and each
// approved trade books +250.
func newArena(t *testing.T, locker cache.Service) *arena {
	t.Helper()
	rnd := newSeqRand(0.5)
	a := &arena{
		feed:      &fakeFeed{prices: map[string]float64{"2222": 27.5, "1120": 88.4}},
		ledger:    NewSignalLedger(100, 50),
		challenge: NewChallengeManager(ChallengeConfig{}, strategy.IDs(), testLogger),
		notifier:  &fakeNotifier{},
		sink:      &captureSink{},
	}
	a.prices = NewPriceStore(a.feed, metrics.Noop{}, testLogger, time.Second)
	a.orch = NewOrchestrator(OrchestratorConfig{Tickers: []string{"2222", "1120"}}, OrchestratorDeps{
		Roster:       strategy.Roster,
		Prices:       a.prices,
		Engine:       strategy.NewEngine(rnd, nil),
		Ledger:       a.ledger,
		Investigator: NewInvestigator(DefaultInvestigatorConfig(), rnd),
		Challenge:    a.challenge,
		Notifier:     a.notifier,
		Sink:         a.sink,
		Locker:       locker,
		Metrics:      metrics.Noop{},
		Logger:       testLogger,
		Rand:         rnd,
	})
	return a
}

func TestDecisionCycleIdlesWithoutWindow(t *testing.T) {
	a := newArena(t, nil)
	a.orch.RunPriceCycle(context.Background())

	assert.Equal(t, 0, a.orch.RunDecisionCycle(context.Background()))
	assert.Empty(t, a.ledger.LatestLogs(10))
}

func TestDecisionCycleIdlesOnEmptySnapshot(t *testing.T) {
	a := newArena(t, nil)
	a.challenge.StartWindow(time.Now())

	assert.Equal(t, 0, a.orch.RunDecisionCycle(context.Background()))
}

func TestDecisionCycleRecordsVerdicts(t *testing.T) {
	a := newArena(t, nil)
	a.challenge.StartWindow(time.Now())
	a.orch.RunPriceCycle(context.Background())

	n := a.orch.RunDecisionCycle(context.Background())
	// analyst, sniper, mastermind, guardian, striker, jewel
	require.Equal(t, 6, n)

	logs := a.ledger.LatestLogs(50)
	require.Len(t, logs, 6)
	for _, l := range logs {
		assert.Equal(t, models.VerdictApproved, l.Verdict)
		assert.Contains(t, l.Message, "Review of ")
	}
	assert.Equal(t, "jewel", logs[0].BotID, "last bot in roster order is newest")

	assert.Equal(t, 6, a.notifier.count())
	require.Len(t, a.sink.evs, 6)
	assert.NotEmpty(t, a.sink.evs[0].EventID)
	assert.Equal(t, 250.0, a.sink.evs[0].PnL)

	s, ok := a.challenge.Score("sniper")
	require.True(t, ok)
	assert.Equal(t, 1, s.Trades)
	assert.Equal(t, 250.0, s.PnL)

	s, _ = a.challenge.Score("hunter")
	assert.Equal(t, 0, s.Trades)
}

// disqualifyingDecider disqualifies each bot while it is deciding, as an
// admin request racing the decision pass would.
type disqualifyingDecider struct {
	inner     Decider
	challenge *ChallengeManager
}

func (d disqualifyingDecider) Decide(bot models.Bot, snap models.PriceSnapshot) (models.Proposal, bool) {
	d.challenge.Disqualify(bot.ID, "spam")
	return d.inner.Decide(bot, snap)
}

func TestDecisionCycleLosingTradesAreNotAnnounced(t *testing.T) {
	a := newArena(t, nil)
	a.orch.cfg.PnLMin, a.orch.cfg.PnLMax = -500, -100
	a.challenge.StartWindow(time.Now())
	a.orch.RunPriceCycle(context.Background())

	require.Equal(t, 6, a.orch.RunDecisionCycle(context.Background()))
	assert.Zero(t, a.notifier.count())

	s, _ := a.challenge.Score("sniper")
	assert.Equal(t, 1, s.Trades)
	assert.Equal(t, 0, s.Wins)
	assert.Equal(t, -300.0, s.PnL)
}

func TestDecisionCycleRejectedSignalsLeaveScores(t *testing.T) {
	a := newArena(t, nil)
	cfg := DefaultInvestigatorConfig()
	cfg.AuditRejectProb = 1
	a.orch.inspector = NewInvestigator(cfg, newSeqRand(0.5))
	a.challenge.StartWindow(time.Now())
	a.orch.RunPriceCycle(context.Background())

	require.Equal(t, 6, a.orch.RunDecisionCycle(context.Background()))
	for _, l := range a.ledger.LatestLogs(50) {
		assert.Equal(t, models.VerdictRejected, l.Verdict)
	}
	assert.Zero(t, a.notifier.count())
	for _, id := range testRoster {
		s, ok := a.challenge.Score(id)
		require.True(t, ok)
		assert.Zero(t, s.Trades, id)
		assert.Zero(t, s.PnL, id)
	}
	for _, ev := range a.sink.evs {
		assert.Zero(t, ev.PnL)
	}
}

func TestDecisionCycleUnbookedWinIsNotAnnounced(t *testing.T) {
	a := newArena(t, nil)
	a.orch.engine = disqualifyingDecider{inner: a.orch.engine, challenge: a.challenge}
	a.challenge.StartWindow(time.Now())
	a.orch.RunPriceCycle(context.Background())

	require.Equal(t, 6, a.orch.RunDecisionCycle(context.Background()))
	assert.Zero(t, a.notifier.count())
	s, _ := a.challenge.Score("sniper")
	assert.Equal(t, 0, s.Trades)
	assert.Equal(t, models.BotDisqualified, s.Status)
}

func TestDecisionCycleSkipsDisqualifiedBots(t *testing.T) {
	a := newArena(t, nil)
	a.challenge.StartWindow(time.Now())
	a.orch.RunPriceCycle(context.Background())
	a.challenge.Disqualify("sniper", "spam")

	assert.Equal(t, 5, a.orch.RunDecisionCycle(context.Background()))
	assert.Empty(t, a.ledger.BotHistory("sniper").Signals)
}

func TestDecisionCycleSurvivesNotifierFailure(t *testing.T) {
	a := newArena(t, nil)
	a.notifier.err = errors.New("push service down")
	a.challenge.StartWindow(time.Now())
	a.orch.RunPriceCycle(context.Background())

	assert.Equal(t, 6, a.orch.RunDecisionCycle(context.Background()))
}

func TestPanickingCycleIsAborted(t *testing.T) {
	a := newArena(t, nil)
	a.orch.engine = panicDecider{}
	a.challenge.StartWindow(time.Now())
	a.orch.RunPriceCycle(context.Background())

	assert.NotPanics(t, func() { a.orch.RunDecisionCycle(context.Background()) })
	assert.Empty(t, a.ledger.LatestLogs(10))
}

func TestRolloverAnnouncesWinnerAndResets(t *testing.T) {
	a := newArena(t, nil)
	a.challenge.StartWindow(time.Now().Add(-time.Hour))
	require.True(t, a.challenge.UpdateScore("wave", 900))

	a.orch.Rollover(context.Background())

	assert.Equal(t, []string{"Samel"}, a.notifier.winners)
	s, _ := a.challenge.Score("wave")
	assert.Equal(t, 0, s.Trades)
	assert.True(t, a.challenge.Active())
}

func TestRolloverSkipsWinnerWithoutTrades(t *testing.T) {
	a := newArena(t, nil)
	a.orch.Rollover(context.Background())

	assert.Empty(t, a.notifier.winners)
	assert.True(t, a.challenge.Active())
}

func TestRolloverRunsOncePerDayAcrossInstances(t *testing.T) {
	locker := cache.NewMemoryCache()
	defer locker.Close()

	first := newArena(t, locker)
	second := newArena(t, locker)

	first.orch.Rollover(context.Background())
	second.orch.Rollover(context.Background())

	assert.True(t, first.challenge.Active())
	assert.False(t, second.challenge.Active())
}

func TestStartAndStop(t *testing.T) {
	a := newArena(t, nil)
	a.orch.cfg.PriceSpec = "@every 1h"
	a.orch.cfg.DecisionSpec = "@every 1h"
	require.NoError(t, a.orch.Start(context.Background()))

	require.Eventually(t, func() bool {
		_, ok := a.prices.Price("2222")
		return ok
	}, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, a.orch.Stop(ctx))
}

func TestStartRejectsBadSpec(t *testing.T) {
	a := newArena(t, nil)
	a.orch.cfg.DecisionSpec = "every three seconds"
	assert.Error(t, a.orch.Start(context.Background()))
}
