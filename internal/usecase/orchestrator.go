package usecase

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"ChallengeArena/internal/domain/models"
	drepo "ChallengeArena/internal/domain/repository"
	"ChallengeArena/pkg/cache"
	"ChallengeArena/pkg/logger"
	"ChallengeArena/pkg/util"
)

// Decider produces at most one proposal per bot per cycle.
type Decider interface {
	Decide(bot models.Bot, snap models.PriceSnapshot) (models.Proposal, bool)
}

// EventSink accepts verdict events without blocking.
type EventSink interface {
	Submit(ev *models.VerdictEvent) error
}

type OrchestratorConfig struct {
	Tickers      []string
	PriceSpec    string // cron spec, e.g. "@every 10s"
	DecisionSpec string
	RolloverSpec string // empty disables the weekly rollover
	PnLMin       float64
	PnLMax       float64
	RolloverLock time.Duration
}

// Orchestrator schedules the price pass, the decision pass and the window
// rollover on one cron scheduler. SkipIfStillRunning keeps each job from
// overlapping itself; Stop waits for the in-flight job.
type Orchestrator struct {
	cfg       OrchestratorConfig
	roster    []models.Bot
	prices    *PriceStore
	engine    Decider
	ledger    *SignalLedger
	inspector *Investigator
	challenge *ChallengeManager
	notifier  drepo.Notifier
	sink      EventSink
	locker    cache.Service
	metrics   drepo.Metrics
	lgr       *logger.Logger
	rnd       util.Rand
	now       func() time.Time
	cron      *cron.Cron
}

type OrchestratorDeps struct {
	Roster       []models.Bot
	Prices       *PriceStore
	Engine       Decider
	Ledger       *SignalLedger
	Investigator *Investigator
	Challenge    *ChallengeManager
	Notifier     drepo.Notifier
	Sink         EventSink     // optional
	Locker       cache.Service // optional
	Metrics      drepo.Metrics
	Logger       *logger.Logger
	Rand         util.Rand
}

func NewOrchestrator(cfg OrchestratorConfig, d OrchestratorDeps) *Orchestrator {
	if cfg.PriceSpec == "" {
		cfg.PriceSpec = "@every 10s"
	}
	if cfg.DecisionSpec == "" {
		cfg.DecisionSpec = "@every 3s"
	}
	if cfg.PnLMin == 0 && cfg.PnLMax == 0 {
		cfg.PnLMin, cfg.PnLMax = -500, 1000
	}
	if cfg.RolloverLock <= 0 {
		cfg.RolloverLock = time.Minute
	}
	cl := logger.NewCronLogger(d.Logger)
	return &Orchestrator{
		cfg:       cfg,
		roster:    d.Roster,
		prices:    d.Prices,
		engine:    d.Engine,
		ledger:    d.Ledger,
		inspector: d.Investigator,
		challenge: d.Challenge,
		notifier:  d.Notifier,
		sink:      d.Sink,
		locker:    d.Locker,
		metrics:   d.Metrics,
		lgr:       d.Logger,
		rnd:       d.Rand,
		now:       time.Now,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
}

// Start registers the jobs and starts the scheduler. The first price pass
// runs immediately so the decision pass has data.
func (o *Orchestrator) Start(ctx context.Context) error {
	if _, err := o.cron.AddFunc(o.cfg.PriceSpec, func() { o.RunPriceCycle(ctx) }); err != nil {
		return fmt.Errorf("schedule price pass: %w", err)
	}
	if _, err := o.cron.AddFunc(o.cfg.DecisionSpec, func() { o.RunDecisionCycle(ctx) }); err != nil {
		return fmt.Errorf("schedule decision pass: %w", err)
	}
	if o.cfg.RolloverSpec != "" {
		if _, err := o.cron.AddFunc(o.cfg.RolloverSpec, func() { o.Rollover(ctx) }); err != nil {
			return fmt.Errorf("schedule rollover: %w", err)
		}
	}

	go o.RunPriceCycle(ctx)
	o.cron.Start()
	o.lgr.Info("orchestrator started",
		logger.String("price", o.cfg.PriceSpec),
		logger.String("decision", o.cfg.DecisionSpec),
		logger.String("rollover", o.cfg.RolloverSpec))
	return nil
}

// Stop prevents new cycles and waits for a running one to finish.
func (o *Orchestrator) Stop(ctx context.Context) error {
	select {
	case <-o.cron.Stop().Done():
		o.lgr.Info("orchestrator stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("orchestrator stop: %w", ctx.Err())
	}
}

// guard aborts a cycle that panics instead of letting it corrupt shared state.
func (o *Orchestrator) guard(cycle string) {
	if r := recover(); r != nil {
		o.metrics.RecordError("cycle_panic")
		o.lgr.Error("cycle aborted",
			logger.String("cycle", cycle),
			logger.Any("panic", r),
			logger.String("stack", string(debug.Stack())))
	}
}

// RunPriceCycle refreshes every configured ticker once.
func (o *Orchestrator) RunPriceCycle(ctx context.Context) {
	defer o.guard("price")
	start := time.Now()
	n := o.prices.Refresh(ctx, o.cfg.Tickers)
	o.metrics.RecordLatency("price_cycle", time.Since(start).Seconds())
	o.lgr.Debug("price cycle done", logger.Int("updated", n), logger.Int("tickers", len(o.cfg.Tickers)))
}

// RunDecisionCycle gives each active bot one decision in roster order and
// returns the number of signals it recorded. It idles when the window is
// closed or no prices are known yet.
func (o *Orchestrator) RunDecisionCycle(ctx context.Context) int {
	defer o.guard("decision")
	if !o.challenge.Active() {
		return 0
	}
	start := time.Now()
	recorded := 0
	for _, bot := range o.roster {
		if ctx.Err() != nil {
			break
		}
		if !o.challenge.IsActiveBot(bot.ID) {
			continue
		}
		snap := o.prices.Snapshot()
		if len(snap) == 0 {
			return recorded
		}
		if o.decide(ctx, bot, snap) {
			recorded++
		}
	}
	o.metrics.RecordLatency("decision_cycle", time.Since(start).Seconds())
	return recorded
}

func (o *Orchestrator) decide(ctx context.Context, bot models.Bot, snap models.PriceSnapshot) bool {
	prop, ok := o.engine.Decide(bot, snap)
	if !ok {
		return false
	}
	sig, err := o.ledger.Record(bot.ID, prop)
	if err != nil {
		o.lgr.Warn("signal not recorded", logger.String("bot", bot.ID), logger.Error(err))
		return false
	}
	o.metrics.RecordSignal(bot.ID)

	review := o.inspector.Review(sig, snap)
	vlog, err := o.ledger.ApplyVerdict(sig.ID, review, fmt.Sprintf("Review of %s signal", sig.Symbol))
	if err != nil {
		panic(fmt.Sprintf("verdict on fresh signal %d: %v", sig.ID, err))
	}
	o.metrics.RecordVerdict(bot.ID, review.Verdict)

	var pnl float64
	if review.Verdict == models.VerdictApproved {
		pnl = o.simulatePnL()
		// The window may close or the bot be disqualified between the
		// activity check and here; an unbooked trade is not announced.
		booked := o.challenge.UpdateScore(bot.ID, pnl)
		if booked {
			o.metrics.RecordScoreUpdate(bot.ID, pnl)
		}
		if booked && pnl > 0 {
			if err := o.notifier.NotifyWinningTrade(ctx, bot.Name, sig.Symbol, pnl); err != nil {
				o.lgr.Warn("winning trade notification failed", logger.String("bot", bot.ID), logger.Error(err))
			}
		}
	}

	o.lgr.Info("verdict",
		logger.Uint64("signal_id", sig.ID),
		logger.String("bot", bot.ID),
		logger.String("symbol", sig.Symbol),
		logger.String("side", string(sig.Side)),
		logger.String("verdict", string(review.Verdict)),
		logger.String("reason", review.Reason),
		logger.Float64("pnl", pnl))

	if o.sink != nil {
		ev := &models.VerdictEvent{
			EventID:   uuid.NewString(),
			SignalID:  sig.ID,
			BotID:     bot.ID,
			Symbol:    sig.Symbol,
			Side:      sig.Side,
			Price:     sig.Price,
			Verdict:   review.Verdict,
			Reason:    review.Reason,
			Audit:     review.Audit,
			PnL:       pnl,
			Timestamp: vlog.Timestamp,
		}
		if err := o.sink.Submit(ev); err != nil {
			o.lgr.Warn("verdict event not archived", logger.String("event_id", ev.EventID), logger.Error(err))
		}
	}
	return true
}

func (o *Orchestrator) simulatePnL() float64 {
	v := util.Uniform(o.rnd, o.cfg.PnLMin, o.cfg.PnLMax)
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Rollover announces the leader of the closing window and opens a new one.
// With a locker, only one replica performs a given rollover.
func (o *Orchestrator) Rollover(ctx context.Context) {
	defer o.guard("rollover")
	now := o.now()
	if o.locker != nil {
		key := cache.GenerateKey("rollover", now.UTC().Format("2006-01-02"))
		ok, err := o.locker.TryLock(ctx, key, o.cfg.RolloverLock)
		if err != nil {
			o.lgr.Warn("rollover lock failed", logger.Error(err))
			return
		}
		if !ok {
			o.lgr.Debug("rollover held by another instance")
			return
		}
	}

	if board := o.challenge.Leaderboard(); len(board) > 0 && board[0].Trades > 0 {
		top := board[0]
		name := top.ID
		for _, b := range o.roster {
			if b.ID == top.ID {
				name = b.Name
				break
			}
		}
		o.lgr.Info("challenge winner",
			logger.String("bot", top.ID),
			logger.Float64("pnl", top.PnL),
			logger.Float64("profit_pct", top.ProfitPct))
		if err := o.notifier.NotifyChallengeWinner(ctx, name, top.ProfitPct); err != nil {
			o.lgr.Warn("winner notification failed", logger.Error(err))
		}
	}
	o.challenge.StartWindow(now)
}
