package notify

import (
	"context"
	"encoding/json"
	"fmt"

	drepo "ChallengeArena/internal/domain/repository"
	"ChallengeArena/pkg/queue"
)

const (
	TypeWinningTrade    = "winning_trade"
	TypeChallengeWinner = "challenge_winner"
)

type WinningTradePayload struct {
	BotName string  `json:"bot_name"`
	Symbol  string  `json:"symbol"`
	Profit  float64 `json:"profit"`
}

type ChallengeWinnerPayload struct {
	BotName   string  `json:"bot_name"`
	ProfitPct float64 `json:"profit_pct"`
}

// Queued hands notifications to the Redis job queue; the queue's workers
// deliver them through the registered jobs and retry on failure.
type Queued struct {
	q queue.Publisher
}

func NewQueued(q queue.Publisher) *Queued { return &Queued{q: q} }

func (n *Queued) NotifyWinningTrade(ctx context.Context, botName, symbol string, profit float64) error {
	return n.q.Publish(ctx, TypeWinningTrade, WinningTradePayload{BotName: botName, Symbol: symbol, Profit: profit})
}

func (n *Queued) NotifyChallengeWinner(ctx context.Context, botName string, profitPct float64) error {
	return n.q.Publish(ctx, TypeChallengeWinner, ChallengeWinnerPayload{BotName: botName, ProfitPct: profitPct})
}

// WinningTradeJob delivers queued winning-trade messages.
type WinningTradeJob struct {
	sender  drepo.Notifier
	metrics drepo.Metrics
}

func NewWinningTradeJob(sender drepo.Notifier, metrics drepo.Metrics) *WinningTradeJob {
	return &WinningTradeJob{sender: sender, metrics: metrics}
}

func (j *WinningTradeJob) Name() string { return "notify-winning-trade" }
func (j *WinningTradeJob) Type() string { return TypeWinningTrade }

func (j *WinningTradeJob) Handle(ctx context.Context, payload json.RawMessage) error {
	p, err := queue.Decode[WinningTradePayload](payload)
	if err != nil {
		return fmt.Errorf("winning trade payload: %w", err)
	}
	if err := j.sender.NotifyWinningTrade(ctx, p.BotName, p.Symbol, p.Profit); err != nil {
		j.metrics.RecordNotification("failed")
		return err
	}
	j.metrics.RecordNotification("sent")
	return nil
}

// ChallengeWinnerJob delivers queued winner announcements.
type ChallengeWinnerJob struct {
	sender  drepo.Notifier
	metrics drepo.Metrics
}

func NewChallengeWinnerJob(sender drepo.Notifier, metrics drepo.Metrics) *ChallengeWinnerJob {
	return &ChallengeWinnerJob{sender: sender, metrics: metrics}
}

func (j *ChallengeWinnerJob) Name() string { return "notify-challenge-winner" }
func (j *ChallengeWinnerJob) Type() string { return TypeChallengeWinner }

func (j *ChallengeWinnerJob) Handle(ctx context.Context, payload json.RawMessage) error {
	p, err := queue.Decode[ChallengeWinnerPayload](payload)
	if err != nil {
		return fmt.Errorf("challenge winner payload: %w", err)
	}
	if err := j.sender.NotifyChallengeWinner(ctx, p.BotName, p.ProfitPct); err != nil {
		j.metrics.RecordNotification("failed")
		return err
	}
	j.metrics.RecordNotification("sent")
	return nil
}

var (
	_ drepo.Notifier = (*Queued)(nil)
	_ queue.Job      = (*WinningTradeJob)(nil)
	_ queue.Job      = (*ChallengeWinnerJob)(nil)
)
