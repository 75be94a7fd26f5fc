package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ChallengeArena/internal/domain/models"
	drepo "ChallengeArena/internal/domain/repository"
)

// TradeQty is the notional share count used for live PnL on a trade.
const TradeQty = 100

var (
	ErrBotNotFound         = errors.New("bot not found")
	ErrTradeNotFound       = errors.New("trade not found")
	ErrArchiveDisabled     = errors.New("verdict archive disabled")
	ErrAlreadyDisqualified = errors.New("bot already disqualified")
)

// RankedBot is a leaderboard row with the bot's public metadata.
type RankedBot struct {
	models.LeaderboardEntry
	Name          string          `json:"name"`
	HumanName     string          `json:"human_name"`
	Risk          string          `json:"risk"`
	StrategyTitle string          `json:"strategy_title"`
	Category      models.Category `json:"category"`
}

type StatusPayload struct {
	Snapshot     models.PriceSnapshot   `json:"market"`
	Leaderboard  []RankedBot            `json:"leaderboard"`
	Logs         []models.VerdictLog    `json:"logs"`
	Window       models.ChallengeWindow `json:"window"`
	MarketStatus models.MarketStatus    `json:"market_status"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type BotStats struct {
	PnL            float64          `json:"pnl"`
	Trades         int              `json:"trades"`
	Wins           int              `json:"wins"`
	Balance        float64          `json:"balance"`
	InitialBalance float64          `json:"initial_balance"`
	Status         models.BotStatus `json:"status"`
	Reason         string           `json:"disqualify_reason,omitempty"`
}

type BotProfile struct {
	Bot     models.Bot        `json:"profile"`
	Stats   BotStats          `json:"stats"`
	History models.BotHistory `json:"history"`
}

// TradeDetail carries live PnL only while a current price is known.
type TradeDetail struct {
	Signal       models.Signal      `json:"signal"`
	Bot          models.Bot         `json:"bot"`
	Log          *models.VerdictLog `json:"log,omitempty"`
	Qty          int                `json:"qty"`
	CurrentPrice *float64           `json:"current_price,omitempty"`
	LivePnL      *float64           `json:"live_pnl,omitempty"`
}

// ArenaQuery is the read side shared by the HTTP API and the live feed.
type ArenaQuery struct {
	roster    []models.Bot
	prices    *PriceStore
	ledger    *SignalLedger
	challenge *ChallengeManager
	archive   drepo.Archive
	market    func(time.Time) models.MarketStatus
	now       func() time.Time
}

type ArenaQueryDeps struct {
	Roster    []models.Bot
	Prices    *PriceStore
	Ledger    *SignalLedger
	Challenge *ChallengeManager
	Archive   drepo.Archive // nil when no queryable backend is configured
	Market    func(time.Time) models.MarketStatus
}

func NewArenaQuery(d ArenaQueryDeps) *ArenaQuery {
	mkt := d.Market
	if mkt == nil {
		mkt = func(time.Time) models.MarketStatus { return models.MarketClosed }
	}
	return &ArenaQuery{
		roster:    d.Roster,
		prices:    d.Prices,
		ledger:    d.Ledger,
		challenge: d.Challenge,
		archive:   d.Archive,
		market:    mkt,
		now:       time.Now,
	}
}

func (q *ArenaQuery) Roster() []models.Bot {
	return append([]models.Bot(nil), q.roster...)
}

func (q *ArenaQuery) bot(id string) (models.Bot, bool) {
	for _, b := range q.roster {
		if b.ID == id {
			return b, true
		}
	}
	return models.Bot{}, false
}

func (q *ArenaQuery) Snapshot() models.PriceSnapshot { return q.prices.Snapshot() }

func (q *ArenaQuery) Window() models.ChallengeWindow { return q.challenge.Window() }

func (q *ArenaQuery) Logs(limit int) []models.VerdictLog { return q.ledger.LatestLogs(limit) }

// Leaderboard joins the ranking with roster metadata.
func (q *ArenaQuery) Leaderboard() []RankedBot {
	rows := q.challenge.Leaderboard()
	out := make([]RankedBot, 0, len(rows))
	for _, e := range rows {
		r := RankedBot{LeaderboardEntry: e}
		if b, ok := q.bot(e.ID); ok {
			r.Name, r.HumanName, r.Risk = b.Name, b.HumanName, b.Risk
			r.StrategyTitle, r.Category = b.StrategyTitle, b.Category
		}
		out = append(out, r)
	}
	return out
}

func (q *ArenaQuery) Status() StatusPayload {
	now := q.now()
	return StatusPayload{
		Snapshot:     q.prices.Snapshot(),
		Leaderboard:  q.Leaderboard(),
		Logs:         q.ledger.LatestLogs(10),
		Window:       q.challenge.Window(),
		MarketStatus: q.market(now),
		UpdatedAt:    q.prices.UpdatedAt(),
	}
}

func (q *ArenaQuery) Bot(id string) (*BotProfile, error) {
	b, ok := q.bot(id)
	if !ok {
		return nil, ErrBotNotFound
	}
	score, _ := q.challenge.Score(id)
	capital := decimal.NewFromFloat(q.challenge.CapitalBase())
	return &BotProfile{
		Bot: b,
		Stats: BotStats{
			PnL:            decimal.NewFromFloat(score.PnL).Round(2).InexactFloat64(),
			Trades:         score.Trades,
			Wins:           score.Wins,
			Balance:        capital.Add(decimal.NewFromFloat(score.PnL)).Round(2).InexactFloat64(),
			InitialBalance: capital.InexactFloat64(),
			Status:         score.Status,
			Reason:         score.Reason,
		},
		History: q.ledger.BotHistory(id),
	}, nil
}

// Trades returns approved signals, newest first; limit <= 0 means all resident.
func (q *ArenaQuery) Trades(limit int) []models.Signal { return q.ledger.Approved(limit) }

func (q *ArenaQuery) Trade(id uint64) (*TradeDetail, error) {
	s, ok := q.ledger.Signal(id)
	if !ok || s.Status != models.StatusApproved {
		return nil, ErrTradeNotFound
	}
	d := &TradeDetail{Signal: s, Qty: TradeQty}
	d.Bot, _ = q.bot(s.BotID)
	if l, ok := q.ledger.LogFor(id); ok {
		d.Log = &l
	}
	if cur, ok := q.prices.Price(s.Symbol); ok {
		pnl := LivePnL(s.Side, s.Price, cur, TradeQty)
		d.CurrentPrice, d.LivePnL = &cur, &pnl
	}
	return d, nil
}

// LivePnL marks an open position to the current price.
func LivePnL(side models.Side, entry, current float64, qty int) float64 {
	diff := decimal.NewFromFloat(current).Sub(decimal.NewFromFloat(entry))
	if side == models.SideSell {
		diff = diff.Neg()
	}
	return diff.Mul(decimal.NewFromInt(int64(qty))).Round(2).InexactFloat64()
}

func (q *ArenaQuery) Archive(ctx context.Context, botID string, since time.Time, limit int) ([]*models.VerdictEvent, error) {
	if _, ok := q.bot(botID); !ok {
		return nil, ErrBotNotFound
	}
	if q.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return q.archive.Query(ctx, botID, since, limit)
}

// StartChallenge opens a new window now, resetting every score.
func (q *ArenaQuery) StartChallenge() models.ChallengeWindow {
	return q.challenge.StartWindow(q.now())
}

func (q *ArenaQuery) Disqualify(botID, reason string) (models.BotScore, error) {
	if _, ok := q.bot(botID); !ok {
		return models.BotScore{}, ErrBotNotFound
	}
	if !q.challenge.Disqualify(botID, strings.TrimSpace(reason)) {
		return models.BotScore{}, ErrAlreadyDisqualified
	}
	s, _ := q.challenge.Score(botID)
	return s, nil
}
