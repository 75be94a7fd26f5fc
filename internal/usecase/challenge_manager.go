package usecase

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ChallengeArena/internal/domain/models"
	"ChallengeArena/pkg/logger"
	"ChallengeArena/pkg/util"
)

type ChallengeConfig struct {
	TradingDays int
	Weekend     []time.Weekday
	CapitalBase float64
}

// ChallengeManager owns the challenge window and the per-bot score records.
// Every mutation happens under one mutex so readers never see a half-applied trade.
type ChallengeManager struct {
	cfg    ChallengeConfig
	roster []string
	lgr    *logger.Logger
	now    func() time.Time

	mu     sync.RWMutex
	window models.ChallengeWindow
	scores map[string]*models.BotScore
}

func NewChallengeManager(cfg ChallengeConfig, roster []string, lgr *logger.Logger) *ChallengeManager {
	if cfg.TradingDays <= 0 {
		cfg.TradingDays = 5
	}
	if cfg.CapitalBase <= 0 {
		cfg.CapitalBase = 100000
	}
	ids := append([]string(nil), roster...)
	m := &ChallengeManager{
		cfg:    cfg,
		roster: ids,
		lgr:    lgr,
		now:    time.Now,
		scores: make(map[string]*models.BotScore, len(ids)),
	}
	for _, id := range ids {
		m.scores[id] = &models.BotScore{BotID: id, Status: models.BotActive}
	}
	return m
}

// StartWindow opens a fresh window at now and resets every score record.
// Calling it again replaces the previous window and scores.
func (m *ChallengeManager) StartWindow(now time.Time) models.ChallengeWindow {
	end := util.AddTradingDays(now, m.cfg.TradingDays, m.cfg.Weekend)

	m.mu.Lock()
	m.window = models.ChallengeWindow{Start: now, End: end, IsActive: true}
	scores := make(map[string]*models.BotScore, len(m.roster))
	for _, id := range m.roster {
		scores[id] = &models.BotScore{BotID: id, Status: models.BotActive}
	}
	m.scores = scores
	w := m.window
	m.mu.Unlock()

	m.lgr.Info("challenge window started", logger.Any("start", w.Start), logger.Any("end", w.End))
	return w
}

// Window returns the current window; IsActive turns false once its end has passed.
func (m *ChallengeManager) Window() models.ChallengeWindow {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w := m.window
	w.IsActive = m.activeLocked()
	return w
}

func (m *ChallengeManager) Active() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeLocked()
}

func (m *ChallengeManager) activeLocked() bool {
	return m.window.IsActive && m.now().Before(m.window.End)
}

// UpdateScore applies one closed trade. It reports whether the score changed;
// inactive windows, unknown bots and disqualified bots are silent no-ops.
func (m *ChallengeManager) UpdateScore(botID string, pnl float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return false
	}
	s, ok := m.scores[botID]
	if !ok || s.Status != models.BotActive {
		return false
	}
	s.PnL += pnl
	s.Trades++
	if pnl > 0 {
		s.Wins++
	}
	return true
}

// Disqualify is one-way and idempotent. It reports whether the status changed.
func (m *ChallengeManager) Disqualify(botID, reason string) bool {
	m.mu.Lock()
	s, ok := m.scores[botID]
	if !ok || s.Status == models.BotDisqualified {
		m.mu.Unlock()
		return false
	}
	s.Status = models.BotDisqualified
	s.Reason = reason
	m.mu.Unlock()

	m.lgr.Warn("bot disqualified", logger.String("bot", botID), logger.String("reason", reason))
	return true
}

// Score returns a copy of one bot's record.
func (m *ChallengeManager) Score(botID string) (models.BotScore, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scores[botID]
	if !ok {
		return models.BotScore{}, false
	}
	return *s, true
}

// IsActiveBot reports whether the bot is known and not disqualified.
func (m *ChallengeManager) IsActiveBot(botID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scores[botID]
	return ok && s.Status == models.BotActive
}

func (m *ChallengeManager) CapitalBase() float64 { return m.cfg.CapitalBase }

// Leaderboard ranks bots by raw pnl, descending; equal pnl keeps roster order.
func (m *ChallengeManager) Leaderboard() []models.LeaderboardEntry {
	m.mu.RLock()
	rows := make([]models.BotScore, 0, len(m.roster))
	for _, id := range m.roster {
		rows = append(rows, *m.scores[id])
	}
	m.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].PnL > rows[j].PnL })

	capital := decimal.NewFromFloat(m.cfg.CapitalBase)
	hundred := decimal.NewFromInt(100)
	out := make([]models.LeaderboardEntry, 0, len(rows))
	for _, s := range rows {
		pnl := decimal.NewFromFloat(s.PnL)
		e := models.LeaderboardEntry{
			ID:        s.BotID,
			PnL:       pnl.Round(2).InexactFloat64(),
			ProfitPct: pnl.Div(capital).Mul(hundred).Round(2).InexactFloat64(),
			Balance:   capital.Add(pnl).Round(2).InexactFloat64(),
			Trades:    s.Trades,
			Wins:      s.Wins,
			Losses:    s.Trades - s.Wins,
			Status:    s.Status,
		}
		if s.Trades > 0 {
			e.WinRate = decimal.NewFromInt(int64(s.Wins)).
				Div(decimal.NewFromInt(int64(s.Trades))).
				Mul(hundred).Round(1).InexactFloat64()
		}
		out = append(out, e)
	}
	return out
}
