package models

import "time"

type BotStatus string

const (
	BotActive       BotStatus = "ACTIVE"
	BotDisqualified BotStatus = "DISQUALIFIED"
)

type BotScore struct {
	BotID  string    `json:"bot_id"`
	PnL    float64   `json:"pnl"`
	Trades int       `json:"trades"`
	Wins   int       `json:"wins"`
	Status BotStatus `json:"status"`
	Reason string    `json:"disqualify_reason,omitempty"`
}

type ChallengeWindow struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	IsActive bool      `json:"active"`
}

type LeaderboardEntry struct {
	ID        string    `json:"id"`
	PnL       float64   `json:"pnl"`
	ProfitPct float64   `json:"profit_pct"`
	Balance   float64   `json:"balance"`
	Trades    int       `json:"trades"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	WinRate   float64   `json:"win_rate"`
	Status    BotStatus `json:"status"`
}
