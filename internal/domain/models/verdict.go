package models

import "time"

type Verdict string

const (
	VerdictApproved Verdict = "APPROVED"
	VerdictRejected Verdict = "REJECTED"
)

// Status maps a verdict onto the terminal signal status.
func (v Verdict) Status() SignalStatus {
	if v == VerdictApproved {
		return StatusApproved
	}
	return StatusRejected
}

// Review is the investigator's decision on one signal.
type Review struct {
	Verdict Verdict      `json:"verdict"`
	Reason  string       `json:"reason,omitempty"`
	Audit   []AuditEntry `json:"audit,omitempty"`
}

// VerdictLog references its signal by id only; the signal may have been evicted.
type VerdictLog struct {
	Timestamp time.Time `json:"timestamp"`
	SignalID  uint64    `json:"signal_id"`
	Verdict   Verdict   `json:"verdict"`
	Message   string    `json:"message"`
	BotID     string    `json:"bot_id"`
}

// VerdictEvent is the archived/published form of a verdict.
type VerdictEvent struct {
	EventID   string       `json:"event_id"`
	SignalID  uint64       `json:"signal_id"`
	BotID     string       `json:"bot_id"`
	Symbol    string       `json:"symbol"`
	Side      Side         `json:"side"`
	Price     float64      `json:"price"`
	Verdict   Verdict      `json:"verdict"`
	Reason    string       `json:"reason"`
	Audit     []AuditEntry `json:"audit,omitempty"`
	PnL       float64      `json:"pnl"`
	Timestamp time.Time    `json:"ts"`
}

// BotHistory groups a bot's resident signals and verdict logs.
type BotHistory struct {
	Signals []Signal     `json:"signals"`
	Logs    []VerdictLog `json:"logs"`
}
