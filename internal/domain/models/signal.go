package models

import "time"

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type SignalStatus string

const (
	StatusPending  SignalStatus = "PENDING"
	StatusApproved SignalStatus = "APPROVED"
	StatusRejected SignalStatus = "REJECTED"
)

// Proposal is a strategy's raw output before it is recorded in the ledger.
type Proposal struct {
	Symbol   string    `json:"symbol"`
	Side     Side      `json:"type"`
	Price    float64   `json:"price"`
	Reason   string    `json:"reason"`
	Evidence *Evidence `json:"evidence,omitempty"`
}

// Signal is a recorded proposal. Status moves from PENDING exactly once.
type Signal struct {
	ID         uint64       `json:"id"`
	Timestamp  time.Time    `json:"timestamp"`
	BotID      string       `json:"bot_id"`
	Symbol     string       `json:"symbol"`
	Side       Side         `json:"type"`
	Price      float64      `json:"price"`
	Reason     string       `json:"reason"`
	Evidence   *Evidence    `json:"evidence,omitempty"`
	Status     SignalStatus `json:"status"`
	AuditTrail []AuditEntry `json:"audit_trail,omitempty"`
}

type AuditStatus string

const (
	AuditPass AuditStatus = "PASS"
	AuditWarn AuditStatus = "WARN"
)

type AuditEntry struct {
	Check  string      `json:"check"`
	Status AuditStatus `json:"status"`
	Note   string      `json:"note"`
}
