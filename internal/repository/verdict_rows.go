package repository

import (
	"encoding/json"
	"strings"

	"ChallengeArena/internal/domain/models"
)

const verdictColumns = "event_id, signal_id, bot_id, symbol, side, price, verdict, reason, audit, pnl, ts"

// audit trails are stored as a JSON text column in every backend
func encodeAudit(a []models.AuditEntry) string {
	if len(a) == 0 {
		return "[]"
	}
	b, err := json.Marshal(a)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeAudit(s string) []models.AuditEntry {
	s = strings.TrimSpace(s)
	if s == "" || s == "[]" {
		return nil
	}
	var out []models.AuditEntry
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func placeholders(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}

func validForInsert(ev *models.VerdictEvent) bool {
	return ev != nil && ev.EventID != "" && ev.BotID != ""
}
