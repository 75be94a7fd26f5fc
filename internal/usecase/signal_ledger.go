package usecase

import (
	"errors"
	"sync"
	"time"

	"ChallengeArena/internal/domain/models"
)

var (
	ErrSignalNotFound  = errors.New("signal not resident in ledger")
	ErrVerdictApplied  = errors.New("signal already has a verdict")
	ErrInvalidProposal = errors.New("invalid proposal")
)

// SignalLedger keeps bounded histories of signals and verdict logs.
// Ids come from a counter that is independent of buffer position.
type SignalLedger struct {
	mu      sync.RWMutex
	signals *ring[models.Signal]
	logs    *ring[models.VerdictLog]
	nextID  uint64
	now     func() time.Time
}

func NewSignalLedger(signalCap, verdictCap int) *SignalLedger {
	return &SignalLedger{
		signals: newRing[models.Signal](signalCap),
		logs:    newRing[models.VerdictLog](verdictCap),
		now:     time.Now,
	}
}

// Record stores p as a PENDING signal and returns a copy carrying its new id.
func (l *SignalLedger) Record(botID string, p models.Proposal) (models.Signal, error) {
	if botID == "" || p.Symbol == "" || (p.Side != models.SideBuy && p.Side != models.SideSell) {
		return models.Signal{}, ErrInvalidProposal
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	s := models.Signal{
		ID:        l.nextID,
		Timestamp: l.now(),
		BotID:     botID,
		Symbol:    p.Symbol,
		Side:      p.Side,
		Price:     p.Price,
		Reason:    p.Reason,
		Evidence:  p.Evidence,
		Status:    models.StatusPending,
	}
	l.signals.push(s)
	return s, nil
}

// ApplyVerdict moves a resident PENDING signal to its terminal status,
// attaches the audit trail, and appends the verdict log.
func (l *SignalLedger) ApplyVerdict(id uint64, review models.Review, message string) (models.VerdictLog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.find(id)
	if s == nil {
		return models.VerdictLog{}, ErrSignalNotFound
	}
	if s.Status != models.StatusPending {
		return models.VerdictLog{}, ErrVerdictApplied
	}
	s.Status = review.Verdict.Status()
	if len(review.Audit) > 0 {
		s.AuditTrail = append([]models.AuditEntry(nil), review.Audit...)
	}

	entry := models.VerdictLog{
		Timestamp: l.now(),
		SignalID:  id,
		Verdict:   review.Verdict,
		Message:   message,
		BotID:     s.BotID,
	}
	l.logs.push(entry)
	return entry, nil
}

// find must be called with l.mu held. Ids are increasing in buffer order.
func (l *SignalLedger) find(id uint64) *models.Signal {
	n := l.signals.len()
	if n == 0 {
		return nil
	}
	first := l.signals.at(0).ID
	if id < first || id > l.signals.at(n-1).ID {
		return nil
	}
	s := l.signals.at(int(id - first))
	if s.ID != id {
		return nil
	}
	return s
}

// Signal returns a copy of a resident signal.
func (l *SignalLedger) Signal(id uint64) (models.Signal, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := l.find(id)
	if s == nil {
		return models.Signal{}, false
	}
	return cloneSignal(*s), true
}

// LatestLogs returns up to limit verdict logs, newest first. A limit
// below 1 returns none.
func (l *SignalLedger) LatestLogs(limit int) []models.VerdictLog {
	limit = max(limit, 0)
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.VerdictLog, 0, min(limit, l.logs.len()))
	l.logs.newestFirst(func(v *models.VerdictLog) bool {
		if len(out) >= limit {
			return false
		}
		out = append(out, *v)
		return true
	})
	return out
}

// LogFor returns the verdict log of a signal if it is still resident.
func (l *SignalLedger) LogFor(signalID uint64) (models.VerdictLog, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var (
		found models.VerdictLog
		ok    bool
	)
	l.logs.newestFirst(func(v *models.VerdictLog) bool {
		if v.SignalID == signalID {
			found, ok = *v, true
			return false
		}
		return true
	})
	return found, ok
}

// BotHistory returns a bot's resident signals and logs, newest first.
func (l *SignalLedger) BotHistory(botID string) models.BotHistory {
	l.mu.RLock()
	defer l.mu.RUnlock()

	h := models.BotHistory{Signals: []models.Signal{}, Logs: []models.VerdictLog{}}
	l.signals.newestFirst(func(s *models.Signal) bool {
		if s.BotID == botID {
			h.Signals = append(h.Signals, cloneSignal(*s))
		}
		return true
	})
	l.logs.newestFirst(func(v *models.VerdictLog) bool {
		if v.BotID == botID {
			h.Logs = append(h.Logs, *v)
		}
		return true
	})
	return h
}

// Approved returns up to limit APPROVED signals, newest first. limit <= 0 means all.
func (l *SignalLedger) Approved(limit int) []models.Signal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []models.Signal{}
	l.signals.newestFirst(func(s *models.Signal) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}
		if s.Status == models.StatusApproved {
			out = append(out, cloneSignal(*s))
		}
		return true
	})
	return out
}

func cloneSignal(s models.Signal) models.Signal {
	if s.AuditTrail != nil {
		s.AuditTrail = append([]models.AuditEntry(nil), s.AuditTrail...)
	}
	return s
}
