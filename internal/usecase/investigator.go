package usecase

import (
	"fmt"
	"math"

	"ChallengeArena/internal/domain/models"
	"ChallengeArena/pkg/util"
)

// Rejection reasons.
const (
	ReasonSymbolNotFound    = "symbol not found"
	ReasonPriceMismatch     = "price mismatch"
	ReasonSentimentMismatch = "sentiment mismatch"
	ReasonRandomAudit       = "random audit"
)

type InvestigatorConfig struct {
	PriceTolerance   float64 // max relative diff against the snapshot price
	AuditRejectProb  float64 // spot-audit rejection applied after every other check
	BuyRSIWarnAbove  float64
	SellRSIWarnBelow float64
}

func DefaultInvestigatorConfig() InvestigatorConfig {
	return InvestigatorConfig{
		PriceTolerance:   0.05,
		AuditRejectProb:  0.10,
		BuyRSIWarnAbove:  40,
		SellRSIWarnBelow: 60,
	}
}

// Investigator validates signals against a price snapshot and their evidence.
// It never mutates the snapshot.
type Investigator struct {
	cfg InvestigatorConfig
	rnd util.Rand
}

func NewInvestigator(cfg InvestigatorConfig, rnd util.Rand) *Investigator {
	return &Investigator{cfg: cfg, rnd: rnd}
}

func (inv *Investigator) Review(s models.Signal, snap models.PriceSnapshot) models.Review {
	current, ok := snap[s.Symbol]
	if !ok || current <= 0 {
		return reject(ReasonSymbolNotFound, nil)
	}

	diff := math.Abs(current-s.Price) / current
	if diff > inv.cfg.PriceTolerance {
		return reject(ReasonPriceMismatch, nil)
	}

	var audit []models.AuditEntry
	if ev := s.Evidence; ev != nil {
		switch ev.Kind {
		case models.EvidenceTechnical:
			audit = append(audit, inv.auditTechnical(s.Side, ev.Technical)...)
		case models.EvidenceVolume:
			audit = append(audit, auditVolume(ev.Volume)...)
		case models.EvidenceSentiment:
			score := 0.5
			if ev.Sentiment != nil {
				score = ev.Sentiment.Score
			}
			if s.Side == models.SideBuy && score < 0.5 {
				return reject(ReasonSentimentMismatch, nil)
			}
			audit = append(audit, models.AuditEntry{
				Check:  "sentiment alignment",
				Status: models.AuditPass,
				Note:   fmt.Sprintf("alignment %d%%", int(score*100)),
			})
		}
		audit = append(audit, models.AuditEntry{
			Check:  "fair price",
			Status: models.AuditPass,
			Note:   fmt.Sprintf("difference %.2f%% accepted", diff*100),
		})
	}

	if util.Chance(inv.rnd, inv.cfg.AuditRejectProb) {
		return reject(ReasonRandomAudit, audit)
	}
	return models.Review{Verdict: models.VerdictApproved, Audit: audit}
}

func (inv *Investigator) auditTechnical(side models.Side, t *models.TechnicalEvidence) []models.AuditEntry {
	var out []models.AuditEntry
	if rsi, ok := t.Indicator(models.IndicatorRSI); ok {
		e := models.AuditEntry{Check: "RSI value", Status: models.AuditPass, Note: "inside the extreme zone"}
		switch {
		case side == models.SideBuy && rsi.Value > inv.cfg.BuyRSIWarnAbove:
			e.Status = models.AuditWarn
			e.Note = fmt.Sprintf("%.1f is high for a buy", rsi.Value)
		case side == models.SideSell && rsi.Value < inv.cfg.SellRSIWarnBelow:
			e.Status = models.AuditWarn
			e.Note = fmt.Sprintf("%.1f is low for a sell", rsi.Value)
		}
		out = append(out, e)
	} else {
		out = append(out, models.AuditEntry{Check: "technical indicators", Status: models.AuditPass, Note: "entry conditions met"})
	}
	return append(out, models.AuditEntry{Check: "candle close", Status: models.AuditPass, Note: "closed above support"})
}

func auditVolume(v *models.VolumeEvidence) []models.AuditEntry {
	flow := ""
	if v != nil {
		flow = v.NetFlow
	}
	return []models.AuditEntry{
		{Check: "liquidity flow", Status: models.AuditPass, Note: flow},
		{Check: "order book", Status: models.AuditPass, Note: "resting bids look genuine"},
	}
}

func reject(reason string, audit []models.AuditEntry) models.Review {
	return models.Review{Verdict: models.VerdictRejected, Reason: reason, Audit: audit}
}
