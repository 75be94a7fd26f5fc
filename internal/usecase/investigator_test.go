package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChallengeArena/internal/domain/models"
)

func newTestInvestigator(rolls ...float64) *Investigator {
	if len(rolls) == 0 {
		rolls = []float64{0.99} // never spot-audit
	}
	return NewInvestigator(DefaultInvestigatorConfig(), newSeqRand(rolls...))
}

func technical(rsi float64) *models.Evidence {
	return &models.Evidence{
		Kind: models.EvidenceTechnical,
		Technical: &models.TechnicalEvidence{
			Indicators: []models.Indicator{{Name: models.IndicatorRSI, Value: rsi}},
		},
	}
}

func sentiment(score float64) *models.Evidence {
	return &models.Evidence{Kind: models.EvidenceSentiment, Sentiment: &models.SentimentEvidence{Score: score}}
}

func TestInvestigatorPriceMismatch(t *testing.T) {
	inv := newTestInvestigator()
	sig := models.Signal{Symbol: "2222", Side: models.SideBuy, Price: 100.0}

	r := inv.Review(sig, models.PriceSnapshot{"2222": 106.0})
	assert.Equal(t, models.VerdictRejected, r.Verdict)
	assert.Equal(t, ReasonPriceMismatch, r.Reason)

	r = inv.Review(sig, models.PriceSnapshot{"2222": 104.0})
	assert.Equal(t, models.VerdictApproved, r.Verdict)
}

func TestInvestigatorSymbolNotFound(t *testing.T) {
	inv := newTestInvestigator()
	r := inv.Review(models.Signal{Symbol: "9999", Price: 1, Evidence: technical(25)}, models.PriceSnapshot{})
	assert.Equal(t, models.VerdictRejected, r.Verdict)
	assert.Equal(t, ReasonSymbolNotFound, r.Reason)
	assert.Empty(t, r.Audit)
}

func TestInvestigatorSentimentMismatch(t *testing.T) {
	inv := newTestInvestigator()
	snap := models.PriceSnapshot{"1120": 80}

	for _, score := range []float64{0, 0.2, 0.49} {
		r := inv.Review(models.Signal{Symbol: "1120", Side: models.SideBuy, Price: 80, Evidence: sentiment(score)}, snap)
		assert.Equal(t, models.VerdictRejected, r.Verdict, "score %v", score)
		assert.Equal(t, ReasonSentimentMismatch, r.Reason)
	}

	// a low score on a SELL is consistent
	r := inv.Review(models.Signal{Symbol: "1120", Side: models.SideSell, Price: 80, Evidence: sentiment(0.2)}, snap)
	assert.Equal(t, models.VerdictApproved, r.Verdict)
	require.Len(t, r.Audit, 2)
	assert.Equal(t, "sentiment alignment", r.Audit[0].Check)
	assert.Equal(t, "fair price", r.Audit[1].Check)
}

func TestInvestigatorTechnicalNeverRejects(t *testing.T) {
	inv := newTestInvestigator()
	snap := models.PriceSnapshot{"2010": 50}

	cases := []struct {
		name string
		side models.Side
		rsi  float64
		want models.AuditStatus
	}{
		{"oversold buy", models.SideBuy, 25, models.AuditPass},
		{"high buy", models.SideBuy, 55, models.AuditWarn},
		{"overbought sell", models.SideSell, 78, models.AuditPass},
		{"low sell", models.SideSell, 30, models.AuditWarn},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := inv.Review(models.Signal{Symbol: "2010", Side: tc.side, Price: 50, Evidence: technical(tc.rsi)}, snap)
			assert.Equal(t, models.VerdictApproved, r.Verdict)
			require.Len(t, r.Audit, 3)
			assert.Equal(t, tc.want, r.Audit[0].Status)
			assert.Equal(t, "candle close", r.Audit[1].Check)
			assert.Equal(t, "fair price", r.Audit[2].Check)
		})
	}
}

func TestInvestigatorVolumeAudit(t *testing.T) {
	inv := newTestInvestigator()
	ev := &models.Evidence{Kind: models.EvidenceVolume, Volume: &models.VolumeEvidence{NetFlow: "+3M SAR"}}
	r := inv.Review(models.Signal{Symbol: "7010", Side: models.SideBuy, Price: 40, Evidence: ev}, models.PriceSnapshot{"7010": 40.5})

	assert.Equal(t, models.VerdictApproved, r.Verdict)
	require.Len(t, r.Audit, 3)
	assert.Equal(t, "+3M SAR", r.Audit[0].Note)
	for _, a := range r.Audit {
		assert.Equal(t, models.AuditPass, a.Status)
	}
}

func TestInvestigatorNoEvidenceNoAudit(t *testing.T) {
	inv := newTestInvestigator()
	r := inv.Review(models.Signal{Symbol: "1180", Side: models.SideSell, Price: 30}, models.PriceSnapshot{"1180": 30})
	assert.Equal(t, models.VerdictApproved, r.Verdict)
	assert.Nil(t, r.Audit)
}

func TestInvestigatorRandomAuditIsLast(t *testing.T) {
	inv := newTestInvestigator(0.01)
	snap := models.PriceSnapshot{"2222": 30}

	r := inv.Review(models.Signal{Symbol: "2222", Side: models.SideBuy, Price: 30, Evidence: technical(22)}, snap)
	assert.Equal(t, models.VerdictRejected, r.Verdict)
	assert.Equal(t, ReasonRandomAudit, r.Reason)
	assert.Len(t, r.Audit, 3, "audit trail is kept on spot-audit rejections")

	// earlier checks win over the audit roll
	r = inv.Review(models.Signal{Symbol: "2222", Side: models.SideBuy, Price: 50}, snap)
	assert.Equal(t, ReasonPriceMismatch, r.Reason)
}

func TestInvestigatorDoesNotMutateSnapshot(t *testing.T) {
	inv := newTestInvestigator()
	snap := models.PriceSnapshot{"2222": 30}
	inv.Review(models.Signal{Symbol: "2222", Side: models.SideBuy, Price: 30, Evidence: sentiment(0.9)}, snap)
	assert.Equal(t, models.PriceSnapshot{"2222": 30}, snap)
}
