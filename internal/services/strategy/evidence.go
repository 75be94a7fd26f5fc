package strategy

import (
	"fmt"
	"math"

	"ChallengeArena/internal/domain/models"
	"ChallengeArena/pkg/util"
)

// RSI bands used for simulated indicator readings.
const (
	OversoldLow    = 20
	OversoldHigh   = 29
	OverboughtLow  = 71
	OverboughtHigh = 85

	seriesLen = 10
)

func (e *Engine) technical(c models.Category, side models.Side, price float64) *models.TechnicalEvidence {
	t := &models.TechnicalEvidence{Series: e.series(price)}
	switch c {
	case models.CategoryRSI:
		rsi := util.IntRange(e.rnd, OverboughtLow, OverboughtHigh)
		if side == models.SideBuy {
			rsi = util.IntRange(e.rnd, OversoldLow, OversoldHigh)
		}
		t.Indicators = []models.Indicator{
			{Name: models.IndicatorRSI, Value: float64(rsi)},
			{Name: "Support", Label: "Strong"},
		}
		t.Note = fmt.Sprintf("RSI reached %d which supports a reversal.", rsi)
	case models.CategoryMACD:
		t.Indicators = []models.Indicator{
			{Name: "MACD", Label: "Positive cross"},
			{Name: "Histogram", Value: 0.45},
		}
		t.Note = "Positive MACD crossover with rising momentum."
	case models.CategoryVolatilityBand:
		t.Indicators = []models.Indicator{
			{Name: "Band width", Label: "Squeeze"},
			{Name: "Price", Label: "Lower band"},
		}
		t.Note = "Price touches the lower Bollinger band with low deviation."
	default:
		t.Indicators = []models.Indicator{
			{Name: "EMA 50", Label: "Above"},
			{Name: "Trend", Label: "Bullish"},
		}
		t.Note = "Price holds above the main moving averages."
	}
	return t
}

// series is a short random walk ending near price.
func (e *Engine) series(price float64) []float64 {
	out := make([]float64, seriesLen)
	p := price
	for i := seriesLen - 1; i >= 0; i-- {
		out[i] = math.Round(p*100) / 100
		p -= util.Uniform(e.rnd, -0.01, 0.01) * price
	}
	return out
}

func (e *Engine) volume(price float64) *models.VolumeEvidence {
	v := &models.VolumeEvidence{
		SurgePct: util.IntRange(e.rnd, 200, 600),
		NetFlow:  "Inflow (buying)",
		VWAP:     math.Round(price*100) / 100,
	}
	for i := 0; i < 3; i++ {
		v.OrderBook.Bids = append(v.OrderBook.Bids, util.IntRange(e.rnd, 1000, 5000))
		v.OrderBook.Asks = append(v.OrderBook.Asks, util.IntRange(e.rnd, 200, 800))
	}
	return v
}

func (e *Engine) sentiment(symbol string, side models.Side) *models.SentimentEvidence {
	score := util.Uniform(e.rnd, 0.1, 0.4)
	if side == models.SideBuy {
		score = util.Uniform(e.rnd, 0.7, 0.99)
	}
	return &models.SentimentEvidence{
		SocialVolume: util.IntRange(e.rnd, 12, 45),
		Score:        score,
		Headlines: []string{
			fmt.Sprintf("Optimism around %s financial results.", symbol),
			fmt.Sprintf("Report: the %s sector attracts investment.", symbol),
		},
	}
}
