package strategy

import (
	"fmt"
	"sort"

	"ChallengeArena/internal/domain/models"
	"ChallengeArena/pkg/util"
)

// DefaultEmission is the per-category chance that a decision produces a signal.
var DefaultEmission = map[models.Category]float64{
	models.CategoryTrend:          0.2, // per qualifying ticker
	models.CategoryRSI:            1.0,
	models.CategoryMACD:           1.0,
	models.CategoryVolatilityBand: 1.0,
	models.CategoryVolume:         1.0,
	models.CategorySentiment:      1.0,
	models.CategoryScalping:       0.5,
	models.CategoryContrarian:     1.0,
	models.CategoryRandom:         0.1,
}

// trendFloor is the price a trend follower treats as a breakout level.
const trendFloor = 50.0

// variant is the per-category decision rule.
type variant struct {
	side   models.Side // empty means a random side
	reason string
}

var variants = map[models.Category]variant{
	models.CategoryTrend:          {models.SideBuy, "Price above 50 SAR breakout"},
	models.CategoryRSI:            {models.SideSell, "RSI overbought (>70)"},
	models.CategoryMACD:           {models.SideBuy, "MACD golden cross"},
	models.CategoryVolatilityBand: {models.SideBuy, "Lower band touch"},
	models.CategoryVolume:         {models.SideBuy, "Volume spike detected"},
	models.CategorySentiment:      {models.SideBuy, "Positive social sentiment"},
	models.CategoryScalping:       {models.SideBuy, "Micro-structure arbitrage"},
	models.CategoryContrarian:     {models.SideSell, "Fading the noise"},
	models.CategoryRandom:         {"", "Random gut feeling"},
}

// Engine turns a price snapshot into at most one proposal per bot.
// It holds no per-bot state; the only shared resource is the random source.
type Engine struct {
	rnd      util.Rand
	emission map[models.Category]float64
}

// NewEngine builds an engine; categories missing from emission fall back to DefaultEmission.
func NewEngine(rnd util.Rand, emission map[models.Category]float64) *Engine {
	e := &Engine{rnd: rnd, emission: make(map[models.Category]float64, len(DefaultEmission))}
	for c, p := range DefaultEmission {
		e.emission[c] = p
	}
	for c, p := range emission {
		e.emission[c] = p
	}
	return e
}

// Emission returns the configured probability for a category.
func (e *Engine) Emission(c models.Category) float64 { return e.emission[c] }

// Decide returns a proposal, or false when the bot passes this round.
// An empty snapshot never yields a proposal.
func (e *Engine) Decide(bot models.Bot, snap models.PriceSnapshot) (models.Proposal, bool) {
	if len(snap) == 0 {
		return models.Proposal{}, false
	}
	v, ok := variants[bot.Category]
	if !ok {
		return models.Proposal{}, false
	}
	symbols := sortedSymbols(snap)
	p := e.emission[bot.Category]

	var symbol string
	switch bot.Category {
	case models.CategoryTrend:
		for _, s := range symbols {
			if snap[s] > trendFloor && util.Chance(e.rnd, p) {
				symbol = s
				break
			}
		}
		if symbol == "" {
			return models.Proposal{}, false
		}
	default:
		if !util.Chance(e.rnd, p) {
			return models.Proposal{}, false
		}
		symbol = symbols[e.rnd.IntN(len(symbols))]
	}

	side := v.side
	if side == "" {
		side = models.SideBuy
		if e.rnd.IntN(2) == 1 {
			side = models.SideSell
		}
	}

	price := snap[symbol]
	return models.Proposal{
		Symbol:   symbol,
		Side:     side,
		Price:    price,
		Reason:   v.reason,
		Evidence: e.EvidenceFor(bot, symbol, side, price),
	}, true
}

func sortedSymbols(snap models.PriceSnapshot) []string {
	out := make([]string, 0, len(snap))
	for s := range snap {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// EvidenceFor builds the simulated evidence variant matching the bot's category.
func (e *Engine) EvidenceFor(bot models.Bot, symbol string, side models.Side, price float64) *models.Evidence {
	ev := &models.Evidence{
		Kind:       bot.Category.EvidenceKind(),
		ReportText: fmt.Sprintf("%s analysis: strong signal on %s based on the data above.", bot.StrategyTitle, symbol),
	}
	switch ev.Kind {
	case models.EvidenceTechnical:
		ev.Technical = e.technical(bot.Category, side, price)
	case models.EvidenceVolume:
		ev.Volume = e.volume(price)
	default:
		ev.Sentiment = e.sentiment(symbol, side)
	}
	return ev
}
