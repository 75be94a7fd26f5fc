package strategy

import "ChallengeArena/internal/domain/models"

const (
	RiskLow      = "Low"
	RiskMedium   = "Medium"
	RiskVeryHigh = "Very high"
)

// Roster is the fixed competitor list in processing order.
var Roster = []models.Bot{
	{
		ID: "hunter", Name: "Raed", HumanName: "Raed",
		Bio:           "Hunts short-term breakouts. The golden chance only comes once.",
		Risk:          RiskMedium,
		StrategyTitle: "Fast breakout",
		Explanation:   "Uses RSI and moving averages to time entries and exits, looking for strong breakouts confirmed by volume.",
		Category:      models.CategoryTrend,
	},
	{
		ID: "analyst", Name: "Wijdan", HumanName: "Wijdan",
		Bio:           "A data-driven analyst. Data does not lie, numbers speak.",
		Risk:          RiskLow,
		StrategyTitle: "Dual analysis",
		Explanation:   "Combines fundamental and market-mood analysis with a grading scheme for signal strength.",
		Category:      models.CategorySentiment,
	},
	{
		ID: "lightning", Name: "Bayan", HumanName: "Bayan",
		Bio:           "Direct and quick in intraday trading. Speed is power.",
		Risk:          RiskVeryHigh,
		StrategyTitle: "Smart scalping",
		Explanation:   "Trades small price differences, entering and leaving within seconds.",
		Category:      models.CategoryScalping,
	},
	{
		ID: "sniper", Name: "Theeb", HumanName: "Theeb",
		Bio:           "A patient wolf waiting for the perfect shot. One shot, one target.",
		Risk:          RiskLow,
		StrategyTitle: "Precision sniping",
		Explanation:   "Waits for clean patterns at key support and resistance levels confirmed by RSI extremes.",
		Category:      models.CategoryRSI,
	},
	{
		ID: "mastermind", Name: "Thamer", HumanName: "Thamer",
		Bio:           "Productive through careful planning. A tight plan is the base of success.",
		Risk:          RiskMedium,
		StrategyTitle: "Strategic planning",
		Explanation:   "Builds on momentum crossovers of the MACD lines and their histogram.",
		Category:      models.CategoryMACD,
	},
	{
		ID: "brave", Name: "Jasour", HumanName: "Jasour",
		Bio:           "Bold with calculated risk. No risk, no reward.",
		Risk:          RiskVeryHigh,
		StrategyTitle: "Calculated risk",
		Explanation:   "Goes after volatile names and high-payoff setups on instinct.",
		Category:      models.CategoryRandom,
	},
	{
		ID: "guardian", Name: "Razeen", HumanName: "Razeen",
		Bio:           "Calm and balanced. Capital preservation comes first.",
		Risk:          RiskLow,
		StrategyTitle: "Wise protection",
		Explanation:   "Buys lower Bollinger Band touches during squeezes with a tight stop loss.",
		Category:      models.CategoryVolatilityBand,
	},
	{
		ID: "wave", Name: "Samel", HumanName: "Samel",
		Bio:           "Steady and patient. Going with the current wins.",
		Risk:          RiskMedium,
		StrategyTitle: "Riding the wave",
		Explanation:   "Follows established trends, entering after confirmation and leaving on reversal.",
		Category:      models.CategoryTrend,
	},
	{
		ID: "striker", Name: "Hazem", HumanName: "Hazem",
		Bio:           "Firm in every decision. Discipline is strength.",
		Risk:          RiskMedium,
		StrategyTitle: "Discipline",
		Explanation:   "Strict entry and exit rules driven by volume spikes and order-book pressure.",
		Category:      models.CategoryVolume,
	},
	{
		ID: "jewel", Name: "Jawhara", HumanName: "Jawhara",
		Bio:           "Rare and selective. Quality over quantity.",
		Risk:          RiskLow,
		StrategyTitle: "Picking gems",
		Explanation:   "Fades crowd euphoria at the 61.8% Fibonacci retracement with strict entry criteria.",
		Category:      models.CategoryContrarian,
	},
}

// IDs returns the roster ids in order.
func IDs() []string {
	out := make([]string, len(Roster))
	for i, b := range Roster {
		out[i] = b.ID
	}
	return out
}

// ByID looks a bot up in the roster.
func ByID(id string) (models.Bot, bool) {
	for _, b := range Roster {
		if b.ID == id {
			return b, true
		}
	}
	return models.Bot{}, false
}
