package models

// Category is the strategy family a bot belongs to.
type Category string

const (
	CategoryTrend          Category = "trend"
	CategoryRSI            Category = "rsi"
	CategoryMACD           Category = "macd"
	CategoryVolatilityBand Category = "volatility_band"
	CategoryVolume         Category = "volume"
	CategorySentiment      Category = "sentiment"
	CategoryScalping       Category = "scalping"
	CategoryContrarian     Category = "contrarian"
	CategoryRandom         Category = "random"
)

// Categories lists every strategy family in a stable order.
var Categories = []Category{
	CategoryTrend,
	CategoryRSI,
	CategoryMACD,
	CategoryVolatilityBand,
	CategoryVolume,
	CategorySentiment,
	CategoryScalping,
	CategoryContrarian,
	CategoryRandom,
}

// EvidenceKind returns the evidence variant produced by bots of this category.
func (c Category) EvidenceKind() EvidenceKind {
	switch c {
	case CategoryTrend, CategoryRSI, CategoryMACD, CategoryVolatilityBand:
		return EvidenceTechnical
	case CategoryVolume, CategoryScalping:
		return EvidenceVolume
	default:
		return EvidenceSentiment
	}
}

// Bot is immutable roster configuration.
type Bot struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	HumanName     string   `json:"human_name"`
	Bio           string   `json:"bio"`
	Risk          string   `json:"risk"`
	StrategyTitle string   `json:"strategy_title"`
	Explanation   string   `json:"scientific_explanation"`
	Category      Category `json:"category"`
}
