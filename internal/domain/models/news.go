package models

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// NewsItem is a scored headline handed to the recommender.
type NewsItem struct {
	Title      string    `json:"title" validate:"required"`
	Text       string    `json:"text"`
	Stock      string    `json:"stock"`
	Sentiment  Sentiment `json:"sentiment" validate:"omitempty,oneof=positive negative neutral"`
	Confidence float64   `json:"confidence" validate:"gte=0,lte=1"`
}

type RecommendationLabel string

const (
	RecommendStrongBuy    RecommendationLabel = "STRONG_BUY"
	RecommendBuy          RecommendationLabel = "BUY"
	RecommendNeutral      RecommendationLabel = "NEUTRAL"
	RecommendSell         RecommendationLabel = "SELL"
	RecommendStrongSell   RecommendationLabel = "STRONG_SELL"
	RecommendInsufficient RecommendationLabel = "INSUFFICIENT_DATA"
)

type Recommendation struct {
	Label         RecommendationLabel `json:"recommendation"`
	Confidence    float64             `json:"confidence"`
	PositiveCount int                 `json:"positive_count"`
	NegativeCount int                 `json:"negative_count"`
	NeutralCount  int                 `json:"neutral_count"`
	TotalCount    int                 `json:"total_count"`
}
