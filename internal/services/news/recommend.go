package news

import (
	"strings"

	"github.com/shopspring/decimal"

	"ChallengeArena/internal/domain/models"
)

const defaultConfidence = 0.5

// Recommend derives a buy/sell label from already scored news items.
// It is a pure function of its input.
func Recommend(items []models.NewsItem) models.Recommendation {
	if len(items) == 0 {
		return models.Recommendation{Label: models.RecommendInsufficient}
	}

	var r models.Recommendation
	sum := 0.0
	for _, it := range items {
		switch it.Sentiment {
		case models.SentimentPositive:
			r.PositiveCount++
		case models.SentimentNegative:
			r.NegativeCount++
		case models.SentimentNeutral:
			r.NeutralCount++
		}
		c := it.Confidence
		if c == 0 {
			c = defaultConfidence
		}
		sum += c
	}
	r.TotalCount = len(items)

	total := float64(r.TotalCount)
	pos := float64(r.PositiveCount) / total
	neg := float64(r.NegativeCount) / total

	switch {
	case pos >= 0.7 && r.PositiveCount >= 3:
		r.Label = models.RecommendStrongBuy
	case pos >= 0.5 && r.PositiveCount >= 2:
		r.Label = models.RecommendBuy
	case neg >= 0.7 && r.NegativeCount >= 3:
		r.Label = models.RecommendStrongSell
	case neg >= 0.5 && r.NegativeCount >= 2:
		r.Label = models.RecommendSell
	default:
		r.Label = models.RecommendNeutral
	}

	r.Confidence = decimal.NewFromFloat(sum / total * 100).Round(1).InexactFloat64()
	return r
}

var (
	positiveWords = []string{
		"rise", "growth", "profit", "gain", "positive", "improve", "surge", "strong", "record", "beat",
		"ارتفاع", "نمو", "ربح", "أرباح", "مكاسب", "إيجابي", "تحسن", "صعود", "قوي", "نجاح", "قياسي",
	}
	negativeWords = []string{
		"fall", "drop", "loss", "decline", "negative", "weak", "collapse", "crisis", "risk", "warning",
		"انخفاض", "هبوط", "خسارة", "خسائر", "تراجع", "سلبي", "ضعف", "انهيار", "ركود", "أزمة", "تحذير",
	}
)

// Analyze is the keyword fallback scorer for a single headline or article.
func Analyze(text string) (models.Sentiment, float64) {
	if len(strings.TrimSpace(text)) < 5 {
		return models.SentimentNeutral, defaultConfidence
	}
	lower := strings.ToLower(text)
	p, n := count(lower, positiveWords), count(lower, negativeWords)
	switch {
	case p > n:
		return models.SentimentPositive, min(0.6+float64(p)*0.1, 0.95)
	case n > p:
		return models.SentimentNegative, min(0.6+float64(n)*0.1, 0.95)
	default:
		return models.SentimentNeutral, defaultConfidence
	}
}

// AnalyzeBatch scores items whose sentiment is not set yet.
func AnalyzeBatch(items []models.NewsItem) []models.NewsItem {
	out := make([]models.NewsItem, len(items))
	for i, it := range items {
		if it.Sentiment == "" {
			it.Sentiment, it.Confidence = Analyze(it.Title + " " + it.Text)
		}
		out[i] = it
	}
	return out
}

func count(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}
