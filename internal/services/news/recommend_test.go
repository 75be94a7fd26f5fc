package news

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ChallengeArena/internal/domain/models"
)

func items(pos, neg, neu int, conf float64) []models.NewsItem {
	var out []models.NewsItem
	add := func(n int, s models.Sentiment) {
		for i := 0; i < n; i++ {
			out = append(out, models.NewsItem{Title: "x", Sentiment: s, Confidence: conf})
		}
	}
	add(pos, models.SentimentPositive)
	add(neg, models.SentimentNegative)
	add(neu, models.SentimentNeutral)
	return out
}

func TestRecommend(t *testing.T) {
	cases := []struct {
		name          string
		pos, neg, neu int
		want          models.RecommendationLabel
	}{
		{"strong buy", 3, 0, 1, models.RecommendStrongBuy},
		{"two positives is buy", 2, 0, 0, models.RecommendBuy},
		{"buy at half", 2, 1, 1, models.RecommendBuy},
		{"strong sell", 0, 4, 1, models.RecommendStrongSell},
		{"sell", 1, 2, 0, models.RecommendSell},
		{"single positive is neutral", 1, 0, 0, models.RecommendNeutral},
		{"mixed", 1, 1, 2, models.RecommendNeutral},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Recommend(items(tc.pos, tc.neg, tc.neu, 0.8))
			assert.Equal(t, tc.want, r.Label)
			assert.Equal(t, tc.pos+tc.neg+tc.neu, r.TotalCount)
			assert.Equal(t, tc.pos, r.PositiveCount)
			assert.Equal(t, tc.neg, r.NegativeCount)
			assert.Equal(t, tc.neu, r.NeutralCount)
			assert.Equal(t, 80.0, r.Confidence)
		})
	}
}

func TestRecommendEmpty(t *testing.T) {
	r := Recommend(nil)
	assert.Equal(t, models.RecommendInsufficient, r.Label)
	assert.Zero(t, r.Confidence)
}

func TestRecommendConfidenceRounding(t *testing.T) {
	in := []models.NewsItem{
		{Sentiment: models.SentimentPositive, Confidence: 0.91},
		{Sentiment: models.SentimentPositive, Confidence: 0.72},
		{Sentiment: models.SentimentPositive, Confidence: 0.6},
	}
	assert.Equal(t, 74.3, Recommend(in).Confidence)
}

func TestAnalyze(t *testing.T) {
	s, c := Analyze("Aramco posts record profit growth")
	assert.Equal(t, models.SentimentPositive, s)
	assert.InDelta(t, 0.9, c, 1e-9)

	s, _ = Analyze("Banks warn of a decline amid crisis")
	assert.Equal(t, models.SentimentNegative, s)

	s, c = Analyze("hi")
	assert.Equal(t, models.SentimentNeutral, s)
	assert.Equal(t, 0.5, c)

	s, _ = Analyze("ارتفاع أرباح الشركة")
	assert.Equal(t, models.SentimentPositive, s)
}

func TestAnalyzeBatchKeepsScoredItems(t *testing.T) {
	out := AnalyzeBatch([]models.NewsItem{
		{Title: "Strong growth ahead"},
		{Title: "Strong growth ahead", Sentiment: models.SentimentNegative, Confidence: 0.7},
	})
	assert.Equal(t, models.SentimentPositive, out[0].Sentiment)
	assert.Equal(t, models.SentimentNegative, out[1].Sentiment)
}
