package models

// EvidenceKind tags which payload of Evidence is populated.
type EvidenceKind string

const (
	EvidenceTechnical EvidenceKind = "technical"
	EvidenceVolume    EvidenceKind = "volume"
	EvidenceSentiment EvidenceKind = "sentiment"
)

// IndicatorRSI is the indicator name the investigator audits against the side's band.
const IndicatorRSI = "RSI (14)"

// Evidence is a tagged variant; exactly one payload matching Kind is non-nil.
type Evidence struct {
	Kind       EvidenceKind       `json:"type"`
	Technical  *TechnicalEvidence `json:"technical,omitempty"`
	Volume     *VolumeEvidence    `json:"volume,omitempty"`
	Sentiment  *SentimentEvidence `json:"sentiment,omitempty"`
	ReportText string             `json:"report_text"`
}

type Indicator struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Label string  `json:"label,omitempty"`
}

type TechnicalEvidence struct {
	Indicators []Indicator `json:"indicators"`
	Series     []float64   `json:"chart_data"`
	Note       string      `json:"technical_note"`
}

// Indicator returns the named indicator if present.
func (t *TechnicalEvidence) Indicator(name string) (Indicator, bool) {
	if t == nil {
		return Indicator{}, false
	}
	for _, ind := range t.Indicators {
		if ind.Name == name {
			return ind, true
		}
	}
	return Indicator{}, false
}

type OrderBook struct {
	Bids []int `json:"bids"`
	Asks []int `json:"asks"`
}

type VolumeEvidence struct {
	SurgePct  int       `json:"volume_surge_pct"`
	NetFlow   string    `json:"flow_net"`
	OrderBook OrderBook `json:"order_book"`
	VWAP      float64   `json:"vwap"`
}

type SentimentEvidence struct {
	SocialVolume int      `json:"social_volume"`
	Score        float64  `json:"sentiment_score"`
	Headlines    []string `json:"news_headlines"`
}
