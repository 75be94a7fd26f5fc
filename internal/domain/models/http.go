package models

// Requests for the arena HTTP endpoints.

type LogsRequest struct {
	Limit int `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=50"`
}

type BotRequest struct {
	ID string `param:"id" json:"-" validate:"required"`
}

type ArchiveRequest struct {
	ID    string `param:"id" json:"-" validate:"required"`
	Limit int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
	Since string `query:"since" json:"since"`
}

type TradeRequest struct {
	ID uint64 `param:"id" json:"-" validate:"required,gte=1"`
}

type ChartRequest struct {
	Symbol string `param:"symbol" json:"-" validate:"required"`
	Period string `query:"period" json:"period" default:"1mo" validate:"oneof=1d 5d 1mo 3mo 6mo 1y"`
}

type DisqualifyRequest struct {
	ID     string `param:"id" json:"-" validate:"required"`
	Reason string `json:"reason" validate:"required,max=200"`
}

type RecommendationRequest struct {
	Items []NewsItem `json:"items" validate:"required,dive"`
}
