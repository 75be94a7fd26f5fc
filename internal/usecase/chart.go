package usecase

import (
	"context"
	"fmt"
	"strings"

	"ChallengeArena/internal/domain/models"
	drepo "ChallengeArena/internal/domain/repository"
)

// ChartUseCase serves price history for the chart endpoint.
type ChartUseCase struct {
	feed drepo.MarketFeed
}

func NewChartUseCase(feed drepo.MarketFeed) *ChartUseCase {
	return &ChartUseCase{feed: feed}
}

type ChartResult struct {
	Symbol string         `json:"symbol"`
	Period string         `json:"period"`
	Count  int            `json:"count"`
	Bars   []models.OHLCV `json:"data"`
}

func (uc *ChartUseCase) History(ctx context.Context, symbol, period string) (*ChartResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if period == "" {
		period = "1mo"
	}

	bars, err := uc.feed.History(ctx, symbol, period)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return &ChartResult{Symbol: symbol, Period: period, Count: len(bars), Bars: bars}, nil
}
