package notify

import (
	"context"
	"fmt"
	"time"

	drepo "ChallengeArena/internal/domain/repository"
	apphttp "ChallengeArena/pkg/http"
	"ChallengeArena/pkg/logger"
)

const OneSignalURL = "https://onesignal.com/api/v1/notifications"

// OneSignal pushes notifications to every subscribed device.
type OneSignal struct {
	client  *apphttp.Client
	lgr     *logger.Logger
	url     string
	appID   string
	apiKey  string
	retries int
	backoff time.Duration
}

func NewOneSignal(client *apphttp.Client, lgr *logger.Logger, url, appID, apiKey string, retries int, backoff time.Duration) *OneSignal {
	if url == "" {
		url = OneSignalURL
	}
	return &OneSignal{client: client, lgr: lgr, url: url, appID: appID, apiKey: apiKey, retries: retries, backoff: backoff}
}

type oneSignalPayload struct {
	AppID            string            `json:"app_id"`
	Headings         map[string]string `json:"headings"`
	Contents         map[string]string `json:"contents"`
	IncludedSegments []string          `json:"included_segments"`
	Data             map[string]any    `json:"data,omitempty"`
}

func (o *OneSignal) send(ctx context.Context, title, message string, data map[string]any) error {
	body := oneSignalPayload{
		AppID:            o.appID,
		Headings:         map[string]string{"en": title},
		Contents:         map[string]string{"en": message},
		IncludedSegments: []string{"All"},
		Data:             data,
	}
	return sendWithRetry(ctx, o.lgr, "onesignal", o.retries, o.backoff, func(ctx context.Context) error {
		return o.client.SendAndParse(ctx, &apphttp.RequestOptions{
			Method: apphttp.MethodPost,
			URL:    o.url,
			Headers: map[string]string{
				"Content-Type":  "application/json; charset=utf-8",
				"Authorization": "Basic " + o.apiKey,
			},
			Body: body,
		}, nil)
	})
}

func (o *OneSignal) NotifyWinningTrade(ctx context.Context, botName, symbol string, profit float64) error {
	return o.send(ctx, "Winning trade!",
		fmt.Sprintf("%s made %.2f SAR on %s", botName, profit, symbol),
		map[string]any{"type": "winning_trade", "robot": botName, "symbol": symbol, "profit": profit})
}

func (o *OneSignal) NotifyChallengeWinner(ctx context.Context, botName string, profitPct float64) error {
	return o.send(ctx, "Challenge winner!",
		fmt.Sprintf("%s leads with %.1f%% profit", botName, profitPct),
		map[string]any{"type": "challenge_winner", "robot": botName, "profit_pct": profitPct})
}

var _ drepo.Notifier = (*OneSignal)(nil)
