package notify

import (
	"context"
	"fmt"
	"html"
	"time"

	drepo "ChallengeArena/internal/domain/repository"
	apphttp "ChallengeArena/pkg/http"
	"ChallengeArena/pkg/logger"
)

const TelegramURL = "https://api.telegram.org"

// Telegram posts notifications to one chat through the Bot API.
type Telegram struct {
	client  *apphttp.Client
	lgr     *logger.Logger
	baseURL string
	token   string
	chatID  string
	retries int
	backoff time.Duration
}

func NewTelegram(client *apphttp.Client, lgr *logger.Logger, baseURL, token, chatID string, retries int, backoff time.Duration) *Telegram {
	if baseURL == "" {
		baseURL = TelegramURL
	}
	return &Telegram{client: client, lgr: lgr, baseURL: baseURL, token: token, chatID: chatID, retries: retries, backoff: backoff}
}

func (t *Telegram) send(ctx context.Context, text string) error {
	return sendWithRetry(ctx, t.lgr, "telegram", t.retries, t.backoff, func(ctx context.Context) error {
		return t.client.SendAndParse(ctx, &apphttp.RequestOptions{
			Method: apphttp.MethodPost,
			URL:    fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token),
			Body: map[string]string{
				"chat_id":    t.chatID,
				"text":       text,
				"parse_mode": "HTML",
			},
		}, nil)
	})
}

func (t *Telegram) NotifyWinningTrade(ctx context.Context, botName, symbol string, profit float64) error {
	return t.send(ctx, fmt.Sprintf("<b>Winning trade</b>\n%s made <b>%.2f SAR</b> on %s",
		html.EscapeString(botName), profit, html.EscapeString(symbol)))
}

func (t *Telegram) NotifyChallengeWinner(ctx context.Context, botName string, profitPct float64) error {
	return t.send(ctx, fmt.Sprintf("<b>Challenge winner</b>\n%s leads with %.1f%%", html.EscapeString(botName), profitPct))
}

var _ drepo.Notifier = (*Telegram)(nil)
