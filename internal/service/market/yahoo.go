package market

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"ChallengeArena/internal/domain/models"
	drepo "ChallengeArena/internal/domain/repository"
	apphttp "ChallengeArena/pkg/http"
)

const DefaultYahooURL = "https://query1.finance.yahoo.com"

// YahooFeed reads quotes from the Yahoo Finance chart API.
type YahooFeed struct {
	client  *apphttp.Client
	baseURL string
	suffix  string
	limiter *rate.Limiter
}

type YahooOption func(*YahooFeed)

func WithBaseURL(u string) YahooOption { return func(f *YahooFeed) { f.baseURL = u } }

// WithRateLimit caps outbound requests per second; burst defaults to one per ticker.
func WithRateLimit(rps float64, burst int) YahooOption {
	return func(f *YahooFeed) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

// NewYahooFeed creates a feed; suffix is appended to every symbol (".SR" for Tadawul).
func NewYahooFeed(client *apphttp.Client, suffix string, opts ...YahooOption) *YahooFeed {
	f := &YahooFeed{
		client:  client,
		baseURL: DefaultYahooURL,
		suffix:  suffix,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *YahooFeed) Name() string { return "yahoo" }

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func val(s []*float64, i int) float64 {
	if i >= len(s) || s[i] == nil {
		return 0
	}
	return *s[i]
}

func (f *YahooFeed) chart(ctx context.Context, symbol, interval, rng string) (*yahooChart, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("yahoo rate limit: %w", err)
	}
	var c yahooChart
	err := f.client.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", f.baseURL, url.PathEscape(symbol+f.suffix)),
		QueryParams: map[string][]string{
			"interval": {interval},
			"range":    {rng},
		},
		Headers: map[string]string{"User-Agent": "Mozilla/5.0"},
	}, &c)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	if c.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", c.Chart.Error.Description)
	}
	if len(c.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: no data returned", symbol)
	}
	return &c, nil
}

// CurrentPrice returns the last non-null close of today's bars, or the meta price.
func (f *YahooFeed) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	c, err := f.chart(ctx, symbol, "1d", "1d")
	if err != nil {
		return 0, err
	}
	res := c.Chart.Result[0]
	if len(res.Indicators.Quote) > 0 {
		closes := res.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if p := val(closes, i); p > 0 {
				return p, nil
			}
		}
	}
	if p := res.Meta.RegularMarketPrice; p > 0 {
		return p, nil
	}
	return 0, fmt.Errorf("yahoo %s: no price data", symbol)
}

// History returns daily bars for period ("1mo", "3mo", ...), oldest first.
func (f *YahooFeed) History(ctx context.Context, symbol, period string) ([]models.OHLCV, error) {
	interval := "1d"
	if period == "1d" || period == "5d" {
		interval = "15m"
	}
	c, err := f.chart(ctx, symbol, interval, period)
	if err != nil {
		return nil, err
	}
	res := c.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: no quotes", symbol)
	}
	q := res.Indicators.Quote[0]
	bars := make([]models.OHLCV, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		b := models.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   val(q.Open, i),
			High:   val(q.High, i),
			Low:    val(q.Low, i),
			Close:  val(q.Close, i),
			Volume: val(q.Volume, i),
		}
		if b.Close == 0 {
			continue // null bar (holiday, halted)
		}
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

var _ drepo.MarketFeed = (*YahooFeed)(nil)
