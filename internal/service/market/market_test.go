package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChallengeArena/internal/domain/models"
	"ChallengeArena/pkg/cache"
	apphttp "ChallengeArena/pkg/http"
	"ChallengeArena/pkg/logger"
	"ChallengeArena/pkg/util"
)

const chartBody = `{"chart":{"result":[{"meta":{"regularMarketPrice":27.95},
"timestamp":[1728540000,1728626400,1728712800],
"indicators":{"quote":[{"open":[27.1,27.5,null],"high":[27.6,28.0,null],"low":[27.0,27.4,null],
"close":[27.5,27.9,null],"volume":[1000,2000,null]}]}}],"error":null}}`

func newYahoo(t *testing.T, h http.HandlerFunc) *YahooFeed {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewYahooFeed(apphttp.NewClient(apphttp.WithHTTPClient(srv.Client())), ".SR", WithBaseURL(srv.URL))
}

func TestYahooCurrentPrice(t *testing.T) {
	var path, rng string
	f := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		rng = r.URL.Query().Get("range")
		_, _ = w.Write([]byte(chartBody))
	})

	p, err := f.CurrentPrice(context.Background(), "2222")
	require.NoError(t, err)
	assert.Equal(t, 27.9, p, "last non-null close")
	assert.Equal(t, "/v8/finance/chart/2222.SR", path)
	assert.Equal(t, "1d", rng)
}

func TestYahooHistorySkipsNullBars(t *testing.T) {
	f := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartBody))
	})
	bars, err := f.History(context.Background(), "2222", "1mo")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
	assert.Equal(t, 27.5, bars[0].Close)
}

func TestYahooErrors(t *testing.T) {
	f := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	})
	_, err := f.CurrentPrice(context.Background(), "0000")
	require.Error(t, err)
	var se *apphttp.StatusError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

type countingFeed struct {
	calls atomic.Int32
	price float64
	err   error
}

func (c *countingFeed) CurrentPrice(context.Context, string) (float64, error) {
	c.calls.Add(1)
	return c.price, c.err
}

func (c *countingFeed) History(context.Context, string, string) ([]models.OHLCV, error) {
	c.calls.Add(1)
	return []models.OHLCV{{Close: c.price}}, c.err
}

func (c *countingFeed) Name() string { return "counting" }

func TestCachedFeedServesWithinTTL(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	inner := &countingFeed{price: 80.4}
	f := NewCachedFeed(inner, mc, time.Minute, logger.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := f.CurrentPrice(ctx, "1120")
		require.NoError(t, err)
		assert.Equal(t, 80.4, p)
	}
	assert.Equal(t, int32(1), inner.calls.Load())

	_, err := f.History(ctx, "1120", "1mo")
	require.NoError(t, err)
	_, err = f.History(ctx, "1120", "1mo")
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
	assert.Equal(t, "counting+cache", f.Name())
}

func TestCachedFeedDoesNotCacheErrors(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	inner := &countingFeed{err: errors.New("down")}
	f := NewCachedFeed(inner, mc, time.Minute, logger.NewNop())

	_, err := f.CurrentPrice(context.Background(), "1120")
	require.Error(t, err)
	_, err = f.CurrentPrice(context.Background(), "1120")
	require.Error(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestSimulatedFeedRandomWalk(t *testing.T) {
	f := NewSimulatedFeed(util.NewRand(5))
	ctx := context.Background()

	prev, err := f.CurrentPrice(ctx, "2010")
	require.NoError(t, err)
	assert.True(t, prev >= 20 && prev <= 150)
	for i := 0; i < 50; i++ {
		p, err := f.CurrentPrice(ctx, "2010")
		require.NoError(t, err)
		assert.InDelta(t, prev, p, prev*0.0101+0.01)
		prev = p
	}

	bars, err := f.History(ctx, "2010", "5d")
	require.NoError(t, err)
	require.Len(t, bars, 5)
	for _, b := range bars {
		assert.GreaterOrEqual(t, b.High, b.Low)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = f.CurrentPrice(cctx, "2010")
	assert.Error(t, err)
}

func TestTadawulHours(t *testing.T) {
	h := TadawulHours()
	at := func(day, hour, min int) time.Time {
		// October 2024: the 6th is a Sunday
		return time.Date(2024, 10, day, hour, min, 0, 0, h.Location)
	}
	cases := []struct {
		name string
		t    time.Time
		want models.MarketStatus
	}{
		{"sunday open", at(6, 10, 0), models.MarketOpen},
		{"thursday before close", at(10, 15, 19), models.MarketOpen},
		{"thursday at close", at(10, 15, 20), models.MarketClosed},
		{"monday early", at(7, 9, 59), models.MarketClosed},
		{"friday", at(11, 12, 0), models.MarketClosed},
		{"saturday", at(12, 12, 0), models.MarketClosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, h.Status(tc.t))
		})
	}
}
