package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "ChallengeArena/pkg/http"
	"ChallengeArena/pkg/logger"
	"ChallengeArena/pkg/metrics"
)

func TestOneSignalPayload(t *testing.T) {
	var (
		auth string
		got  map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		_, _ = w.Write([]byte(`{"id":"x"}`))
	}))
	defer srv.Close()

	o := NewOneSignal(apphttp.NewClient(apphttp.WithHTTPClient(srv.Client())), logger.NewNop(), srv.URL, "app-1", "key-1", 0, time.Millisecond)
	require.NoError(t, o.NotifyWinningTrade(context.Background(), "Raed", "2222", 512.5))

	assert.Equal(t, "Basic key-1", auth)
	assert.Equal(t, "app-1", got["app_id"])
	assert.Equal(t, []any{"All"}, got["included_segments"])
	assert.Equal(t, "Raed made 512.50 SAR on 2222", got["contents"].(map[string]any)["en"])
	data := got["data"].(map[string]any)
	assert.Equal(t, "winning_trade", data["type"])
	assert.Equal(t, "2222", data["symbol"])
}

func TestTelegramRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram(apphttp.NewClient(apphttp.WithHTTPClient(srv.Client())), logger.NewNop(), srv.URL, "TOKEN", "42", 3, time.Millisecond)
	require.NoError(t, tg.NotifyChallengeWinner(context.Background(), "Hazem", 3.2))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "/botTOKEN/sendMessage", path)
}

func TestRetryGivesUp(t *testing.T) {
	n := 0
	err := sendWithRetry(context.Background(), logger.NewNop(), "test", 2, time.Millisecond, func(context.Context) error {
		n++
		return errors.New("nope")
	})
	require.Error(t, err)
	assert.Equal(t, 3, n)

	n = 0
	err = sendWithRetry(context.Background(), logger.NewNop(), "test", 5, time.Millisecond, func(context.Context) error {
		n++
		return &apphttp.StatusError{StatusCode: http.StatusUnauthorized}
	})
	require.Error(t, err)
	assert.Equal(t, 1, n, "4xx is not retried")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = sendWithRetry(ctx, logger.NewNop(), "test", 5, time.Hour, func(context.Context) error { return errors.New("nope") })
	assert.ErrorIs(t, err, context.Canceled)
}

type recorder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *recorder) NotifyWinningTrade(_ context.Context, bot, symbol string, _ float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, bot+"/"+symbol)
	return r.err
}

func (r *recorder) NotifyChallengeWinner(_ context.Context, bot string, _ float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "winner/"+bot)
	return r.err
}

func TestAsyncSwallowsErrors(t *testing.T) {
	rec := &recorder{err: errors.New("down")}
	a := NewAsync(rec, logger.NewNop(), metrics.Noop{}, time.Second)

	assert.NoError(t, a.NotifyWinningTrade(context.Background(), "Raed", "1120", 10))
	assert.NoError(t, a.NotifyChallengeWinner(context.Background(), "Raed", 1))
	require.NoError(t, a.Wait(context.Background()))
	assert.ElementsMatch(t, []string{"Raed/1120", "winner/Raed"}, rec.calls)
}

type memQueue struct {
	types    []string
	payloads []json.RawMessage
}

func (m *memQueue) Publish(_ context.Context, msgType string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	m.types = append(m.types, msgType)
	m.payloads = append(m.payloads, b)
	return nil
}

func TestQueuedRoundTripThroughJobs(t *testing.T) {
	q := &memQueue{}
	n := NewQueued(q)
	require.NoError(t, n.NotifyWinningTrade(context.Background(), "Bayan", "7010", 99.5))
	require.NoError(t, n.NotifyChallengeWinner(context.Background(), "Bayan", 2.5))
	require.Equal(t, []string{TypeWinningTrade, TypeChallengeWinner}, q.types)

	rec := &recorder{}
	wt := NewWinningTradeJob(rec, metrics.Noop{})
	cw := NewChallengeWinnerJob(rec, metrics.Noop{})
	require.NoError(t, wt.Handle(context.Background(), q.payloads[0]))
	require.NoError(t, cw.Handle(context.Background(), q.payloads[1]))
	assert.Equal(t, []string{"Bayan/7010", "winner/Bayan"}, rec.calls)

	assert.Error(t, wt.Handle(context.Background(), json.RawMessage(`{bad`)))
}
