package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChallengeArena/internal/domain/models"
	"ChallengeArena/internal/usecase"
	"ChallengeArena/pkg/logger"
)

type countingSource struct{ n atomic.Int64 }

func (s *countingSource) Status() usecase.StatusPayload {
	v := float64(s.n.Add(1))
	return usecase.StatusPayload{
		Snapshot:     models.PriceSnapshot{"2222": v},
		MarketStatus: models.MarketOpen,
	}
}

func startHub(t *testing.T, opts ...Option) (*Hub, string) {
	t.Helper()
	h := NewHub(&countingSource{}, logger.NewNop(), opts...)
	e := echo.New()
	h.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return h, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/live"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readStatus(t *testing.T, conn *websocket.Conn) message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var m message
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestClientGetsSnapshotOnConnect(t *testing.T) {
	_, url := startHub(t)
	conn := dial(t, url)

	m := readStatus(t, conn)
	assert.Equal(t, "status", m.Type)
	assert.Equal(t, models.MarketOpen, m.Data.MarketStatus)
	assert.Equal(t, 1.0, m.Data.Snapshot["2222"])
}

func TestBroadcastReachesEveryClient(t *testing.T) {
	h, url := startHub(t)
	a, b := dial(t, url), dial(t, url)
	readStatus(t, a)
	readStatus(t, b)
	require.Eventually(t, func() bool { return h.Clients() == 2 }, time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, h.Broadcast())
	ma, mb := readStatus(t, a), readStatus(t, b)
	assert.Equal(t, ma.Data.Snapshot, mb.Data.Snapshot)
}

func TestRunTicksAndDisconnectsOnCancel(t *testing.T) {
	h, url := startHub(t, WithInterval(20*time.Millisecond))
	conn := dial(t, url)
	readStatus(t, conn)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	readStatus(t, conn)
	cancel()
	<-done

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), err.Error())
			break
		}
	}
	assert.Zero(t, h.Clients())
}

func TestClosedHubRejectsClients(t *testing.T) {
	h, url := startHub(t)
	h.Close()

	conn := dial(t, url)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, h.Broadcast())
}
