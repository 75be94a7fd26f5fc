package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChallengeArena/pkg/logger"
)

type tradePayload struct {
	Bot    string  `json:"bot"`
	Profit float64 `json:"profit"`
}

type nopJob struct{ name string }

func (j nopJob) Name() string                                { return j.name }
func (nopJob) Type() string                                  { return "winning_trade" }
func (nopJob) Handle(context.Context, json.RawMessage) error { return nil }

func TestDecode(t *testing.T) {
	p, err := Decode[tradePayload](json.RawMessage(`{"bot":"jewel","profit":12.5}`))
	require.NoError(t, err)
	assert.Equal(t, "jewel", p.Bot)
	assert.Equal(t, 12.5, p.Profit)

	_, err = Decode[tradePayload](nil)
	assert.Error(t, err)
	_, err = Decode[tradePayload](json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}

func TestPublishBeforeStart(t *testing.T) {
	// never dialled: Publish fails before touching the network
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	q := NewRedisQueue(client, logger.NewNop(), WithKeyPrefix("test:queue"), WithWorkers(3))
	q.Register(nopJob{"first"}, nopJob{"second"})
	assert.Equal(t, "first", q.jobs["winning_trade"].Name())
	assert.Equal(t, 3, q.workers)
	assert.Equal(t, "test:queue:retry", q.retryKey())

	err := q.Publish(context.Background(), "winning_trade", tradePayload{Bot: "jewel"})
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.NoError(t, q.Stop(context.Background()))
}
