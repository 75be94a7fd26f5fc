package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsRenderTyped(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf).With(String("bot", "sniper"))

	l.Info("verdict",
		Int("signal_id", 7),
		Uint64("seq", 9),
		Float64("price", 27.5),
		Bool("approved", true),
		Strings("tickers", []string{"2222", "1120"}),
		Duration("took", 1500*time.Millisecond))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "sniper", got["bot"])
	assert.Equal(t, "verdict", got["message"])
	assert.EqualValues(t, 7, got["signal_id"])
	assert.EqualValues(t, 9, got["seq"])
	assert.Equal(t, 27.5, got["price"])
	assert.Equal(t, true, got["approved"])
	assert.Equal(t, []any{"2222", "1120"}, got["tickers"])
	assert.EqualValues(t, 1500, got["took"])
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}
