package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	batches [][]AggregatedLogEntry
	topics  []string
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := payload.([]AggregatedLogEntry)
	if !ok {
		return errors.New("unexpected payload")
	}
	p.batches = append(p.batches, b)
	p.topics = append(p.topics, topic)
	return nil
}

func (p *capturePublisher) all() []AggregatedLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []AggregatedLogEntry
	for _, b := range p.batches {
		out = append(out, b...)
	}
	return out
}

func TestLogCollectorFoldsDuplicates(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		Service:        "arena",
		TimeInterval:   time.Hour,
		CountThreshold: 10,
		Topic:          "arena.logs",
		Publisher:      pub,
	})

	fields := map[string]interface{}{"symbol": "2222"}
	c.AddLog("error", "fetch failed", fields, "price_store.go:10")
	c.AddLog("error", "fetch failed", fields, "price_store.go:10")
	c.AddLog("error", "other", nil, "x.go:1")
	assert.Equal(t, 2, c.Pending())

	c.Close()

	entries := pub.all()
	require.Len(t, entries, 2)
	counts := map[string]int{}
	for _, e := range entries {
		counts[e.Message] = e.Count
		assert.Equal(t, "arena", e.Service)
	}
	assert.Equal(t, 2, counts["fetch failed"])
	assert.Equal(t, 1, counts["other"])
	assert.Equal(t, []string{"arena.logs"}, pub.topics)
}

func TestLogCollectorFlushesOnThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 2,
		Topic:          "arena.logs",
		Publisher:      pub,
	})
	defer c.Close()

	c.AddLog("error", "a", nil, "")
	c.AddLog("error", "b", nil, "")
	assert.Equal(t, 0, c.Pending())

	assert.Eventually(t, func() bool { return len(pub.all()) == 2 }, time.Second, 10*time.Millisecond)
}

func TestLoggerErrorFeedsCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "t", Publisher: pub})

	l.Error("boom", String("bot", "hunter"))
	l.Warn("not collected")
	l.RemoveCollector()

	entries := pub.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].Message)
	assert.Equal(t, "hunter", entries[0].Fields["bot"])
}

func TestChildLoggerSeesLateCollector(t *testing.T) {
	pub := &capturePublisher{}
	parent := NewNop()
	child := parent.With(String("component", "price_store"))

	parent.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "t", Publisher: pub})
	child.Error("fetch failed", Error(errors.New("timeout")))
	parent.RemoveCollector()

	entries := pub.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "timeout", entries[0].Fields["error"])
	assert.Contains(t, entries[0].Caller, "collector_test.go")

	child.Error("after removal")
	assert.Len(t, pub.all(), 1)
}
