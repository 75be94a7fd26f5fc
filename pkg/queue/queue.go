package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Publisher is the producing half of a queue.
type Publisher interface {
	Publish(ctx context.Context, jobType string, payload any) error
}

// Message is the envelope stored in Redis. Payload is the JSON-encoded job input.
type Message struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
	Enqueued time.Time       `json:"enqueued_at"`
}

// Decode unmarshals a job payload into T.
func Decode[T any](payload json.RawMessage) (*T, error) {
	var v T
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &v, nil
}
