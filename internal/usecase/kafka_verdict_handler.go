package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ChallengeArena/internal/domain/models"
	drepo "ChallengeArena/internal/domain/repository"
	pkgkafka "ChallengeArena/pkg/kafka"
)

// KafkaVerdictHandler consumes verdict events and writes them to the archive.
type KafkaVerdictHandler struct {
	topic   string
	archive drepo.Archive
	metrics drepo.Metrics
}

func NewKafkaVerdictHandler(topic string, archive drepo.Archive, metrics drepo.Metrics) *KafkaVerdictHandler {
	return &KafkaVerdictHandler{topic: topic, archive: archive, metrics: metrics}
}

func (h *KafkaVerdictHandler) Topic() string { return h.topic }

func (h *KafkaVerdictHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.VerdictEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode verdict event: %w", err)
	}
	if ev.EventID == "" || ev.BotID == "" {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("verdict event missing ids")
	}
	if !ev.Timestamp.IsZero() {
		h.metrics.RecordLatency("archive_e2e", time.Since(ev.Timestamp).Seconds())
	}

	start := time.Now()
	err := h.archive.Store(ctx, &ev)
	h.metrics.RecordLatency("archive_insert", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordArchived(BackendClickHouse, 1)
	return nil
}

var _ pkgkafka.Handler = (*KafkaVerdictHandler)(nil)
