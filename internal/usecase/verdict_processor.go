package usecase

import (
	"context"
	"fmt"
	"time"

	"ChallengeArena/internal/domain/models"
	drepo "ChallengeArena/internal/domain/repository"
)

const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
	BackendSQLite     = "sqlite"
	BackendNone       = "none"
)

// VerdictProcessor routes verdict events to the configured archive backend.
type VerdictProcessor struct {
	pub     drepo.Publisher
	archive drepo.Archive
	metrics drepo.Metrics
	backend string
}

// NewVerdictProcessor creates a processor. pub is required for the kafka
// backend, archive for clickhouse and sqlite; either may be nil otherwise.
func NewVerdictProcessor(pub drepo.Publisher, archive drepo.Archive, metrics drepo.Metrics, backend string) (*VerdictProcessor, error) {
	switch backend {
	case BackendKafka:
		if pub == nil {
			return nil, fmt.Errorf("backend %s needs a publisher", backend)
		}
	case BackendClickHouse, BackendSQLite:
		if archive == nil {
			return nil, fmt.Errorf("backend %s needs an archive", backend)
		}
	case BackendNone:
	default:
		return nil, fmt.Errorf("unknown backend: %s", backend)
	}
	return &VerdictProcessor{pub: pub, archive: archive, metrics: metrics, backend: backend}, nil
}

func (p *VerdictProcessor) Backend() string { return p.backend }

// ProcessBatch forwards events in one call to the backend.
func (p *VerdictProcessor) ProcessBatch(ctx context.Context, evs []*models.VerdictEvent) error {
	if len(evs) == 0 || p.backend == BackendNone {
		return nil
	}

	start := time.Now()
	var err error
	switch p.backend {
	case BackendKafka:
		err = p.pub.PublishBatch(ctx, evs)
	default:
		err = p.archive.StoreBatch(ctx, evs)
	}
	if err != nil {
		p.metrics.RecordError("process_verdict")
		return fmt.Errorf("process verdicts: %w", err)
	}

	p.metrics.RecordArchived(p.backend, len(evs))
	p.metrics.RecordLatency("process_verdict", time.Since(start).Seconds())
	return nil
}
