package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ChallengeArena/internal/domain/models"
	domrepo "ChallengeArena/internal/domain/repository"
	"ChallengeArena/pkg/logger"
)

// Proc is the downstream the pipeline forwards verdict events to.
type Proc interface {
	ProcessBatch(ctx context.Context, evs []*models.VerdictEvent) error
}

// VerdictPipeline sits between the orchestrator and the archive backend.
// Submit never blocks the caller; events are validated, buffered and
// forwarded in batches by a single background loop that retries with backoff.
type VerdictPipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	log     *logger.Logger

	bufSize    int
	batchSize  int
	maxRetries int
	backoffMin time.Duration
	backoffMax time.Duration

	bufCh   chan *models.VerdictEvent
	stopCh  chan struct{}
	doneCh  chan struct{}
	abort   context.CancelFunc
	mu      sync.Mutex
	started bool
}

type PipelineOption func(*VerdictPipeline)

// WithBufferSize sets how many events may wait for the downstream.
func WithBufferSize(n int) PipelineOption {
	return func(p *VerdictPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBatchSize caps how many buffered events go downstream in one call.
func WithBatchSize(n int) PipelineOption {
	return func(p *VerdictPipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithRetry sets the per-batch retry budget and backoff bounds.
func WithRetry(retries int, lo, hi time.Duration) PipelineOption {
	return func(p *VerdictPipeline) {
		if retries >= 0 {
			p.maxRetries = retries
		}
		if lo > 0 {
			p.backoffMin = lo
		}
		if hi >= p.backoffMin {
			p.backoffMax = hi
		}
	}
}

// NewVerdictPipeline creates a new pipeline.
func NewVerdictPipeline(proc Proc, metrics domrepo.Metrics, lgr *logger.Logger, opts ...PipelineOption) *VerdictPipeline {
	p := &VerdictPipeline{
		proc:       proc,
		metrics:    metrics,
		log:        lgr,
		bufSize:    1000,
		batchSize:  100,
		maxRetries: 5,
		backoffMin: 50 * time.Millisecond,
		backoffMax: 2 * time.Second,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.VerdictEvent, p.bufSize)
	return p
}

// Submit validates ev and queues it. It returns an error when ev is invalid
// or the buffer is full; the event is dropped in both cases.
func (p *VerdictPipeline) Submit(ev *models.VerdictEvent) error {
	if err := validateEvent(ev); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	select {
	case p.bufCh <- ev:
		return nil
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		return fmt.Errorf("pipeline buffer full, dropped event %s", ev.EventID)
	}
}

// Pending reports the number of buffered events.
func (p *VerdictPipeline) Pending() int { return len(p.bufCh) }

// Start launches the forwarding loop. Calling it twice is a no-op.
// Cancelling ctx does not end the loop; only Stop does, so events buffered
// at shutdown still reach the downstream.
func (p *VerdictPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	runCtx, abort := context.WithCancel(context.WithoutCancel(ctx))
	p.abort = abort
	go p.loop(runCtx)
}

// Stop ends the loop after it drains what is already buffered. When ctx
// expires first, in-flight retries are abandoned and the rest is dropped.
func (p *VerdictPipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = false
	abort := p.abort
	p.mu.Unlock()

	close(p.stopCh)
	select {
	case <-p.doneCh:
		abort()
		return nil
	case <-ctx.Done():
		abort()
		<-p.doneCh
		return fmt.Errorf("pipeline stop: %w", ctx.Err())
	}
}

func (p *VerdictPipeline) loop(ctx context.Context) {
	defer close(p.doneCh)
	for {
		select {
		case ev := <-p.bufCh:
			p.forward(ctx, p.collect(ev))
		case <-p.stopCh:
			for len(p.bufCh) > 0 && ctx.Err() == nil {
				p.forward(ctx, p.collect(<-p.bufCh))
			}
			if n := len(p.bufCh); n > 0 {
				p.log.Warn("verdict events dropped at shutdown", logger.Int("count", n))
			}
			return
		case <-ctx.Done():
			return
		}
	}
}

// collect takes first plus whatever is already buffered, up to batchSize.
func (p *VerdictPipeline) collect(first *models.VerdictEvent) []*models.VerdictEvent {
	batch := []*models.VerdictEvent{first}
	for len(batch) < p.batchSize {
		select {
		case ev := <-p.bufCh:
			batch = append(batch, ev)
		default:
			return batch
		}
	}
	return batch
}

func (p *VerdictPipeline) forward(ctx context.Context, batch []*models.VerdictEvent) {
	start := time.Now()
	backoff := p.backoffMin
	for attempt := 0; ; attempt++ {
		err := p.proc.ProcessBatch(ctx, batch)
		if err == nil {
			p.metrics.RecordLatency("pipeline_forward", time.Since(start).Seconds())
			return
		}
		p.metrics.RecordError("pipeline_forward")
		if attempt >= p.maxRetries || ctx.Err() != nil {
			p.log.Error("verdict batch dropped",
				logger.String("first_event", batch[0].EventID),
				logger.Int("events", len(batch)),
				logger.Int("attempts", attempt+1),
				logger.Error(err))
			return
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
		}
		if backoff < p.backoffMax {
			backoff *= 2
			if backoff > p.backoffMax {
				backoff = p.backoffMax
			}
		}
	}
}

func validateEvent(ev *models.VerdictEvent) error {
	if ev == nil {
		return fmt.Errorf("event nil")
	}
	if ev.EventID == "" {
		return fmt.Errorf("event id empty")
	}
	if ev.BotID == "" || ev.Symbol == "" {
		return fmt.Errorf("bot id or symbol empty")
	}
	if ev.Verdict != models.VerdictApproved && ev.Verdict != models.VerdictRejected {
		return fmt.Errorf("unknown verdict %q", ev.Verdict)
	}
	if ev.Timestamp.IsZero() {
		return fmt.Errorf("timestamp missing")
	}
	return nil
}
