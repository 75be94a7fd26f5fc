package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChallengeArena/internal/domain/models"
	"ChallengeArena/pkg/logger"
	"ChallengeArena/pkg/metrics"
)

type flakyProc struct {
	mu       sync.Mutex
	failures int
	calls    int
	batches  []int
	got      []string
}

func (f *flakyProc) ProcessBatch(ctx context.Context, evs []*models.VerdictEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.failures > 0 {
		f.failures--
		return errors.New("downstream unavailable")
	}
	f.batches = append(f.batches, len(evs))
	for _, ev := range evs {
		f.got = append(f.got, ev.EventID)
	}
	return nil
}

func (f *flakyProc) delivered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.got...)
}

func event(id string) *models.VerdictEvent {
	return &models.VerdictEvent{
		EventID:   id,
		SignalID:  1,
		BotID:     "hunter",
		Symbol:    "2222",
		Side:      models.SideBuy,
		Price:     27.5,
		Verdict:   models.VerdictApproved,
		Timestamp: time.Now().UTC(),
	}
}

func TestSubmitRejectsInvalidEvents(t *testing.T) {
	p := NewVerdictPipeline(&flakyProc{}, metrics.Noop{}, logger.NewNop())

	assert.Error(t, p.Submit(nil))

	ev := event("a")
	ev.Verdict = "MAYBE"
	assert.Error(t, p.Submit(ev))

	ev = event("")
	assert.Error(t, p.Submit(ev))
	assert.Equal(t, 0, p.Pending())
}

func TestSubmitDropsWhenBufferFull(t *testing.T) {
	p := NewVerdictPipeline(&flakyProc{}, metrics.Noop{}, logger.NewNop(), WithBufferSize(2))

	require.NoError(t, p.Submit(event("a")))
	require.NoError(t, p.Submit(event("b")))
	assert.Error(t, p.Submit(event("c")))
	assert.Equal(t, 2, p.Pending())
}

func TestPipelineRetriesUntilDelivered(t *testing.T) {
	proc := &flakyProc{failures: 2}
	p := NewVerdictPipeline(proc, metrics.Noop{}, logger.NewNop(),
		WithRetry(5, time.Millisecond, 4*time.Millisecond))

	require.NoError(t, p.Submit(event("a")))
	require.NoError(t, p.Submit(event("b")))
	p.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))

	assert.Equal(t, []string{"a", "b"}, proc.delivered())
	assert.Equal(t, 3, proc.calls)
}

func TestPipelineBatchesBufferedEvents(t *testing.T) {
	proc := &flakyProc{}
	p := NewVerdictPipeline(proc, metrics.Noop{}, logger.NewNop(), WithBatchSize(4))
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		require.NoError(t, p.Submit(event(id)))
	}
	p.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))

	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, proc.delivered())
	assert.Equal(t, []int{4, 2}, proc.batches)
}

func TestPipelineDrainsAfterRunContextCancelled(t *testing.T) {
	proc := &flakyProc{}
	p := NewVerdictPipeline(proc, metrics.Noop{}, logger.NewNop(), WithBatchSize(8))
	runCtx, cancelRun := context.WithCancel(context.Background())
	p.Start(runCtx)

	for i := 0; i < 50; i++ {
		require.NoError(t, p.Submit(event(fmt.Sprintf("ev-%02d", i))))
	}
	cancelRun()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))

	assert.Len(t, proc.delivered(), 50)
	assert.Equal(t, 0, p.Pending())
}

func TestPipelineGivesUpAfterRetryBudget(t *testing.T) {
	proc := &flakyProc{failures: 100}
	p := NewVerdictPipeline(proc, metrics.Noop{}, logger.NewNop(),
		WithRetry(2, time.Millisecond, time.Millisecond))
	p.Start(context.Background())
	require.NoError(t, p.Submit(event("a")))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))

	assert.Empty(t, proc.delivered())
	assert.Equal(t, 3, proc.calls)
}

func TestStopWithoutStart(t *testing.T) {
	p := NewVerdictPipeline(&flakyProc{}, metrics.Noop{}, logger.NewNop())
	assert.NoError(t, p.Stop(context.Background()))
}
