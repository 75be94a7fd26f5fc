package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChallengeArena/internal/domain/models"
	"ChallengeArena/pkg/logger"
)

func openArchive(t *testing.T) *SQLiteArchive {
	t.Helper()
	a, err := OpenSQLiteArchive(":memory:", logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, a.Init(context.Background()))
	return a.(*SQLiteArchive)
}

func verdictAt(id, bot string, ts time.Time, v models.Verdict) *models.VerdictEvent {
	return &models.VerdictEvent{
		EventID:   id,
		SignalID:  7,
		BotID:     bot,
		Symbol:    "1120",
		Side:      models.SideSell,
		Price:     88.4,
		Verdict:   v,
		Reason:    "",
		PnL:       120.5,
		Timestamp: ts,
		Audit: []models.AuditEntry{
			{Check: "RSI value", Status: models.AuditPass, Note: "RSI 78.0 supports SELL"},
		},
	}
}

func TestSQLiteArchiveStoreAndQuery(t *testing.T) {
	a := openArchive(t)
	ctx := context.Background()
	base := time.Date(2024, 10, 6, 10, 0, 0, 0, time.UTC)

	require.NoError(t, a.StoreBatch(ctx, []*models.VerdictEvent{
		verdictAt("e1", "sniper", base, models.VerdictApproved),
		verdictAt("e2", "sniper", base.Add(time.Minute), models.VerdictRejected),
		verdictAt("e3", "hunter", base.Add(2*time.Minute), models.VerdictApproved),
		nil,
	}))

	got, err := a.Query(ctx, "sniper", base, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e2", got[0].EventID, "newest first")
	assert.Equal(t, models.VerdictRejected, got[0].Verdict)
	assert.Equal(t, models.SideSell, got[1].Side)
	assert.True(t, base.Equal(got[1].Timestamp))
	require.Len(t, got[1].Audit, 1)
	assert.Equal(t, "RSI value", got[1].Audit[0].Check)

	all, err := a.Query(ctx, "", base.Add(30*time.Second), 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	limited, err := a.Query(ctx, "", base, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "e3", limited[0].EventID)
}

func TestSQLiteArchiveIgnoresDuplicates(t *testing.T) {
	a := openArchive(t)
	ctx := context.Background()
	now := time.Now().UTC()

	ev := verdictAt("dup", "wave", now, models.VerdictApproved)
	require.NoError(t, a.Store(ctx, ev))
	require.NoError(t, a.Store(ctx, ev))

	got, err := a.Query(ctx, "wave", now.Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, a.Health(ctx))
}

func TestAuditColumnRoundTrip(t *testing.T) {
	assert.Equal(t, "[]", encodeAudit(nil))
	assert.Nil(t, decodeAudit(""))
	assert.Nil(t, decodeAudit("not json"))
	assert.Equal(t, "(?, ?, ?)", placeholders(3))
}
