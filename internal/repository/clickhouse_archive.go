package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ChallengeArena/internal/domain/models"
	domrepo "ChallengeArena/internal/domain/repository"
	pkgch "ChallengeArena/pkg/clickhouse"
	"ChallengeArena/pkg/logger"
)

// ClickHouseArchive stores verdict events in a ReplacingMergeTree keyed by
// event id, so replays from Kafka collapse into one row.
type ClickHouseArchive struct {
	db       *sql.DB
	database string
	table    string
	log      *logger.Logger
}

// NewClickHouseArchive creates the archive on an open client.
func NewClickHouseArchive(ch *pkgch.Client, database string, lgr *logger.Logger) domrepo.Archive {
	if database == "" {
		database = "arena"
	}
	return &ClickHouseArchive{
		db:       ch.DB(),
		database: database,
		table:    database + ".verdicts",
		log:      lgr,
	}
}

func (s *ClickHouseArchive) schema() []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			event_id  String,
			signal_id UInt64,
			bot_id    LowCardinality(String),
			symbol    LowCardinality(String),
			side      LowCardinality(String),
			price     Float64,
			verdict   LowCardinality(String),
			reason    String,
			audit     String,
			pnl       Float64,
			ts        DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree
		PARTITION BY toYYYYMM(ts)
		ORDER BY (bot_id, ts, event_id)`, s.table),
	}
}

func (s *ClickHouseArchive) Init(ctx context.Context) error {
	for _, stmt := range s.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init clickhouse archive: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseArchive) Store(ctx context.Context, ev *models.VerdictEvent) error {
	return s.StoreBatch(ctx, []*models.VerdictEvent{ev})
}

// StoreBatch inserts with multi-row VALUES in chunks to cut round-trips.
func (s *ClickHouseArchive) StoreBatch(ctx context.Context, evs []*models.VerdictEvent) error {
	const chunkSize = 2000
	for start := 0; start < len(evs); start += chunkSize {
		end := min(start+chunkSize, len(evs))

		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*11)
		for _, ev := range evs[start:end] {
			if !validForInsert(ev) {
				continue
			}
			values = append(values, placeholders(11))
			args = append(args,
				ev.EventID,
				ev.SignalID,
				ev.BotID,
				ev.Symbol,
				string(ev.Side),
				ev.Price,
				string(ev.Verdict),
				ev.Reason,
				encodeAudit(ev.Audit),
				ev.PnL,
				ev.Timestamp.UTC(),
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, verdictColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.log.Error("clickhouse verdict insert failed", logger.Int("rows", len(values)), logger.Error(err))
			return fmt.Errorf("store verdicts: %w", err)
		}
	}
	return nil
}

// Query returns newest-first events; an empty botID matches every bot.
func (s *ClickHouseArchive) Query(ctx context.Context, botID string, since time.Time, limit int) ([]*models.VerdictEvent, error) {
	where := []string{"ts >= ?"}
	args := []any{since.UTC()}
	if botID != "" {
		where = append(where, "bot_id = ?")
		args = append(args, botID)
	}
	args = append(args, limit)
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE %s ORDER BY ts DESC LIMIT ?",
		verdictColumns, s.table, strings.Join(where, " AND "))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	out := make([]*models.VerdictEvent, 0, limit)
	for rows.Next() {
		var (
			ev            models.VerdictEvent
			side, verdict string
			audit         string
		)
		if err := rows.Scan(&ev.EventID, &ev.SignalID, &ev.BotID, &ev.Symbol, &side, &ev.Price,
			&verdict, &ev.Reason, &audit, &ev.PnL, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		ev.Side = models.Side(side)
		ev.Verdict = models.Verdict(verdict)
		ev.Audit = decodeAudit(audit)
		out = append(out, &ev)
	}
	return out, rows.Err()
}

func (s *ClickHouseArchive) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the client owns the pool.
func (s *ClickHouseArchive) Close() error { return nil }
