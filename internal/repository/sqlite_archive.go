package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"ChallengeArena/internal/domain/models"
	domrepo "ChallengeArena/internal/domain/repository"
	"ChallengeArena/pkg/logger"
)

// SQLiteArchive is the single-node archive backend. Writes are serialized;
// WAL mode lets the HTTP archive endpoint read while the pipeline writes.
type SQLiteArchive struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLiteArchive opens (or creates) the database at path.
// Use ":memory:" in tests.
func OpenSQLiteArchive(path string, lgr *logger.Logger) (domrepo.Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps ":memory:" databases alive and matches the write lock
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	lgr.Info("sqlite archive opened", logger.String("path", path))
	return &SQLiteArchive{db: db}, nil
}

func (s *SQLiteArchive) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS verdicts (
			event_id  TEXT PRIMARY KEY,
			signal_id INTEGER NOT NULL,
			bot_id    TEXT NOT NULL,
			symbol    TEXT NOT NULL,
			side      TEXT,
			price     REAL,
			verdict   TEXT NOT NULL,
			reason    TEXT,
			audit     TEXT,
			pnl       REAL,
			ts        INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verdicts_bot_ts ON verdicts(bot_id, ts)`,
		`CREATE INDEX IF NOT EXISTS idx_verdicts_ts ON verdicts(ts)`,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite archive: %w", err)
		}
	}
	return nil
}

func (s *SQLiteArchive) Store(ctx context.Context, ev *models.VerdictEvent) error {
	return s.StoreBatch(ctx, []*models.VerdictEvent{ev})
}

// StoreBatch writes all events in one transaction. Duplicate event ids are ignored.
func (s *SQLiteArchive) StoreBatch(ctx context.Context, evs []*models.VerdictEvent) error {
	if len(evs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT OR IGNORE INTO verdicts (%s) VALUES %s", verdictColumns, placeholders(11)))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, ev := range evs {
		if !validForInsert(ev) {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			ev.EventID, ev.SignalID, ev.BotID, ev.Symbol, string(ev.Side), ev.Price,
			string(ev.Verdict), ev.Reason, encodeAudit(ev.Audit), ev.PnL, ev.Timestamp.UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert verdict %s: %w", ev.EventID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteArchive) Query(ctx context.Context, botID string, since time.Time, limit int) ([]*models.VerdictEvent, error) {
	where := []string{"ts >= ?"}
	args := []any{since.UnixMilli()}
	if botID != "" {
		where = append(where, "bot_id = ?")
		args = append(args, botID)
	}
	args = append(args, limit)

	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM verdicts WHERE %s ORDER BY ts DESC, rowid DESC LIMIT ?",
			verdictColumns, strings.Join(where, " AND ")), args...)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	var out []*models.VerdictEvent
	for rows.Next() {
		var (
			ev                   models.VerdictEvent
			side, verdict, audit sql.NullString
			reason               sql.NullString
			ts                   int64
		)
		if err := rows.Scan(&ev.EventID, &ev.SignalID, &ev.BotID, &ev.Symbol, &side, &ev.Price,
			&verdict, &reason, &audit, &ev.PnL, &ts); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		ev.Side = models.Side(side.String)
		ev.Verdict = models.Verdict(verdict.String)
		ev.Reason = reason.String
		ev.Audit = decodeAudit(audit.String)
		ev.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, &ev)
	}
	return out, rows.Err()
}

func (s *SQLiteArchive) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteArchive) Close() error {
	return s.db.Close()
}
