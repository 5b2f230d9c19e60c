package ledger

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"sentinelx/internal/model"
)

type sqliteStore struct {
	baseStore
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:sentinelx.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{baseStore{db: db}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS offenders (
			plate_hash TEXT PRIMARY KEY,
			violations INTEGER NOT NULL,
			last_seen TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_offenders_last_seen ON offenders(last_seen)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) Increment(ctx context.Context, plateHash string, seen time.Time) (int64, error) {
	if s.db == nil {
		return 0, errors.New("ledger not open")
	}
	var count int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO offenders (plate_hash, violations, last_seen) VALUES (?, 1, ?)
		ON CONFLICT(plate_hash) DO UPDATE SET
			violations = violations + 1,
			last_seen = excluded.last_seen
		RETURNING violations`,
		plateHash, seen.UTC().Format(time.RFC3339Nano),
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *sqliteStore) Get(ctx context.Context, plateHash string) (model.OffenderRecord, bool, error) {
	if s.db == nil {
		return model.OffenderRecord{}, false, errors.New("ledger not open")
	}
	var rec model.OffenderRecord
	var seen string
	err := s.db.QueryRowContext(ctx,
		`SELECT plate_hash, violations, last_seen FROM offenders WHERE plate_hash = ?`,
		plateHash,
	).Scan(&rec.PlateHash, &rec.Violations, &seen)
	if errors.Is(err, sql.ErrNoRows) {
		return model.OffenderRecord{}, false, nil
	}
	if err != nil {
		return model.OffenderRecord{}, false, err
	}
	if ts, perr := time.Parse(time.RFC3339Nano, seen); perr == nil {
		rec.LastSeen = ts
	}
	return rec, true, nil
}
