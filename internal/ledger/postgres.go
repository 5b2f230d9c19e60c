package ledger

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"sentinelx/internal/model"
)

type postgresStore struct {
	baseStore
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/sentinelx?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{baseStore{db: db}}, nil
}

func (s *postgresStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS offenders (
			plate_hash TEXT PRIMARY KEY,
			violations BIGINT NOT NULL,
			last_seen TIMESTAMPTZ NOT NULL
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

func (s *postgresStore) Increment(ctx context.Context, plateHash string, seen time.Time) (int64, error) {
	if s.db == nil {
		return 0, errors.New("ledger not open")
	}
	var count int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO offenders (plate_hash, violations, last_seen) VALUES ($1, 1, $2)
		ON CONFLICT (plate_hash) DO UPDATE SET
			violations = offenders.violations + 1,
			last_seen = EXCLUDED.last_seen
		RETURNING violations`,
		plateHash, seen.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *postgresStore) Get(ctx context.Context, plateHash string) (model.OffenderRecord, bool, error) {
	if s.db == nil {
		return model.OffenderRecord{}, false, errors.New("ledger not open")
	}
	var rec model.OffenderRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT plate_hash, violations, last_seen FROM offenders WHERE plate_hash = $1`,
		plateHash,
	).Scan(&rec.PlateHash, &rec.Violations, &rec.LastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return model.OffenderRecord{}, false, nil
	}
	if err != nil {
		return model.OffenderRecord{}, false, err
	}
	return rec, true, nil
}
