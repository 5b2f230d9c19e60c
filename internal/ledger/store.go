// Package ledger tracks per-plate violation counts in a durable local store
// and derives escalation levels from configured thresholds.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"sentinelx/internal/config"
	"sentinelx/internal/model"
)

type Store interface {
	Init(ctx context.Context) error
	Close() error
	// Increment atomically adds one violation for the plate hash and returns
	// the new count.
	Increment(ctx context.Context, plateHash string, seen time.Time) (int64, error)
	Get(ctx context.Context, plateHash string) (model.OffenderRecord, bool, error)
}

func NewStore(cfg config.LedgerConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	default:
		return nil, errors.New("unsupported ledger driver")
	}
}

type baseStore struct {
	db *sql.DB
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// HashPlate produces the one-way plate identifier used as the ledger key.
// Normalization strips separators so "MH 12 AB 1234" and "mh12ab1234" count
// against the same record.
func HashPlate(plate string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(plate) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		}
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
