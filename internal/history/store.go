package history

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/postproof/internal/dbx"
)

// Store is the application-facing history service. Each recorded
// verification is inserted and the table trimmed to maxEntries inside a
// single transaction.
type Store struct {
	db         *sql.DB
	maxEntries int
}

func NewStore(db *sql.DB, maxEntries int) *Store {
	return &Store{db: db, maxEntries: maxEntries}
}

func (s *Store) Record(ctx context.Context, rec *Record) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		if err := repo.Add(ctx, rec); err != nil {
			return err
		}
		return repo.TrimOlder(ctx, s.maxEntries)
	})
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	return NewSQLiteRepository(s.db).ListRecent(ctx, limit)
}
