package history

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/postproof/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, rec *Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verifications (id, shortcode, username, likes, comments, media_code, verified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Shortcode, rec.Username, rec.Likes, rec.Comments, rec.MediaCode, rec.VerifiedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to add verification record: %w", err)
	}
	return nil
}

// TrimOlder deletes everything beyond the keep most recent records.
func (r *SQLiteRepository) TrimOlder(ctx context.Context, keep int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM verifications
		WHERE id NOT IN (
			SELECT id FROM verifications ORDER BY verified_at DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("failed to trim verification records: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, shortcode, username, likes, comments, media_code, verified_at
		FROM verifications
		ORDER BY verified_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list verification records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var rec Record
		var verifiedAt string
		if err := rows.Scan(&rec.ID, &rec.Shortcode, &rec.Username, &rec.Likes, &rec.Comments, &rec.MediaCode, &verifiedAt); err != nil {
			return nil, fmt.Errorf("failed to scan verification row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, verifiedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse verified_at: %w", err)
		}
		rec.VerifiedAt = ts
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate verification rows: %w", err)
	}
	return out, nil
}
