// Package history persists successfully verified posts locally so earlier
// verifications can be listed without redoing the flow. Recording is
// best-effort: a storage failure is logged by the caller, never surfaced
// as a verification failure.
package history

import (
	"context"
	"time"
)

// Record is one verified post.
type Record struct {
	ID         string
	Shortcode  string
	Username   string
	Likes      int
	Comments   int
	MediaCode  string
	VerifiedAt time.Time
}

type Repository interface {
	Add(ctx context.Context, r *Record) error
	TrimOlder(ctx context.Context, keep int) error
	ListRecent(ctx context.Context, limit int) ([]*Record, error)
}
