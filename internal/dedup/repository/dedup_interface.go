package repository

import (
	"context"

	dedupdomain "report-intake/internal/dedup/domain"
)

// DedupRepository tracks which messages reached a terminal outcome.
// All methods are safe for concurrent use by several account sessions.
type DedupRepository interface {
	// IsResolved reports whether the message already succeeded or permanently failed
	IsResolved(ctx context.Context, messageID string) (bool, error)
	// RecordSucceeded marks a message as delivered; it is never processed again
	RecordSucceeded(ctx context.Context, messageID, account string) error
	// RecordFailed marks a message as permanently failed unless it already succeeded
	RecordFailed(ctx context.Context, messageID, account string) error
	// Persist flushes both sets to durable storage
	Persist(ctx context.Context) error
	// Load replaces the in-memory view with the durable one
	Load(ctx context.Context) error
	// Stats returns the size of both sets
	Stats(ctx context.Context) (dedupdomain.Counts, error)
}
