package repository

import (
	"context"
	"errors"
	"time"

	dedupdomain "report-intake/internal/dedup/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormDedupRepository stores one row per resolved MessageID. Writes are
// immediate, so Persist has nothing to flush.
type gormDedupRepository struct {
	db *gorm.DB
}

// NewGormDedupRepository creates a database-backed store
func NewGormDedupRepository(db *gorm.DB) DedupRepository {
	return &gormDedupRepository{
		db: db,
	}
}

func (r *gormDedupRepository) IsResolved(ctx context.Context, messageID string) (bool, error) {
	var record dedupdomain.DedupRecord
	err := r.db.WithContext(ctx).Where("message_id = ?", messageID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RecordSucceeded upserts, overriding an earlier failed row
func (r *gormDedupRepository) RecordSucceeded(ctx context.Context, messageID, account string) error {
	record := dedupdomain.DedupRecord{
		MessageID:  messageID,
		Outcome:    dedupdomain.OutcomeSucceeded,
		Account:    account,
		RecordedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"outcome", "account", "recorded_at"}),
	}).Create(&record).Error
}

// RecordFailed inserts only when no row exists, so a success is never downgraded
func (r *gormDedupRepository) RecordFailed(ctx context.Context, messageID, account string) error {
	record := dedupdomain.DedupRecord{
		MessageID:  messageID,
		Outcome:    dedupdomain.OutcomeFailed,
		Account:    account,
		RecordedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error
}

func (r *gormDedupRepository) Persist(ctx context.Context) error {
	return nil
}

// Load checks that the table is reachable
func (r *gormDedupRepository) Load(ctx context.Context) error {
	_, err := r.Stats(ctx)
	return err
}

func (r *gormDedupRepository) Stats(ctx context.Context) (dedupdomain.Counts, error) {
	var rows []struct {
		Outcome dedupdomain.Outcome
		Total   int
	}
	err := r.db.WithContext(ctx).Model(&dedupdomain.DedupRecord{}).
		Select("outcome, count(*) as total").
		Group("outcome").
		Scan(&rows).Error
	if err != nil {
		return dedupdomain.Counts{}, err
	}

	var counts dedupdomain.Counts
	for _, row := range rows {
		switch row.Outcome {
		case dedupdomain.OutcomeSucceeded:
			counts.Succeeded = row.Total
		case dedupdomain.OutcomeFailed:
			counts.Failed = row.Total
		}
	}
	return counts, nil
}
