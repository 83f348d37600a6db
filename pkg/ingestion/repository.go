package ingestion

import (
	"context"
	"errors"
	"time"

	"github.com/veritrack/platform/pkg/common/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&LocationReading{}, &BiometricReading{})
}

// InsertLocation appends a reading. Returns false when the (device,
// recorded_at) dedup key already exists; the row is left untouched.
func (r *Repository) InsertLocation(ctx context.Context, rec *LocationReading) (bool, error) {
	rec.CreatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) InsertBiometric(ctx context.Context, rec *BiometricReading) (bool, error) {
	rec.CreatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// PriorLocation returns the latest stored fix for the subject strictly before
// the given instant, or nil when none exists. The geofence evaluator derives
// the previous containment state from it.
func (r *Repository) PriorLocation(ctx context.Context, subjectID string, before time.Time) (*models.LocationSample, error) {
	var rec LocationReading
	result := r.db.WithContext(ctx).
		Where("subject_id = ? AND recorded_at < ?", subjectID, before).
		Order("recorded_at DESC").
		First(&rec)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	sample := rec.Sample()
	return &sample, nil
}
