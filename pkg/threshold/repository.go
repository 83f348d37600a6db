package threshold

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Threshold{})
}

// ForSubject returns the bound pair for (subject, metric), preferring a
// per-subject override and falling back to the global default. Nil when no
// rule exists for the metric.
func (r *Repository) ForSubject(ctx context.Context, subjectID, metric string) (*Threshold, error) {
	var th Threshold
	result := r.db.WithContext(ctx).
		Where("metric = ? AND subject_id = ?", metric, subjectID).
		First(&th)
	if result.Error == nil {
		return &th, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	result = r.db.WithContext(ctx).
		Where("metric = ? AND subject_id IS NULL", metric).
		First(&th)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &th, nil
}

// SeedDefaults writes the global default rows for any metric that does not
// have one yet. Existing rows are left alone so operator edits survive
// restarts.
func (r *Repository) SeedDefaults(ctx context.Context, cfg BoundsConfig) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, b := range cfg.Bounds {
			var count int64
			if err := tx.Model(&Threshold{}).
				Where("metric = ? AND subject_id IS NULL", b.Metric).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			now := time.Now().UTC()
			row := Threshold{
				ID:        uuid.New().String(),
				Metric:    b.Metric,
				Low:       b.Low,
				High:      b.High,
				Severity:  b.Severity,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
