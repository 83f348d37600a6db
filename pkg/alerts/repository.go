package alerts

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the alerts table and the partial unique index that makes
// Raise an atomic insert-if-absent: at most one open alert per
// (subject, rule_identity), enforced by the database, not by a read check.
func (r *Repository) Migrate() error {
	if err := r.db.AutoMigrate(&Alert{}); err != nil {
		return err
	}
	return r.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_open_rule
		ON alerts (subject_id, rule_identity)
		WHERE status IN ('new', 'acknowledged')
	`).Error
}

// InsertIfNoOpen inserts the alert unless an open one already exists for its
// (subject, rule_identity). Returns false on conflict.
func (r *Repository) InsertIfNoOpen(ctx context.Context, alert *Alert) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(alert)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Alert, error) {
	var alert Alert
	result := r.db.WithContext(ctx).First(&alert, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &alert, nil
}

// Transition applies a guarded status update: the row changes only when its
// current status is one of fromStatuses. Returns the number of rows updated.
func (r *Repository) Transition(ctx context.Context, id string, fromStatuses []string, updates map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).Model(&Alert{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(updates)
	return result.RowsAffected, result.Error
}

type Filter struct {
	SubjectID string
	Status    string
	Severity  string
	Limit     int
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Alert, error) {
	q := r.db.WithContext(ctx).Model(&Alert{})
	if f.SubjectID != "" {
		q = q.Where("subject_id = ?", f.SubjectID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var out []Alert
	err := q.Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}
