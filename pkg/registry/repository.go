package registry

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Device{})
}

func (r *Repository) FindByEUI(ctx context.Context, eui string) (*Device, error) {
	var dev Device
	result := r.db.WithContext(ctx).First(&dev, "eui = ?", eui)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrDeviceNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &dev, nil
}

func (r *Repository) TouchLastSeen(ctx context.Context, deviceID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&Device{}).
		Where("id = ?", deviceID).
		Updates(map[string]interface{}{
			"last_seen_at": at.UTC(),
			"updated_at":   time.Now().UTC(),
		}).Error
}
