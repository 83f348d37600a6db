package geofence

import (
	"context"

	"github.com/veritrack/platform/pkg/common/logger"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&GeoFence{}, &Assignment{})
}

// ActiveZones returns the subject's active geofences with geometry decoded.
// Records with malformed geometry are logged and skipped so one bad zone
// never takes down ingestion.
func (r *Repository) ActiveZones(ctx context.Context, subjectID string) ([]Zone, error) {
	var fences []GeoFence
	err := r.db.WithContext(ctx).
		Joins("JOIN geofence_assignments ON geofence_assignments.geofence_id = geofences.id").
		Where("geofence_assignments.subject_id = ? AND geofences.active = ?", subjectID, true).
		Find(&fences).Error
	if err != nil {
		return nil, err
	}

	zones := make([]Zone, 0, len(fences))
	for _, f := range fences {
		geom, err := DecodeGeometry(f.Geometry)
		if err != nil {
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"geofence_id":   f.ID,
				"geofence_name": f.Name,
			}).Warn("skipping geofence with invalid geometry")
			continue
		}
		zones = append(zones, Zone{
			ID:       f.ID,
			Name:     f.Name,
			Kind:     f.Kind,
			Severity: f.Severity,
			Geometry: geom,
		})
	}
	return zones, nil
}
