package ingestion

import (
	"time"

	"github.com/veritrack/platform/pkg/common/models"
	"gorm.io/datatypes"
)

// LocationReading is an immutable GPS fix. The (device_id, recorded_at)
// unique index is the dedup key for idempotent retries.
type LocationReading struct {
	ID         string    `json:"id" gorm:"primaryKey;column:id"`
	DeviceID   string    `json:"device_id" gorm:"column:device_id;uniqueIndex:idx_location_dedup"`
	SubjectID  string    `json:"subject_id" gorm:"column:subject_id;index"`
	RecordedAt time.Time `json:"recorded_at" gorm:"column:recorded_at;uniqueIndex:idx_location_dedup"`
	Latitude   float64   `json:"latitude" gorm:"column:latitude"`
	Longitude  float64   `json:"longitude" gorm:"column:longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty" gorm:"column:accuracy"`
	Speed      *float64  `json:"speed,omitempty" gorm:"column:speed"`
	Altitude   *float64  `json:"altitude,omitempty" gorm:"column:altitude"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at"`
}

func (LocationReading) TableName() string {
	return "location_readings"
}

func (r *LocationReading) Sample() models.LocationSample {
	return models.LocationSample{
		ReadingID:  r.ID,
		DeviceID:   r.DeviceID,
		SubjectID:  r.SubjectID,
		RecordedAt: r.RecordedAt,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		Accuracy:   r.Accuracy,
		Speed:      r.Speed,
		Altitude:   r.Altitude,
	}
}

// BiometricReading is an immutable wearable sensor reading. Same dedup
// semantics as LocationReading.
type BiometricReading struct {
	ID          string            `json:"id" gorm:"primaryKey;column:id"`
	DeviceID    string            `json:"device_id" gorm:"column:device_id;uniqueIndex:idx_biometric_dedup"`
	SubjectID   string            `json:"subject_id" gorm:"column:subject_id;index"`
	RecordedAt  time.Time         `json:"recorded_at" gorm:"column:recorded_at;uniqueIndex:idx_biometric_dedup"`
	HeartRate   *float64          `json:"heart_rate,omitempty" gorm:"column:heart_rate"`
	Temperature *float64          `json:"temperature,omitempty" gorm:"column:temperature"`
	Systolic    *float64          `json:"systolic,omitempty" gorm:"column:systolic"`
	Diastolic   *float64          `json:"diastolic,omitempty" gorm:"column:diastolic"`
	Stress      *float64          `json:"stress,omitempty" gorm:"column:stress"`
	Activity    string            `json:"activity,omitempty" gorm:"column:activity"`
	Raw         datatypes.JSONMap `json:"raw,omitempty" gorm:"column:raw"`
	CreatedAt   time.Time         `json:"created_at" gorm:"column:created_at"`
}

func (BiometricReading) TableName() string {
	return "biometric_readings"
}

func (r *BiometricReading) Sample() models.BiometricSample {
	return models.BiometricSample{
		ReadingID:   r.ID,
		DeviceID:    r.DeviceID,
		SubjectID:   r.SubjectID,
		RecordedAt:  r.RecordedAt,
		HeartRate:   r.HeartRate,
		Temperature: r.Temperature,
		Systolic:    r.Systolic,
		Diastolic:   r.Diastolic,
		Stress:      r.Stress,
		Activity:    r.Activity,
	}
}
