package geofence

import (
	"time"

	"gorm.io/datatypes"
)

// Zone semantic kinds. A restricted zone raises on entry, an allowed zone on
// exit.
const (
	KindAllowed    = "allowed"
	KindRestricted = "restricted"
)

type GeoFence struct {
	ID       string `json:"id" gorm:"primaryKey;column:id"`
	Name     string `json:"name" gorm:"column:name"`
	Kind     string `json:"kind" gorm:"column:kind"`
	Active   bool   `json:"active" gorm:"column:active"`
	Severity string `json:"severity,omitempty" gorm:"column:severity"` // empty = derive from kind
	// Geometry is the raw tagged-union document; decoded and validated at
	// load, never inside the evaluator loop.
	Geometry  datatypes.JSON `json:"geometry" gorm:"column:geometry"`
	CreatedAt time.Time      `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"column:updated_at"`
}

func (GeoFence) TableName() string {
	return "geofences"
}

// Assignment binds a subject to a geofence. Owned by administration,
// read-only here.
type Assignment struct {
	ID         string    `json:"id" gorm:"primaryKey;column:id"`
	SubjectID  string    `json:"subject_id" gorm:"column:subject_id;uniqueIndex:idx_assignment_pair"`
	GeofenceID string    `json:"geofence_id" gorm:"column:geofence_id;uniqueIndex:idx_assignment_pair"`
	AssignedAt time.Time `json:"assigned_at" gorm:"column:assigned_at"`
	AssignedBy string    `json:"assigned_by" gorm:"column:assigned_by"`
}

func (Assignment) TableName() string {
	return "geofence_assignments"
}

// Zone is a geofence with its geometry already decoded and validated.
type Zone struct {
	ID       string
	Name     string
	Kind     string
	Severity string
	Geometry Geometry
}
