package registry

import "time"

// Device lifecycle states. Administration owns transitions; the core only
// reads them and refreshes last_seen_at.
const (
	StateUnassigned  = "unassigned"
	StateActive      = "active"
	StateInactive    = "inactive"
	StateMaintenance = "maintenance"
	StateLost        = "lost"
)

type Device struct {
	ID         string     `json:"id" gorm:"primaryKey;column:id"`
	EUI        string     `json:"eui" gorm:"column:eui;uniqueIndex"`
	State      string     `json:"state" gorm:"column:state"`
	SubjectID  *string    `json:"subject_id,omitempty" gorm:"column:subject_id;index"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty" gorm:"column:last_seen_at"`
	CreatedAt  time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (Device) TableName() string {
	return "devices"
}

// Assigned reports whether the device has a subject bound to it.
func (d *Device) Assigned() bool {
	return d.SubjectID != nil && *d.SubjectID != ""
}
