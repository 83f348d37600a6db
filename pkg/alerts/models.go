package alerts

import (
	"time"

	"github.com/veritrack/platform/pkg/common/models"
	"gorm.io/datatypes"
)

// Alert is an audit-trail record: created by an evaluator, mutated only
// through staff lifecycle actions, never deleted.
type Alert struct {
	ID           string            `json:"id" gorm:"primaryKey;column:id"`
	SubjectID    string            `json:"subject_id" gorm:"column:subject_id;index"`
	DeviceID     string            `json:"device_id" gorm:"column:device_id"`
	RuleIdentity string            `json:"rule_identity" gorm:"column:rule_identity;index"`
	Type         string            `json:"type" gorm:"column:type"`
	Severity     string            `json:"severity" gorm:"column:severity;index"`
	Message      string            `json:"message" gorm:"column:message"`
	Detail       datatypes.JSONMap `json:"detail,omitempty" gorm:"column:detail"`
	Latitude     *float64          `json:"latitude,omitempty" gorm:"column:latitude"`
	Longitude    *float64          `json:"longitude,omitempty" gorm:"column:longitude"`
	ReadingKind  string            `json:"reading_kind,omitempty" gorm:"column:reading_kind"`
	ReadingID    string            `json:"reading_id,omitempty" gorm:"column:reading_id"`
	Status       string            `json:"status" gorm:"column:status;index"`
	CreatedAt    time.Time         `json:"created_at" gorm:"column:created_at"`

	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty" gorm:"column:acknowledged_at"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty" gorm:"column:acknowledged_by"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty" gorm:"column:resolved_at"`
	ResolvedBy     string     `json:"resolved_by,omitempty" gorm:"column:resolved_by"`
}

func (Alert) TableName() string {
	return "alerts"
}

// Open reports whether the alert still blocks a new episode for its rule.
func (a *Alert) Open() bool {
	return a.Status == models.AlertStatusNew || a.Status == models.AlertStatusAcknowledged
}
