package threshold

import "time"

// Threshold is a {low, high} bound pair for one metric. A nil SubjectID marks
// the global default; per-subject rows override it.
type Threshold struct {
	ID        string    `json:"id" gorm:"primaryKey;column:id"`
	SubjectID *string   `json:"subject_id,omitempty" gorm:"column:subject_id;index"`
	Metric    string    `json:"metric" gorm:"column:metric;index"`
	Low       float64   `json:"low" gorm:"column:low"`
	High      float64   `json:"high" gorm:"column:high"`
	Severity  string    `json:"severity" gorm:"column:severity"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Threshold) TableName() string {
	return "thresholds"
}
