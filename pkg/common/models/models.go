package models

import "time"

// Alert severities, shared across evaluators and the alert manager.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Alert types.
const (
	AlertTypeGeofenceBreach     = "geofence_breach"
	AlertTypeThresholdViolation = "threshold_violation"
)

// Alert lifecycle statuses.
const (
	AlertStatusNew          = "new"
	AlertStatusAcknowledged = "acknowledged"
	AlertStatusResolved     = "resolved"
	AlertStatusFalseAlarm   = "false_alarm"
)

// Reading kinds, used in alert source references.
const (
	ReadingKindLocation  = "location"
	ReadingKindBiometric = "biometric"
)

// LocationSample is a stored GPS fix handed to the geofence evaluator.
type LocationSample struct {
	ReadingID  string    `json:"reading_id"`
	DeviceID   string    `json:"device_id"`
	SubjectID  string    `json:"subject_id"`
	RecordedAt time.Time `json:"recorded_at"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	Speed      *float64  `json:"speed,omitempty"`
	Altitude   *float64  `json:"altitude,omitempty"`
}

// BiometricSample is a stored biometric reading handed to the threshold evaluator.
type BiometricSample struct {
	ReadingID  string    `json:"reading_id"`
	DeviceID   string    `json:"device_id"`
	SubjectID  string    `json:"subject_id"`
	RecordedAt time.Time `json:"recorded_at"`
	HeartRate  *float64  `json:"heart_rate,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Systolic   *float64  `json:"systolic,omitempty"`
	Diastolic  *float64  `json:"diastolic,omitempty"`
	Stress     *float64  `json:"stress,omitempty"`
	Activity   string    `json:"activity,omitempty"`
}

// Metrics returns the present biometric values keyed by metric name.
func (s BiometricSample) Metrics() map[string]float64 {
	out := make(map[string]float64, 5)
	if s.HeartRate != nil {
		out["heart_rate"] = *s.HeartRate
	}
	if s.Temperature != nil {
		out["temperature"] = *s.Temperature
	}
	if s.Systolic != nil {
		out["systolic"] = *s.Systolic
	}
	if s.Diastolic != nil {
		out["diastolic"] = *s.Diastolic
	}
	if s.Stress != nil {
		out["stress"] = *s.Stress
	}
	return out
}

// ReadingRef points an alert back at the reading that triggered it.
type ReadingRef struct {
	Kind string `json:"kind"` // location | biometric
	ID   string `json:"id"`
}

// AlertRequest is what evaluators hand to the alert manager. RuleIdentity
// identifies the violated rule instance for a subject (a geofence id, or a
// metric plus threshold id) and scopes open-alert deduplication.
type AlertRequest struct {
	SubjectID    string                 `json:"subject_id"`
	DeviceID     string                 `json:"device_id"`
	RuleIdentity string                 `json:"rule_identity"`
	Type         string                 `json:"type"`
	Severity     string                 `json:"severity"`
	Message      string                 `json:"message"`
	Detail       map[string]interface{} `json:"detail,omitempty"`
	Latitude     *float64               `json:"latitude,omitempty"`
	Longitude    *float64               `json:"longitude,omitempty"`
	Reading      *ReadingRef            `json:"reading,omitempty"`
}

// Event is the envelope published to the event bus.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // alert.created, alert.acknowledged, ...
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}
