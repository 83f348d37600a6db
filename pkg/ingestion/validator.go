package ingestion

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// ValidationError carries per-field failure detail for one entry.
type ValidationError struct {
	Fields map[string]string
}

func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return strings.Join(parts, "; ")
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Biometric sanity ranges; values outside are rejected as sensor garbage.
const (
	heartRateMin   = 0
	heartRateMax   = 300
	temperatureMin = 25
	temperatureMax = 45
	pressureMin    = 0
	pressureMax    = 300
	stressMin      = 0
	stressMax      = 100
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateLocation checks one location entry and returns its normalized UTC
// timestamp on success.
func (v *Validator) ValidateLocation(e LocationEntry) (time.Time, error) {
	fields := map[string]string{}

	if strings.TrimSpace(e.DeviceEUI) == "" {
		fields["device_eui"] = "required"
	}

	ts, err := parseTimestamp(e.Timestamp)
	if err != nil {
		fields["timestamp"] = "must be ISO-8601 with offset, SQL datetime, or Unix epoch seconds"
	}

	switch {
	case e.Latitude == nil:
		fields["latitude"] = "required"
	case !finite(*e.Latitude) || *e.Latitude < -90 || *e.Latitude > 90:
		fields["latitude"] = "must be within [-90, 90]"
	}

	switch {
	case e.Longitude == nil:
		fields["longitude"] = "required"
	case !finite(*e.Longitude) || *e.Longitude < -180 || *e.Longitude > 180:
		fields["longitude"] = "must be within [-180, 180]"
	}

	if e.Accuracy != nil && (!finite(*e.Accuracy) || *e.Accuracy < 0) {
		fields["accuracy"] = "must be a non-negative number"
	}
	if e.Speed != nil && (!finite(*e.Speed) || *e.Speed < 0) {
		fields["speed"] = "must be a non-negative number"
	}
	if e.Altitude != nil && !finite(*e.Altitude) {
		fields["altitude"] = "must be a finite number"
	}

	if len(fields) > 0 {
		return time.Time{}, ValidationError{Fields: fields}
	}
	return ts, nil
}

// ValidateBiometric checks one biometric entry. At least one metric must be
// present for the reading to be worth storing.
func (v *Validator) ValidateBiometric(e BiometricEntry) (time.Time, error) {
	fields := map[string]string{}

	if strings.TrimSpace(e.DeviceEUI) == "" {
		fields["device_eui"] = "required"
	}

	ts, err := parseTimestamp(e.Timestamp)
	if err != nil {
		fields["timestamp"] = "must be ISO-8601 with offset, SQL datetime, or Unix epoch seconds"
	}

	checkRange(fields, "heart_rate", e.HeartRate, heartRateMin, heartRateMax)
	checkRange(fields, "temperature", e.Temperature, temperatureMin, temperatureMax)
	checkRange(fields, "systolic", e.Systolic, pressureMin, pressureMax)
	checkRange(fields, "diastolic", e.Diastolic, pressureMin, pressureMax)
	checkRange(fields, "stress", e.Stress, stressMin, stressMax)

	if e.HeartRate == nil && e.Temperature == nil && e.Systolic == nil &&
		e.Diastolic == nil && e.Stress == nil {
		fields["metrics"] = "at least one biometric value is required"
	}

	if len(fields) > 0 {
		return time.Time{}, ValidationError{Fields: fields}
	}
	return ts, nil
}

func checkRange(fields map[string]string, name string, value *float64, min, max float64) {
	if value == nil {
		return
	}
	if !finite(*value) || *value < min || *value > max {
		fields[name] = fmt.Sprintf("must be within [%g, %g]", min, max)
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
