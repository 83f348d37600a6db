package ingestion

import (
	"encoding/json"
	"errors"
	"testing"
)

func f64(v float64) *float64 { return &v }

func validLocationEntry() LocationEntry {
	return LocationEntry{
		DeviceEUI: "00-80-00-00-00-00-D1-A3",
		Timestamp: json.RawMessage(`"2026-03-14T15:09:26Z"`),
		Latitude:  f64(40.0),
		Longitude: f64(-73.9),
	}
}

func TestValidateLocationAccepts(t *testing.T) {
	v := NewValidator()
	ts, err := v.ValidateLocation(validLocationEntry())
	if err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if ts.IsZero() {
		t.Fatal("expected normalized timestamp")
	}
}

func TestValidateLocationFieldErrors(t *testing.T) {
	v := NewValidator()

	cases := []struct {
		name   string
		mutate func(*LocationEntry)
		field  string
	}{
		{"missing eui", func(e *LocationEntry) { e.DeviceEUI = " " }, "device_eui"},
		{"missing latitude", func(e *LocationEntry) { e.Latitude = nil }, "latitude"},
		{"latitude out of range", func(e *LocationEntry) { e.Latitude = f64(200) }, "latitude"},
		{"longitude out of range", func(e *LocationEntry) { e.Longitude = f64(-181) }, "longitude"},
		{"bad timestamp", func(e *LocationEntry) { e.Timestamp = json.RawMessage(`"not a time"`) }, "timestamp"},
		{"negative accuracy", func(e *LocationEntry) { e.Accuracy = f64(-1) }, "accuracy"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry := validLocationEntry()
			tc.mutate(&entry)

			_, err := v.ValidateLocation(entry)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if _, ok := ve.Fields[tc.field]; !ok {
				t.Fatalf("expected field %q in %v", tc.field, ve.Fields)
			}
		})
	}
}

func TestValidateBiometricRangesAndPresence(t *testing.T) {
	v := NewValidator()

	entry := BiometricEntry{
		DeviceEUI: "00-80-00-00-00-00-D1-A3",
		Timestamp: json.RawMessage(`1773500966`),
		HeartRate: f64(72),
	}
	if _, err := v.ValidateBiometric(entry); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	entry.HeartRate = f64(350)
	_, err := v.ValidateBiometric(entry)
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := ve.Fields["heart_rate"]; !ok {
		t.Fatalf("expected heart_rate field error, got %v", ve.Fields)
	}

	empty := BiometricEntry{
		DeviceEUI: "00-80-00-00-00-00-D1-A3",
		Timestamp: json.RawMessage(`1773500966`),
	}
	_, err = v.ValidateBiometric(empty)
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for metric-less reading, got %v", err)
	}
	if _, ok := ve.Fields["metrics"]; !ok {
		t.Fatalf("expected metrics field error, got %v", ve.Fields)
	}
}
