package ingestion

import (
	"bytes"
	"encoding/json"
	"errors"
)

// LocationEntry is one submitted GPS fix. Timestamp stays raw until
// validation so a malformed value fails that entry, not the whole decode.
type LocationEntry struct {
	DeviceEUI string          `json:"device_eui"`
	Timestamp json.RawMessage `json:"timestamp"`
	Latitude  *float64        `json:"latitude"`
	Longitude *float64        `json:"longitude"`
	Accuracy  *float64        `json:"accuracy,omitempty"`
	Speed     *float64        `json:"speed,omitempty"`
	Altitude  *float64        `json:"altitude,omitempty"`
}

// BiometricEntry is one submitted sensor reading.
type BiometricEntry struct {
	DeviceEUI   string                 `json:"device_eui"`
	Timestamp   json.RawMessage        `json:"timestamp"`
	HeartRate   *float64               `json:"heart_rate,omitempty"`
	Temperature *float64               `json:"temperature,omitempty"`
	Systolic    *float64               `json:"systolic,omitempty"`
	Diastolic   *float64               `json:"diastolic,omitempty"`
	Stress      *float64               `json:"stress,omitempty"`
	Activity    string                 `json:"activity,omitempty"`
	Raw         map[string]interface{} `json:"raw,omitempty"`
}

var errMalformedBody = errors.New("request body must be a reading object or an array of readings")

// decodeBatch accepts either a single object or an array of objects of the
// same kind, per the device wire contract.
func decodeBatch[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errMalformedBody
	}

	if trimmed[0] == '[' {
		var entries []T
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, errMalformedBody
		}
		return entries, nil
	}

	var entry T
	if err := json.Unmarshal(trimmed, &entry); err != nil {
		return nil, errMalformedBody
	}
	return []T{entry}, nil
}
