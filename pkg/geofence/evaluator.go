package geofence

import (
	"context"
	"fmt"
	"time"

	"github.com/veritrack/platform/pkg/common/logger"
	"github.com/veritrack/platform/pkg/common/models"
)

// Store fetches a subject's assigned active zones.
type Store interface {
	ActiveZones(ctx context.Context, subjectID string) ([]Zone, error)
}

// PriorLocationSource yields the subject's most recent fix before a given
// instant; the previous containment state is recomputed from it.
type PriorLocationSource interface {
	PriorLocation(ctx context.Context, subjectID string, before time.Time) (*models.LocationSample, error)
}

// AlertSink receives qualifying breach transitions. Raise reports whether a
// new alert was created or an open episode already covered the rule.
type AlertSink interface {
	Raise(ctx context.Context, req models.AlertRequest) (bool, error)
}

// Evaluator detects breach transitions. It is stateless: every evaluation is
// a pure function of the current reading and the prior reading in storage, so
// repeated readings inside one violation episode never re-alert.
type Evaluator struct {
	store Store
	prior PriorLocationSource
	sink  AlertSink
}

func NewEvaluator(store Store, prior PriorLocationSource, sink AlertSink) *Evaluator {
	return &Evaluator{store: store, prior: prior, sink: sink}
}

func (e *Evaluator) Evaluate(ctx context.Context, sample models.LocationSample) error {
	zones, err := e.store.ActiveZones(ctx, sample.SubjectID)
	if err != nil {
		return fmt.Errorf("loading geofence assignments: %w", err)
	}
	if len(zones) == 0 {
		return nil
	}

	prior, err := e.prior.PriorLocation(ctx, sample.SubjectID, sample.RecordedAt)
	if err != nil {
		return fmt.Errorf("loading prior location: %w", err)
	}

	point := Point{Lat: sample.Latitude, Lng: sample.Longitude}

	var firstErr error
	for _, zone := range zones {
		if !breached(zone, point) {
			continue
		}

		// Edge trigger: alert only when the previous reading was not already
		// in breach for this zone. No prior reading counts as no breach.
		if prior != nil && breached(zone, Point{Lat: prior.Latitude, Lng: prior.Longitude}) {
			continue
		}

		created, err := e.sink.Raise(ctx, e.request(sample, zone))
		if err != nil {
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"subject_id":  sample.SubjectID,
				"geofence_id": zone.ID,
			}).Error("failed to raise geofence alert")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !created {
			logger.Log.WithFields(map[string]interface{}{
				"subject_id":  sample.SubjectID,
				"geofence_id": zone.ID,
			}).Debug("open alert already covers geofence breach")
		}
	}
	return firstErr
}

func breached(zone Zone, p Point) bool {
	contained := zone.Geometry.Contains(p)
	if zone.Kind == KindRestricted {
		return contained
	}
	return !contained
}

func (e *Evaluator) request(sample models.LocationSample, zone Zone) models.AlertRequest {
	severity := zone.Severity
	if severity == "" {
		if zone.Kind == KindRestricted {
			severity = models.SeverityHigh
		} else {
			severity = models.SeverityMedium
		}
	}

	message := fmt.Sprintf("subject entered restricted zone %q", zone.Name)
	if zone.Kind == KindAllowed {
		message = fmt.Sprintf("subject left allowed zone %q", zone.Name)
	}

	lat, lng := sample.Latitude, sample.Longitude
	return models.AlertRequest{
		SubjectID:    sample.SubjectID,
		DeviceID:     sample.DeviceID,
		RuleIdentity: "geofence:" + zone.ID,
		Type:         models.AlertTypeGeofenceBreach,
		Severity:     severity,
		Message:      message,
		Detail: map[string]interface{}{
			"geofence_id":   zone.ID,
			"geofence_name": zone.Name,
			"geofence_kind": zone.Kind,
			"latitude":      sample.Latitude,
			"longitude":     sample.Longitude,
		},
		Latitude:  &lat,
		Longitude: &lng,
		Reading: &models.ReadingRef{
			Kind: models.ReadingKindLocation,
			ID:   sample.ReadingID,
		},
	}
}
