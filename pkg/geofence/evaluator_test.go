package geofence

import (
	"context"
	"testing"
	"time"

	"github.com/veritrack/platform/pkg/common/models"
)

type fakeZoneStore struct {
	zones []Zone
}

func (f *fakeZoneStore) ActiveZones(ctx context.Context, subjectID string) ([]Zone, error) {
	return f.zones, nil
}

// fakePriorSource replays the previously evaluated sample, mimicking the
// FIFO-per-subject ordering the gateway guarantees.
type fakePriorSource struct {
	last *models.LocationSample
}

func (f *fakePriorSource) PriorLocation(ctx context.Context, subjectID string, before time.Time) (*models.LocationSample, error) {
	return f.last, nil
}

type fakeSink struct {
	raised []models.AlertRequest
}

func (f *fakeSink) Raise(ctx context.Context, req models.AlertRequest) (bool, error) {
	f.raised = append(f.raised, req)
	return true, nil
}

func restrictedCircleZone(id string, center Point, radius float64) Zone {
	return Zone{ID: id, Name: "zone-" + id, Kind: KindRestricted, Geometry: circleGeom(center, radius)}
}

func sampleAt(lat, lng float64, minute int) models.LocationSample {
	return models.LocationSample{
		ReadingID:  "r",
		DeviceID:   "dev-1",
		SubjectID:  "S1",
		RecordedAt: time.Date(2026, 3, 14, 15, minute, 0, 0, time.UTC),
		Latitude:   lat,
		Longitude:  lng,
	}
}

// runSequence evaluates samples in order, feeding each back as the next
// prior reading.
func runSequence(t *testing.T, eval *Evaluator, prior *fakePriorSource, samples ...models.LocationSample) {
	t.Helper()
	for _, s := range samples {
		s := s
		if err := eval.Evaluate(context.Background(), s); err != nil {
			t.Fatalf("evaluate %v: %v", s.RecordedAt, err)
		}
		prior.last = &s
	}
}

func TestContinuousBreachRaisesOnce(t *testing.T) {
	center := Point{Lat: 40.0, Lng: -73.9}
	store := &fakeZoneStore{zones: []Zone{restrictedCircleZone("gf-1", center, 5000)}}
	prior := &fakePriorSource{}
	sink := &fakeSink{}
	eval := NewEvaluator(store, prior, sink)

	// Five consecutive readings inside the restricted circle.
	runSequence(t, eval, prior,
		sampleAt(40.0, -73.9, 1),
		sampleAt(40.001, -73.901, 2),
		sampleAt(40.002, -73.899, 3),
		sampleAt(40.0, -73.9, 4),
		sampleAt(40.001, -73.9, 5),
	)

	if len(sink.raised) != 1 {
		t.Fatalf("continuous breach must raise exactly once, got %d", len(sink.raised))
	}
	req := sink.raised[0]
	if req.RuleIdentity != "geofence:gf-1" {
		t.Fatalf("unexpected rule identity %q", req.RuleIdentity)
	}
	if req.Type != models.AlertTypeGeofenceBreach {
		t.Fatalf("unexpected alert type %q", req.Type)
	}
	if req.Severity != models.SeverityHigh {
		t.Fatalf("restricted breach should default to high severity, got %q", req.Severity)
	}
}

func TestBreachClearBreachRaisesTwice(t *testing.T) {
	center := Point{Lat: 40.0, Lng: -73.9}
	store := &fakeZoneStore{zones: []Zone{restrictedCircleZone("gf-1", center, 1000)}}
	prior := &fakePriorSource{}
	sink := &fakeSink{}
	eval := NewEvaluator(store, prior, sink)

	runSequence(t, eval, prior,
		sampleAt(40.0, -73.9, 1),  // inside: breach
		sampleAt(41.0, -73.9, 2),  // ~111km away: clear
		sampleAt(40.0, -73.9, 3),  // re-entry: second breach
	)

	if len(sink.raised) != 2 {
		t.Fatalf("breach-clear-breach must raise twice, got %d", len(sink.raised))
	}
}

func TestAllowedZoneExitRaises(t *testing.T) {
	zone := Zone{
		ID:   "gf-allowed",
		Name: "home range",
		Kind: KindAllowed,
		Geometry: polygonGeom(
			Point{Lat: 39.9, Lng: -74.0},
			Point{Lat: 39.9, Lng: -73.8},
			Point{Lat: 40.1, Lng: -73.8},
			Point{Lat: 40.1, Lng: -74.0},
		),
	}
	store := &fakeZoneStore{zones: []Zone{zone}}
	prior := &fakePriorSource{}
	sink := &fakeSink{}
	eval := NewEvaluator(store, prior, sink)

	runSequence(t, eval, prior,
		sampleAt(40.0, -73.9, 1), // inside allowed zone: fine
		sampleAt(40.5, -73.9, 2), // left the zone: breach
		sampleAt(40.6, -73.9, 3), // still out: same episode
	)

	if len(sink.raised) != 1 {
		t.Fatalf("allowed-zone exit must raise once, got %d", len(sink.raised))
	}
	if sink.raised[0].Severity != models.SeverityMedium {
		t.Fatalf("allowed-zone exit defaults to medium severity, got %q", sink.raised[0].Severity)
	}
}

func TestFirstReadingInBreachRaises(t *testing.T) {
	center := Point{Lat: 40.0, Lng: -73.9}
	store := &fakeZoneStore{zones: []Zone{restrictedCircleZone("gf-1", center, 1000)}}
	prior := &fakePriorSource{} // no history
	sink := &fakeSink{}
	eval := NewEvaluator(store, prior, sink)

	if err := eval.Evaluate(context.Background(), sampleAt(40.0, -73.9, 1)); err != nil {
		t.Fatal(err)
	}
	if len(sink.raised) != 1 {
		t.Fatalf("first-ever breaching reading must raise, got %d", len(sink.raised))
	}
}

func TestMultipleZonesEvaluatedIndependently(t *testing.T) {
	center := Point{Lat: 40.0, Lng: -73.9}
	store := &fakeZoneStore{zones: []Zone{
		restrictedCircleZone("gf-1", center, 1000),
		restrictedCircleZone("gf-2", center, 2000),
	}}
	prior := &fakePriorSource{}
	sink := &fakeSink{}
	eval := NewEvaluator(store, prior, sink)

	if err := eval.Evaluate(context.Background(), sampleAt(40.0, -73.9, 1)); err != nil {
		t.Fatal(err)
	}
	if len(sink.raised) != 2 {
		t.Fatalf("each assigned zone raises independently, got %d", len(sink.raised))
	}
	if sink.raised[0].RuleIdentity == sink.raised[1].RuleIdentity {
		t.Fatal("zones must carry distinct rule identities")
	}
}

func TestNoZonesNoAlerts(t *testing.T) {
	store := &fakeZoneStore{}
	prior := &fakePriorSource{}
	sink := &fakeSink{}
	eval := NewEvaluator(store, prior, sink)

	if err := eval.Evaluate(context.Background(), sampleAt(40.0, -73.9, 1)); err != nil {
		t.Fatal(err)
	}
	if len(sink.raised) != 0 {
		t.Fatalf("no assignments must mean no alerts, got %d", len(sink.raised))
	}
}
