package threshold

import (
	"context"
	"testing"
	"time"

	"github.com/veritrack/platform/pkg/common/models"
)

type fakeThresholdStore struct {
	bySubject map[string]map[string]*Threshold
	global    map[string]*Threshold
}

func (f *fakeThresholdStore) ForSubject(ctx context.Context, subjectID, metric string) (*Threshold, error) {
	if rules, ok := f.bySubject[subjectID]; ok {
		if th, ok := rules[metric]; ok {
			return th, nil
		}
	}
	return f.global[metric], nil
}

// dedupSink mirrors the alert manager's open-alert uniqueness: a raise for a
// rule identity with an open episode reports created=false.
type dedupSink struct {
	open    map[string]bool
	created int
	raises  []models.AlertRequest
}

func newDedupSink() *dedupSink {
	return &dedupSink{open: map[string]bool{}}
}

func (s *dedupSink) Raise(ctx context.Context, req models.AlertRequest) (bool, error) {
	s.raises = append(s.raises, req)
	key := req.SubjectID + "|" + req.RuleIdentity
	if s.open[key] {
		return false, nil
	}
	s.open[key] = true
	s.created++
	return true, nil
}

func (s *dedupSink) resolveAll() {
	s.open = map[string]bool{}
}

func hrSample(subject string, hr float64) models.BiometricSample {
	v := hr
	return models.BiometricSample{
		ReadingID:  "r",
		DeviceID:   "dev-1",
		SubjectID:  subject,
		RecordedAt: time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC),
		HeartRate:  &v,
	}
}

func globalHeartRate() *fakeThresholdStore {
	return &fakeThresholdStore{
		global: map[string]*Threshold{
			"heart_rate": {ID: "th-hr", Metric: "heart_rate", Low: 60, High: 100, Severity: models.SeverityHigh},
		},
	}
}

func TestRepeatedViolationsOneOpenAlert(t *testing.T) {
	sink := newDedupSink()
	eval := NewEvaluator(globalHeartRate(), sink)

	for _, hr := range []float64{59, 58, 101} {
		if err := eval.Evaluate(context.Background(), hrSample("S1", hr)); err != nil {
			t.Fatal(err)
		}
	}

	if sink.created != 1 {
		t.Fatalf("expected exactly 1 open alert across 59/58/101, got %d", sink.created)
	}
}

func TestRefiresAfterResolution(t *testing.T) {
	sink := newDedupSink()
	eval := NewEvaluator(globalHeartRate(), sink)

	if err := eval.Evaluate(context.Background(), hrSample("S1", 120)); err != nil {
		t.Fatal(err)
	}
	sink.resolveAll()
	if err := eval.Evaluate(context.Background(), hrSample("S1", 130)); err != nil {
		t.Fatal(err)
	}

	if sink.created != 2 {
		t.Fatalf("rule must fire again after resolution, got %d", sink.created)
	}
}

func TestBoundsAreInclusiveHealthyValues(t *testing.T) {
	sink := newDedupSink()
	eval := NewEvaluator(globalHeartRate(), sink)

	for _, hr := range []float64{60, 100, 80} {
		if err := eval.Evaluate(context.Background(), hrSample("S1", hr)); err != nil {
			t.Fatal(err)
		}
	}
	if len(sink.raises) != 0 {
		t.Fatalf("values on or inside the bounds must not raise, got %d", len(sink.raises))
	}
}

func TestSubjectOverrideBeatsGlobal(t *testing.T) {
	store := globalHeartRate()
	store.bySubject = map[string]map[string]*Threshold{
		"S1": {"heart_rate": {ID: "th-s1", Metric: "heart_rate", Low: 50, High: 160, Severity: models.SeverityLow}},
	}
	sink := newDedupSink()
	eval := NewEvaluator(store, sink)

	// 120 violates the global default but not this subject's override.
	if err := eval.Evaluate(context.Background(), hrSample("S1", 120)); err != nil {
		t.Fatal(err)
	}
	if len(sink.raises) != 0 {
		t.Fatalf("per-subject override must win, got %d raises", len(sink.raises))
	}

	// Another subject still falls back to the global default.
	if err := eval.Evaluate(context.Background(), hrSample("S2", 120)); err != nil {
		t.Fatal(err)
	}
	if sink.created != 1 {
		t.Fatalf("global fallback must apply for other subjects, got %d", sink.created)
	}
}

func TestMultipleMetricsRaiseIndependently(t *testing.T) {
	hr, temp := 130.0, 35.0
	store := &fakeThresholdStore{
		global: map[string]*Threshold{
			"heart_rate":  {ID: "th-hr", Metric: "heart_rate", Low: 60, High: 100},
			"temperature": {ID: "th-temp", Metric: "temperature", Low: 36.0, High: 37.8},
		},
	}
	sink := newDedupSink()
	eval := NewEvaluator(store, sink)

	sample := models.BiometricSample{
		ReadingID:   "r",
		DeviceID:    "dev-1",
		SubjectID:   "S1",
		RecordedAt:  time.Now().UTC(),
		HeartRate:   &hr,
		Temperature: &temp,
	}
	if err := eval.Evaluate(context.Background(), sample); err != nil {
		t.Fatal(err)
	}

	if sink.created != 2 {
		t.Fatalf("high heart rate and low temperature must raise separately, got %d", sink.created)
	}
	if sink.raises[0].RuleIdentity == sink.raises[1].RuleIdentity {
		t.Fatal("metrics must carry distinct rule identities")
	}
}

func TestMissingMetricsSkipped(t *testing.T) {
	sink := newDedupSink()
	eval := NewEvaluator(globalHeartRate(), sink)

	sample := models.BiometricSample{
		ReadingID:  "r",
		DeviceID:   "dev-1",
		SubjectID:  "S1",
		RecordedAt: time.Now().UTC(),
		Activity:   "resting",
	}
	if err := eval.Evaluate(context.Background(), sample); err != nil {
		t.Fatal(err)
	}
	if len(sink.raises) != 0 {
		t.Fatalf("missing metrics are not violations, got %d raises", len(sink.raises))
	}
}

func TestUnconfiguredMetricSkipped(t *testing.T) {
	store := &fakeThresholdStore{global: map[string]*Threshold{}}
	sink := newDedupSink()
	eval := NewEvaluator(store, sink)

	if err := eval.Evaluate(context.Background(), hrSample("S1", 250)); err != nil {
		t.Fatal(err)
	}
	if len(sink.raises) != 0 {
		t.Fatalf("metric without a rule must be skipped, got %d raises", len(sink.raises))
	}
}
