package threshold

import (
	"context"
	"fmt"
	"sort"

	"github.com/veritrack/platform/pkg/common/logger"
	"github.com/veritrack/platform/pkg/common/models"
)

// Store looks up the effective bound pair for a (subject, metric).
type Store interface {
	ForSubject(ctx context.Context, subjectID, metric string) (*Threshold, error)
}

type AlertSink interface {
	Raise(ctx context.Context, req models.AlertRequest) (bool, error)
}

// Evaluator compares each present metric against its configured bounds. Each
// metric carries its own rule identity, so one reading can raise several
// distinct alerts. Episode dedup is entirely the alert manager's open-alert
// uniqueness; the evaluator fires on every violating reading.
type Evaluator struct {
	store Store
	sink  AlertSink
}

func NewEvaluator(store Store, sink AlertSink) *Evaluator {
	return &Evaluator{store: store, sink: sink}
}

func (e *Evaluator) Evaluate(ctx context.Context, sample models.BiometricSample) error {
	present := sample.Metrics()
	if len(present) == 0 {
		return nil
	}

	// Stable order keeps logs and multi-metric failures deterministic.
	names := make([]string, 0, len(present))
	for name := range present {
		names = append(names, name)
	}
	sort.Strings(names)

	var firstErr error
	for _, metric := range names {
		value := present[metric]

		th, err := e.store.ForSubject(ctx, sample.SubjectID, metric)
		if err != nil {
			logger.Log.WithError(err).WithField("metric", metric).Error("failed to load threshold")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if th == nil {
			continue
		}

		// Strict comparison: the bounds themselves are healthy values.
		if value >= th.Low && value <= th.High {
			continue
		}

		created, err := e.sink.Raise(ctx, e.request(sample, metric, value, th))
		if err != nil {
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"subject_id": sample.SubjectID,
				"metric":     metric,
			}).Error("failed to raise threshold alert")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !created {
			logger.Log.WithFields(map[string]interface{}{
				"subject_id": sample.SubjectID,
				"metric":     metric,
			}).Debug("open alert already covers threshold violation")
		}
	}
	return firstErr
}

func (e *Evaluator) request(sample models.BiometricSample, metric string, value float64, th *Threshold) models.AlertRequest {
	direction := "above high bound"
	bound := th.High
	if value < th.Low {
		direction = "below low bound"
		bound = th.Low
	}

	severity := th.Severity
	if severity == "" {
		severity = models.SeverityMedium
	}

	return models.AlertRequest{
		SubjectID:    sample.SubjectID,
		DeviceID:     sample.DeviceID,
		RuleIdentity: fmt.Sprintf("threshold:%s:%s", metric, th.ID),
		Type:         models.AlertTypeThresholdViolation,
		Severity:     severity,
		Message:      fmt.Sprintf("%s %.1f %s %.1f", metric, value, direction, bound),
		Detail: map[string]interface{}{
			"metric":       metric,
			"value":        value,
			"low":          th.Low,
			"high":         th.High,
			"threshold_id": th.ID,
		},
		Reading: &models.ReadingRef{
			Kind: models.ReadingKindBiometric,
			ID:   sample.ReadingID,
		},
	}
}
