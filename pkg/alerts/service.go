package alerts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/veritrack/platform/pkg/common/logger"
	"github.com/veritrack/platform/pkg/common/models"
	"github.com/veritrack/platform/pkg/observability/metrics"
	"gorm.io/datatypes"
)

var (
	ErrNotFound          = errors.New("alert not found")
	ErrInvalidTransition = errors.New("invalid alert status transition")
	ErrMissingActor      = errors.New("acting user required")
)

// Store is the persistence surface for the alert lifecycle.
type Store interface {
	InsertIfNoOpen(ctx context.Context, alert *Alert) (bool, error)
	Get(ctx context.Context, id string) (*Alert, error)
	Transition(ctx context.Context, id string, fromStatuses []string, updates map[string]interface{}) (int64, error)
	List(ctx context.Context, f Filter) ([]Alert, error)
}

// Publisher pushes lifecycle events to the bus for downstream notification
// consumers. Best effort; never blocks lifecycle semantics.
type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

type Service struct {
	store     Store
	publisher Publisher
}

// NewService builds the alert manager. publisher may be nil.
func NewService(store Store, publisher Publisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// Raise creates a new alert for the request's rule identity, unless an open
// alert already covers it, in which case it reports false. The dedup check is
// the insert itself, so concurrent raises for one subject cannot both win.
func (s *Service) Raise(ctx context.Context, req models.AlertRequest) (bool, error) {
	alert := &Alert{
		ID:           uuid.New().String(),
		SubjectID:    req.SubjectID,
		DeviceID:     req.DeviceID,
		RuleIdentity: req.RuleIdentity,
		Type:         req.Type,
		Severity:     req.Severity,
		Message:      req.Message,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Status:       models.AlertStatusNew,
		CreatedAt:    time.Now().UTC(),
	}
	if req.Detail != nil {
		alert.Detail = datatypes.JSONMap(req.Detail)
	}
	if req.Reading != nil {
		alert.ReadingKind = req.Reading.Kind
		alert.ReadingID = req.Reading.ID
	}

	created, err := s.store.InsertIfNoOpen(ctx, alert)
	if err != nil {
		return false, err
	}
	if created {
		metrics.ObserveAlertRaised()
		s.publish(ctx, "alert.created", alert)
	} else {
		metrics.ObserveAlertSuppressed()
	}
	return created, nil
}

// Acknowledge transitions new → acknowledged.
func (s *Service) Acknowledge(ctx context.Context, id, actor string) (*Alert, error) {
	now := time.Now().UTC()
	return s.transition(ctx, id, actor, "alert.acknowledged",
		[]string{models.AlertStatusNew},
		map[string]interface{}{
			"status":          models.AlertStatusAcknowledged,
			"acknowledged_at": now,
			"acknowledged_by": actor,
		})
}

// Resolve transitions new/acknowledged → resolved.
func (s *Service) Resolve(ctx context.Context, id, actor string) (*Alert, error) {
	now := time.Now().UTC()
	return s.transition(ctx, id, actor, "alert.resolved",
		[]string{models.AlertStatusNew, models.AlertStatusAcknowledged},
		map[string]interface{}{
			"status":      models.AlertStatusResolved,
			"resolved_at": now,
			"resolved_by": actor,
		})
}

// MarkFalseAlarm transitions new/acknowledged → false_alarm.
func (s *Service) MarkFalseAlarm(ctx context.Context, id, actor string) (*Alert, error) {
	now := time.Now().UTC()
	return s.transition(ctx, id, actor, "alert.false_alarm",
		[]string{models.AlertStatusNew, models.AlertStatusAcknowledged},
		map[string]interface{}{
			"status":      models.AlertStatusFalseAlarm,
			"resolved_at": now,
			"resolved_by": actor,
		})
}

func (s *Service) Get(ctx context.Context, id string) (*Alert, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Alert, error) {
	return s.store.List(ctx, f)
}

func (s *Service) transition(ctx context.Context, id, actor, eventType string, from []string, updates map[string]interface{}) (*Alert, error) {
	if actor == "" {
		return nil, ErrMissingActor
	}

	rows, err := s.store.Transition(ctx, id, from, updates)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// Either the alert does not exist or its status disallows the move.
		if _, err := s.store.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidTransition
	}

	alert, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, eventType, alert)
	return alert, nil
}

func (s *Service) publish(ctx context.Context, eventType string, alert *Alert) {
	if s.publisher == nil {
		return
	}
	data := map[string]interface{}{
		"alert_id":      alert.ID,
		"subject_id":    alert.SubjectID,
		"device_id":     alert.DeviceID,
		"rule_identity": alert.RuleIdentity,
		"type":          alert.Type,
		"severity":      alert.Severity,
		"status":        alert.Status,
		"message":       alert.Message,
	}
	if err := s.publisher.PublishEvent(ctx, eventType, "telemetry-core", data); err != nil {
		logger.Log.WithError(err).WithField("alert_id", alert.ID).Warn("failed to publish alert event")
	}
}
