package ingestion

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/veritrack/platform/pkg/common/logger"
	"github.com/veritrack/platform/pkg/common/models"
	"github.com/veritrack/platform/pkg/registry"
	"gorm.io/datatypes"
)

var (
	ErrUnauthorized = errors.New("unauthorized device credential")
	ErrEmptyBatch   = errors.New("empty batch")
)

// Per-entry outcomes.
const (
	EntryAccepted  = "accepted"
	EntryDuplicate = "duplicate"
	EntryFailed    = "failed"
)

// Batch outcomes.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

type EntryResult struct {
	Index     int               `json:"index"`
	Status    string            `json:"status"`
	ReadingID string            `json:"reading_id,omitempty"`
	Error     string            `json:"error,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	EvalError string            `json:"evaluation_error,omitempty"`
}

type SubmitResult struct {
	Accepted   int           `json:"accepted"`
	Duplicates int           `json:"duplicates"`
	Failed     int           `json:"failed"`
	Entries    []EntryResult `json:"entries"`
}

// Outcome collapses per-entry results into the batch-level status. Duplicates
// count as successes: the reading is durably stored either way.
func (r *SubmitResult) Outcome() string {
	succeeded := r.Accepted + r.Duplicates
	switch {
	case succeeded > 0 && r.Failed == 0:
		return OutcomeSuccess
	case succeeded > 0:
		return OutcomePartial
	default:
		return OutcomeFailed
	}
}

// DeviceResolver is the registry surface the gateway consumes.
type DeviceResolver interface {
	ResolveEligible(ctx context.Context, eui string) (*registry.Device, error)
	TouchLastSeen(ctx context.Context, deviceID string, at time.Time) error
}

// Store persists readings with dedup-aware inserts.
type Store interface {
	InsertLocation(ctx context.Context, rec *LocationReading) (bool, error)
	InsertBiometric(ctx context.Context, rec *BiometricReading) (bool, error)
}

type LocationEvaluator interface {
	Evaluate(ctx context.Context, sample models.LocationSample) error
}

type BiometricEvaluator interface {
	Evaluate(ctx context.Context, sample models.BiometricSample) error
}

type Service struct {
	secret         string
	validator      *Validator
	devices        DeviceResolver
	store          Store
	locations      LocationEvaluator
	biometrics     BiometricEvaluator
	locker         SubjectLocker
	storageTimeout time.Duration
}

func NewService(secret string, validator *Validator, devices DeviceResolver, store Store,
	locations LocationEvaluator, biometrics BiometricEvaluator, locker SubjectLocker,
	storageTimeout time.Duration) *Service {
	return &Service{
		secret:         secret,
		validator:      validator,
		devices:        devices,
		store:          store,
		locations:      locations,
		biometrics:     biometrics,
		locker:         locker,
		storageTimeout: storageTimeout,
	}
}

func (s *Service) authorize(secret string) error {
	if s.secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// SubmitLocations ingests a batch of GPS fixes. All validation happens before
// any write; write and evaluation failures are isolated per entry.
func (s *Service) SubmitLocations(ctx context.Context, secret string, entries []LocationEntry) (*SubmitResult, error) {
	if err := s.authorize(secret); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyBatch
	}

	res := &SubmitResult{Entries: make([]EntryResult, len(entries))}
	timestamps := make([]time.Time, len(entries))

	for i, e := range entries {
		res.Entries[i] = EntryResult{Index: i}
		ts, err := s.validator.ValidateLocation(e)
		if err != nil {
			s.failEntry(res, i, "validation failed", fieldsOf(err))
			continue
		}
		timestamps[i] = ts
	}

	for i, e := range entries {
		if res.Entries[i].Status == EntryFailed {
			continue
		}

		rec := &LocationReading{
			ID:         uuid.New().String(),
			RecordedAt: timestamps[i],
			Latitude:   *e.Latitude,
			Longitude:  *e.Longitude,
			Accuracy:   e.Accuracy,
			Speed:      e.Speed,
			Altitude:   e.Altitude,
		}

		s.processEntry(ctx, res, i, e.DeviceEUI, rec.RecordedAt,
			func(ctx context.Context, dev *registry.Device) (string, string, bool, error) {
				rec.DeviceID = dev.ID
				rec.SubjectID = *dev.SubjectID
				inserted, err := s.store.InsertLocation(ctx, rec)
				return rec.ID, rec.SubjectID, inserted, err
			},
			func(ctx context.Context) error {
				return s.locations.Evaluate(ctx, rec.Sample())
			})
	}

	return res, nil
}

// SubmitBiometrics ingests a batch of biometric readings with the same batch
// semantics as SubmitLocations.
func (s *Service) SubmitBiometrics(ctx context.Context, secret string, entries []BiometricEntry) (*SubmitResult, error) {
	if err := s.authorize(secret); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyBatch
	}

	res := &SubmitResult{Entries: make([]EntryResult, len(entries))}
	timestamps := make([]time.Time, len(entries))

	for i, e := range entries {
		res.Entries[i] = EntryResult{Index: i}
		ts, err := s.validator.ValidateBiometric(e)
		if err != nil {
			s.failEntry(res, i, "validation failed", fieldsOf(err))
			continue
		}
		timestamps[i] = ts
	}

	for i, e := range entries {
		if res.Entries[i].Status == EntryFailed {
			continue
		}

		rec := &BiometricReading{
			ID:          uuid.New().String(),
			RecordedAt:  timestamps[i],
			HeartRate:   e.HeartRate,
			Temperature: e.Temperature,
			Systolic:    e.Systolic,
			Diastolic:   e.Diastolic,
			Stress:      e.Stress,
			Activity:    e.Activity,
		}
		if e.Raw != nil {
			rec.Raw = datatypes.JSONMap(e.Raw)
		}

		s.processEntry(ctx, res, i, e.DeviceEUI, rec.RecordedAt,
			func(ctx context.Context, dev *registry.Device) (string, string, bool, error) {
				rec.DeviceID = dev.ID
				rec.SubjectID = *dev.SubjectID
				inserted, err := s.store.InsertBiometric(ctx, rec)
				return rec.ID, rec.SubjectID, inserted, err
			},
			func(ctx context.Context) error {
				return s.biometrics.Evaluate(ctx, rec.Sample())
			})
	}

	return res, nil
}

// processEntry runs the shared resolve → insert → evaluate path for one valid
// entry. Evaluation runs under the per-subject lock; an evaluation failure is
// surfaced on the entry but never rolls back the stored reading.
func (s *Service) processEntry(ctx context.Context, res *SubmitResult, i int, eui string, recordedAt time.Time,
	insert func(ctx context.Context, dev *registry.Device) (readingID, subjectID string, inserted bool, err error),
	evaluate func(ctx context.Context) error) {

	tctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	dev, err := s.devices.ResolveEligible(tctx, eui)
	if err != nil {
		s.failEntry(res, i, err.Error(), nil)
		return
	}

	readingID, subjectID, inserted, err := insert(tctx, dev)
	if err != nil {
		logger.Log.WithError(err).WithField("device_eui", eui).Error("failed to persist reading")
		s.failEntry(res, i, "storage failure", nil)
		return
	}

	if err := s.devices.TouchLastSeen(tctx, dev.ID, recordedAt); err != nil {
		logger.Log.WithError(err).WithField("device_id", dev.ID).Warn("failed to update device last seen")
	}

	if !inserted {
		// Idempotent retry: reading already stored, evaluation already ran.
		res.Entries[i].Status = EntryDuplicate
		res.Duplicates++
		return
	}

	res.Entries[i].Status = EntryAccepted
	res.Entries[i].ReadingID = readingID
	res.Accepted++

	evalErr := s.locker.WithLock(ctx, subjectID, evaluate)
	if evalErr != nil {
		logger.Log.WithError(evalErr).WithFields(map[string]interface{}{
			"reading_id": readingID,
			"subject_id": subjectID,
		}).Error("evaluation failed for stored reading")
		res.Entries[i].EvalError = evalErr.Error()
	}
}

func (s *Service) failEntry(res *SubmitResult, i int, msg string, fields map[string]string) {
	res.Entries[i].Status = EntryFailed
	res.Entries[i].Error = msg
	res.Entries[i].Fields = fields
	res.Failed++
}

func fieldsOf(err error) map[string]string {
	var ve ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
