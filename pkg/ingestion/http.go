package ingestion

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/veritrack/platform/pkg/common/logger"
	"github.com/veritrack/platform/pkg/observability/metrics"
)

const deviceSecretHeader = "X-Device-Secret"

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/telemetry/location", h.handleLocation).Methods(http.MethodPost)
	router.HandleFunc("/telemetry/biometric", h.handleBiometric).Methods(http.MethodPost)
}

type submitResponse struct {
	Status     string        `json:"status"`
	Accepted   int           `json:"accepted"`
	Duplicates int           `json:"duplicates"`
	Failed     int           `json:"failed"`
	Entries    []EntryResult `json:"entries"`
}

func (h *HTTPHandler) handleLocation(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	entries, err := decodeBatch[LocationEntry](body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.service.SubmitLocations(r.Context(), r.Header.Get(deviceSecretHeader), entries)
	h.respond(w, res, err)
}

func (h *HTTPHandler) handleBiometric(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	entries, err := decodeBatch[BiometricEntry](body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.service.SubmitBiometrics(r.Context(), r.Header.Get(deviceSecretHeader), entries)
	h.respond(w, res, err)
}

// readBody drains the request body; the size cap is enforced upstream by the
// body-limit middleware.
func (h *HTTPHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "unreadable request body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func (h *HTTPHandler) respond(w http.ResponseWriter, res *SubmitResult, err error) {
	if err != nil {
		switch {
		case errors.Is(err, ErrUnauthorized):
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		case errors.Is(err, ErrEmptyBatch):
			http.Error(w, "empty batch", http.StatusBadRequest)
		default:
			logger.Log.WithError(err).Error("failed to process telemetry batch")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	metrics.ObserveBatch(res.Accepted, res.Duplicates, res.Failed)

	status := http.StatusCreated
	switch res.Outcome() {
	case OutcomePartial:
		status = http.StatusMultiStatus
	case OutcomeFailed:
		status = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(submitResponse{
		Status:     res.Outcome(),
		Accepted:   res.Accepted,
		Duplicates: res.Duplicates,
		Failed:     res.Failed,
		Entries:    res.Entries,
	})
}
