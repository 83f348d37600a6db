package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/veritrack/platform/pkg/common/logger"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/alerts", h.handleList).Methods(http.MethodGet)
	router.HandleFunc("/alerts/{id}", h.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/alerts/{id}/acknowledge", h.action(h.service.Acknowledge)).Methods(http.MethodPost)
	router.HandleFunc("/alerts/{id}/resolve", h.action(h.service.Resolve)).Methods(http.MethodPost)
	router.HandleFunc("/alerts/{id}/false-alarm", h.action(h.service.MarkFalseAlarm)).Methods(http.MethodPost)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		SubjectID: q.Get("subject_id"),
		Status:    q.Get("status"),
		Severity:  q.Get("severity"),
	}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Limit = n
		}
	}

	items, err := h.service.List(r.Context(), filter)
	if err != nil {
		logger.Log.WithError(err).Error("failed to list alerts")
		http.Error(w, "failed to fetch alerts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count": len(items),
		"items": items,
	})
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	alert, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "alert not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to fetch alert")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(alert)
}

type actionRequest struct {
	ActingUser string `json:"acting_user"`
}

// action wraps one lifecycle transition as a handler. The acting user comes
// from the request body, falling back to the X-Acting-User header.
func (h *HTTPHandler) action(fn func(ctx context.Context, id, actor string) (*Alert, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var req actionRequest
		if r.Body != nil {
			// A missing or empty body is fine; the header may carry the actor.
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		actor := req.ActingUser
		if actor == "" {
			actor = r.Header.Get("X-Acting-User")
		}

		alert, err := fn(r.Context(), id, actor)
		if err != nil {
			switch {
			case errors.Is(err, ErrMissingActor):
				http.Error(w, "acting_user required", http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "alert not found", http.StatusNotFound)
			case errors.Is(err, ErrInvalidTransition):
				http.Error(w, "invalid status transition", http.StatusConflict)
			default:
				logger.Log.WithError(err).Error("alert transition failed")
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(alert)
	}
}
