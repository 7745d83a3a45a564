package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"contact-intake/api/services"
	"contact-intake/db"
	"contact-intake/pkg/ontology"
	"contact-intake/pkg/shared"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// HealthChecker reports the health of an optional dependency.
type HealthChecker interface {
	HealthCheck() error
}

type Handlers struct {
	intake     *services.IntakeService
	production bool
	logger     logrus.FieldLogger
}

func NewHandlers(intake *services.IntakeService, production bool, logger logrus.FieldLogger) *Handlers {
	return &Handlers{
		intake:     intake,
		production: production,
		logger:     logger,
	}
}

// SubmitContact records one contact from a JSON body.
func (h *Handlers) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req ontology.ContactSubmission
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON body", h.details(err, "invalid_json"))
		return
	}

	result, err := h.intake.Submit(r.Context(), &req)
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			sendError(w, http.StatusBadRequest, validationErr.Error(), "")
			return
		}
		sendError(w, http.StatusInternalServerError, services.DescribeStorageError(err), h.details(err, db.KindOf(err).String()))
		return
	}

	sendJSON(w, http.StatusOK, shared.SuccessResponse{
		Success:        true,
		PersonID:       result.PersonID,
		OrganizationID: result.OrganizationID,
		Message:        result.Message,
	})
}

// details returns the raw error outside production and code otherwise.
func (h *Handlers) details(err error, code string) string {
	if h.production {
		return code
	}
	return err.Error()
}

// Contacts routes by method: POST submits, OPTIONS succeeds with no body.
func (h *Handlers) Contacts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.SubmitContact(w, r)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	}
}

// Health check
func (h *Handlers) HealthCheck(deps map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := shared.HealthStatus{
			Status:    "healthy",
			Service:   shared.ServiceName,
			Timestamp: time.Now(),
			Details:   make(map[string]string),
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.intake.DB().Health(ctx); err != nil {
			health.Status = "unhealthy"
			health.Details["database"] = "unhealthy: " + err.Error()
		} else {
			health.Details["database"] = "healthy"
		}

		for name, dep := range deps {
			if err := dep.HealthCheck(); err != nil {
				health.Status = "unhealthy"
				health.Details[name] = "unhealthy: " + err.Error()
			} else {
				health.Details[name] = "healthy"
			}
		}

		statusCode := http.StatusOK
		if health.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}

		sendJSON(w, statusCode, health)
	}
}

// Helper functions
func sendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, statusCode int, message, details string) {
	sendJSON(w, statusCode, shared.ErrorResponse{
		Error:   message,
		Details: details,
	})
}

// RegisterRoutes sets up all API routes
func (h *Handlers) RegisterRoutes(mux *http.ServeMux, metricsPath string, deps map[string]HealthChecker) {
	mux.HandleFunc("/health", h.HealthCheck(deps))
	mux.Handle(metricsPath, promhttp.Handler())

	mux.HandleFunc("/api/v1/contacts", h.Contacts)
	mux.HandleFunc("/", h.Contacts)
}
