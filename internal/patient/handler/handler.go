// Package handler is the thin HTTP layer over the patient service. It
// parses requests, validates shape, and maps domain error codes to
// status codes; business rules live below it.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"medrec/internal/patient/fhir"
	"medrec/internal/patient/models"
	"medrec/internal/platform/middleware"
	domainerrors "medrec/pkg/domain-errors"
)

// Service defines the patient operations the handler depends on.
type Service interface {
	Create(ctx context.Context, input models.PatientInput) (models.StoredPatient, error)
	Update(ctx context.Context, input models.PatientInput) (models.StoredPatient, error)
	Get(ctx context.Context, id string) (models.StoredPatient, bool, error)
	Search(ctx context.Context, filters map[string]string) ([]models.StoredPatient, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Handler handles the patient endpoints.
type Handler struct {
	logger   *slog.Logger
	patients Service
}

// New creates a patient Handler.
func New(patients Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, patients: patients}
}

// Register mounts the patient routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/patients", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Post("/", h.handleCreate)
		r.Put("/", h.handleUpdate)
		r.Get("/", h.handleSearch)
		r.Get("/{id}", h.handleGet)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	stored, err := h.patients.Create(r.Context(), input)
	if err != nil {
		h.logError(r, "create patient", err)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(stored.Document))
}

// handleUpdate replaces every record matching the input's demographics
// with one fresh record. The returned resource carries a new id.
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	stored, err := h.patients.Update(r.Context(), input)
	if err != nil {
		h.logError(r, "update patient", err)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(stored.Document))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	stored, found, err := h.patients.Get(r.Context(), id)
	if err != nil {
		h.logError(r, "get patient", err)
		writeError(w, err)
		return
	}
	if !found {
		writeError(w, domainerrors.New(domainerrors.CodeNotFound, "patient not found"))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(stored.Document))
}

// handleSearch treats every query parameter as a candidate filter. The
// store drops unrecognized keys, so no validation happens here beyond
// picking the first value per key.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	filters := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}

	results, err := h.patients.Search(r.Context(), filters)
	if err != nil {
		h.logError(r, "search patients", err)
		writeError(w, err)
		return
	}

	documents := make([]json.RawMessage, 0, len(results))
	for _, stored := range results {
		documents = append(documents, json.RawMessage(stored.Document))
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(documents)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	removed, err := h.patients.Delete(r.Context(), id)
	if err != nil {
		h.logError(r, "delete patient", err)
		writeError(w, err)
		return
	}
	if !removed {
		writeError(w, domainerrors.New(domainerrors.CodeNotFound, "patient not found"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (models.PatientInput, bool) {
	var input models.PatientInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return models.PatientInput{}, false
	}
	if err := validatePatientInput(input); err != nil {
		writeError(w, err)
		return models.PatientInput{}, false
	}
	return input, true
}

func (h *Handler) logError(r *http.Request, op string, err error) {
	h.logger.WarnContext(r.Context(), op+" failed",
		"request_id", middleware.GetRequestID(r.Context()),
		"error", err.Error(),
	)
}

// validatePatientInput checks request shape only. Whether the patient is
// admissible (the age rule) is the store's decision.
func validatePatientInput(input models.PatientInput) error {
	if !govalidator.StringLength(input.Firstname, "0", "255") {
		return domainerrors.New(domainerrors.CodeBadRequest, "firstname too long")
	}
	if !govalidator.StringLength(input.Lastname, "0", "255") {
		return domainerrors.New(domainerrors.CodeBadRequest, "lastname too long")
	}
	if input.Birthdate != "" && !govalidator.IsTime(input.Birthdate, fhir.DateLayout) {
		return domainerrors.New(domainerrors.CodeBadRequest, "birthdate must be YYYY-MM-DD")
	}
	return nil
}

// writeError centralizes domain error translation to HTTP responses so
// every handler emits the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := domainerrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(domainerrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": string(code),
	})
}
