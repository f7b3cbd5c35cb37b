// Package service glues the resource codec to the record store and keeps
// transport concerns out of both.
package service

import (
	"context"
	"log/slog"
	"time"

	"medrec/internal/patient/fhir"
	"medrec/internal/patient/models"
	"medrec/internal/patient/store"
	"medrec/internal/platform/metrics"
	domainerrors "medrec/pkg/domain-errors"
)

// Service implements the patient operations exposed over HTTP.
type Service struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New builds the patient service on top of a record store.
func New(st store.Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: st, logger: logger, metrics: m, now: time.Now}
}

// Create runs the input through the codec and admits the record. The
// returned record carries the store-assigned id and creation time.
func (s *Service) Create(ctx context.Context, input models.PatientInput) (models.StoredPatient, error) {
	patient, err := fhir.NewPatient(input, s.now())
	if err != nil {
		return models.StoredPatient{}, domainerrors.Wrap(domainerrors.CodeBadRequest, "invalid patient input", err)
	}

	stored, err := s.store.Create(ctx, patient)
	if err != nil {
		return models.StoredPatient{}, err
	}

	s.metrics.PatientsCreated.Inc()
	s.logger.InfoContext(ctx, "patient created", "id", stored.ID)
	return stored, nil
}

// Update replaces all records matching the input's demographic identity
// with a single fresh record. The record's id changes on every update.
func (s *Service) Update(ctx context.Context, input models.PatientInput) (models.StoredPatient, error) {
	patient, err := fhir.NewPatient(input, s.now())
	if err != nil {
		return models.StoredPatient{}, domainerrors.Wrap(domainerrors.CodeBadRequest, "invalid patient input", err)
	}

	stored, err := s.store.Update(ctx, patient)
	if err != nil {
		return models.StoredPatient{}, err
	}

	s.logger.InfoContext(ctx, "patient updated", "id", stored.ID)
	return stored, nil
}

// Get returns the stored record for id, reporting absence as data.
func (s *Service) Get(ctx context.Context, id string) (models.StoredPatient, bool, error) {
	return s.store.Get(ctx, id)
}

// Search runs a best-effort filtered search. Whitelisting of filter keys
// is the store's job; the raw map passes straight through.
func (s *Service) Search(ctx context.Context, filters map[string]string) ([]models.StoredPatient, error) {
	results, err := s.store.Search(ctx, filters)
	if err != nil {
		return nil, err
	}
	s.metrics.Searches.Inc()
	return results, nil
}

// Delete removes the record with the given id, reporting whether a
// record actually went away.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		s.metrics.PatientsDeleted.Inc()
		s.logger.InfoContext(ctx, "patient deleted", "id", id)
	}
	return removed, nil
}
