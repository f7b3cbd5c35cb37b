package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medrec/internal/patient/models"
	"medrec/internal/patient/store"
	"medrec/internal/platform/metrics"
	domainerrors "medrec/pkg/domain-errors"
)

// fakeStore records the last call per operation; behavior is canned.
type fakeStore struct {
	created   []models.Patient
	updated   []models.Patient
	createErr error
	getResult *models.StoredPatient
	searched  map[string]string
	deleted   string
	removeOK  bool
}

func (f *fakeStore) Create(_ context.Context, p models.Patient) (models.StoredPatient, error) {
	if f.createErr != nil {
		return models.StoredPatient{}, f.createErr
	}
	f.created = append(f.created, p)
	return models.StoredPatient{Patient: p, CreatedAt: time.Now()}, nil
}

func (f *fakeStore) Update(_ context.Context, p models.Patient) (models.StoredPatient, error) {
	f.updated = append(f.updated, p)
	return models.StoredPatient{Patient: p, CreatedAt: time.Now()}, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (models.StoredPatient, bool, error) {
	if f.getResult == nil {
		return models.StoredPatient{}, false, nil
	}
	return *f.getResult, true, nil
}

func (f *fakeStore) Search(_ context.Context, filters map[string]string) ([]models.StoredPatient, error) {
	f.searched = filters
	return []models.StoredPatient{}, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) (bool, error) {
	f.deleted = id
	return f.removeOK, nil
}

func (f *fakeStore) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeStore) Close() error { return nil }

var _ store.Store = (*fakeStore)(nil)

func newTestService(st store.Store) (*Service, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(st, logger, m), m
}

func TestCreateRunsCodecAndStore(t *testing.T) {
	st := &fakeStore{}
	svc, m := newTestService(st)

	stored, err := svc.Create(context.Background(), models.PatientInput{
		Firstname: "Dorian",
		Lastname:  "Quell",
		Gender:    "Male",
		Birthdate: "1990-12-10",
	})
	require.NoError(t, err)

	require.Len(t, st.created, 1)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, models.GenderMale, stored.Gender)
	assert.NotEmpty(t, stored.Document)
	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.PatientsCreated))
}

func TestCreateMapsCodecFailureToBadRequest(t *testing.T) {
	svc, m := newTestService(&fakeStore{})

	_, err := svc.Create(context.Background(), models.PatientInput{Birthdate: "not-a-date"})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.CodeBadRequest))
	assert.Zero(t, promtestutil.ToFloat64(m.PatientsCreated))
}

func TestCreatePropagatesStoreErrors(t *testing.T) {
	st := &fakeStore{createErr: store.ErrIneligibleAge}
	svc, m := newTestService(st)

	_, err := svc.Create(context.Background(), models.PatientInput{Birthdate: "2020-01-01"})
	require.ErrorIs(t, err, store.ErrIneligibleAge)
	assert.Zero(t, promtestutil.ToFloat64(m.PatientsCreated))
}

func TestUpdateAssignsFreshID(t *testing.T) {
	st := &fakeStore{}
	svc, _ := newTestService(st)
	input := models.PatientInput{Firstname: "D", Lastname: "Q", Gender: "male", Birthdate: "1990-12-10"}

	first, err := svc.Update(context.Background(), input)
	require.NoError(t, err)
	second, err := svc.Update(context.Background(), input)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, st.updated, 2)
}

func TestSearchPassesFiltersThrough(t *testing.T) {
	st := &fakeStore{}
	svc, m := newTestService(st)

	filters := map[string]string{"gender": "male", "bogus": "kept-for-store-to-drop"}
	_, err := svc.Search(context.Background(), filters)
	require.NoError(t, err)

	assert.Equal(t, filters, st.searched, "whitelisting is the store's job, not the service's")
	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.Searches))
}

func TestDeleteCountsOnlyActualRemovals(t *testing.T) {
	st := &fakeStore{removeOK: false}
	svc, m := newTestService(st)

	removed, err := svc.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Zero(t, promtestutil.ToFloat64(m.PatientsDeleted))

	st.removeOK = true
	removed, err = svc.Delete(context.Background(), "present")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.PatientsDeleted))
}
