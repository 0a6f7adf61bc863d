package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/careloop/careops-dashboard/internal/domain/entities"
	"github.com/careloop/careops-dashboard/internal/domain/providers"
	"github.com/careloop/careops-dashboard/internal/domain/repositories"
	"github.com/careloop/careops-dashboard/internal/infrastructure/observability"
	apperrors "github.com/careloop/careops-dashboard/pkg/errors"
)

type stubPatientRepo struct {
	mu       sync.Mutex
	patients map[string]*entities.Patient
	updated  []*entities.Patient
	created  []*entities.Patient
	deleted  []string
}

func newStubPatientRepo(patients ...*entities.Patient) *stubPatientRepo {
	repo := &stubPatientRepo{patients: map[string]*entities.Patient{}}
	for _, p := range patients {
		repo.patients[p.ID] = p
	}
	return repo
}

func (s *stubPatientRepo) Create(ctx context.Context, patient *entities.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, patient)
	s.patients[patient.ID] = patient
	return nil
}

func (s *stubPatientRepo) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	patient, ok := s.patients[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("patient not found")
	}
	return patient, nil
}

func (s *stubPatientRepo) GetByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error) {
	var result []*entities.Patient
	for _, id := range ids {
		if patient, ok := s.patients[id]; ok {
			result = append(result, patient)
		}
	}
	return result, nil
}

func (s *stubPatientRepo) Update(ctx context.Context, patient *entities.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[patient.ID]; !ok {
		return apperrors.NewNotFoundError("patient not found")
	}
	s.updated = append(s.updated, patient)
	s.patients[patient.ID] = patient
	return nil
}

func (s *stubPatientRepo) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[id]; !ok {
		return apperrors.NewNotFoundError("patient not found")
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubPatientRepo) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*entities.Patient
	for _, patient := range s.patients {
		result = append(result, patient)
	}
	return result, nil
}

type stubSearchRepo struct {
	mu       sync.Mutex
	indexed  []*entities.Patient
	deleted  []string
	results  []*entities.Patient
	lastArgs repositories.PatientSearchParams
}

func (s *stubSearchRepo) Search(ctx context.Context, params repositories.PatientSearchParams) ([]*entities.Patient, error) {
	s.lastArgs = params
	return s.results, nil
}

func (s *stubSearchRepo) Index(ctx context.Context, patient *entities.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexed = append(s.indexed, patient)
	return nil
}

func (s *stubSearchRepo) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubEventBus struct {
	published []*entities.PatientEvent
	channels  []string
}

func (s *stubEventBus) Publish(ctx context.Context, channel string, event *entities.PatientEvent) error {
	s.channels = append(s.channels, channel)
	s.published = append(s.published, event)
	return nil
}

func (s *stubEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.PatientEvent, error) {
	return make(chan *entities.PatientEvent), nil
}

func (s *stubEventBus) Unsubscribe(ctx context.Context, channel string) error { return nil }
func (s *stubEventBus) Close() error                                          { return nil }

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func seedPatient(id string) *entities.Patient {
	return &entities.Patient{
		ID:          id,
		FirstName:   "Eleanor",
		LastName:    "Vance",
		DateOfBirth: datePtr(1950, time.January, 1),
		Diagnosis:   "Hip Replacement",
		Insurance:   "Medicare",
		IsActive:    true,
	}
}

func TestPatientService_GetByID_EnhancesRecord(t *testing.T) {
	repo := newStubPatientRepo(seedPatient("p1"))
	service := NewPatientService(repo, nil, NewRiskScoringServiceWithClock(fixedClock(testNow)))

	enhanced, err := service.GetByID(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 75, enhanced.Age)
	assert.True(t, enhanced.LeakageRisk.Level.Valid())
	assert.GreaterOrEqual(t, enhanced.LeakageRisk.Score, 0)
	assert.LessOrEqual(t, enhanced.LeakageRisk.Score, 100)
}

func TestPatientService_GetByID_NotFound(t *testing.T) {
	repo := newStubPatientRepo()
	service := NewPatientService(repo, nil, NewRiskScoringService())

	_, err := service.GetByID(context.Background(), "missing")
	require.Error(t, err)

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
}

func TestPatientService_Create_StampsRiskAndIndexes(t *testing.T) {
	repo := newStubPatientRepo()
	searchRepo := &stubSearchRepo{}
	bus := &stubEventBus{}

	service := NewPatientService(repo, searchRepo, NewRiskScoringServiceWithClock(fixedClock(testNow)))
	service.SetEventBus(bus)

	patient := seedPatient("p1")
	patient.RiskScore = nil
	patient.RiskLevel = nil

	err := service.Create(context.Background(), patient)
	require.NoError(t, err)

	require.NotNil(t, patient.RiskScore)
	require.NotNil(t, patient.RiskLevel)
	assert.True(t, patient.RiskLevel.Valid())

	require.Len(t, repo.created, 1)
	require.Len(t, searchRepo.indexed, 1)
	assert.Equal(t, patient.ID, searchRepo.indexed[0].ID)

	require.Len(t, bus.published, 1)
	assert.Equal(t, entities.PatientEventCreated, bus.published[0].Type)
	assert.Equal(t, providers.EventChannelPatientUpdates, bus.channels[0])
	assert.NotEmpty(t, bus.published[0].ID)
}

func TestPatientService_Update_RefreshesSnapshotAndPublishes(t *testing.T) {
	patient := seedPatient("p1")
	staleScore := 1
	staleLevel := entities.RiskLevelLow
	patient.RiskScore = &staleScore
	patient.RiskLevel = &staleLevel

	repo := newStubPatientRepo(patient)
	searchRepo := &stubSearchRepo{}
	bus := &stubEventBus{}

	service := NewPatientService(repo, searchRepo, NewRiskScoringServiceWithClock(fixedClock(testNow)))
	service.SetEventBus(bus)

	before := patient.UpdatedAt
	err := service.Update(context.Background(), patient)
	require.NoError(t, err)

	assert.NotEqual(t, 1, *patient.RiskScore)
	assert.True(t, patient.UpdatedAt.After(before))
	require.Len(t, searchRepo.indexed, 1)

	require.Len(t, bus.published, 1)
	assert.Equal(t, entities.PatientEventUpdated, bus.published[0].Type)
	assert.Equal(t, *patient.RiskLevel, bus.published[0].RiskLevel)
}

func TestPatientService_Delete_RemovesFromIndex(t *testing.T) {
	repo := newStubPatientRepo(seedPatient("p1"))
	searchRepo := &stubSearchRepo{}
	bus := &stubEventBus{}

	service := NewPatientService(repo, searchRepo, NewRiskScoringService())
	service.SetEventBus(bus)

	err := service.Delete(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, []string{"p1"}, repo.deleted)
	assert.Equal(t, []string{"p1"}, searchRepo.deleted)
	require.Len(t, bus.published, 1)
	assert.Equal(t, entities.PatientEventDeleted, bus.published[0].Type)
}

func TestPatientService_Create_RecordsAssessmentMetric(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	previous := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(previous) })

	metrics, err := observability.InitMetrics()
	require.NoError(t, err)

	repo := newStubPatientRepo()
	service := NewPatientService(repo, nil, NewRiskScoringServiceWithClock(fixedClock(testNow)))
	service.SetMetrics(metrics)

	require.NoError(t, service.Create(context.Background(), seedPatient("p1")))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "risk.assessment.count" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), total)
}

func TestPatientService_Search_UnavailableWithoutSearchRepo(t *testing.T) {
	repo := newStubPatientRepo()
	service := NewPatientService(repo, nil, NewRiskScoringService())

	_, err := service.Search(context.Background(), repositories.PatientSearchParams{Query: "vance"})
	require.Error(t, err)

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeExternal, appErr.Type)
}

func TestPatientService_Search_EnhancesHits(t *testing.T) {
	repo := newStubPatientRepo()
	searchRepo := &stubSearchRepo{results: []*entities.Patient{seedPatient("p1"), seedPatient("p2")}}
	service := NewPatientService(repo, searchRepo, NewRiskScoringServiceWithClock(fixedClock(testNow)))

	enhanced, err := service.Search(context.Background(), repositories.PatientSearchParams{Query: "vance", Limit: 10})
	require.NoError(t, err)

	require.Len(t, enhanced, 2)
	assert.Equal(t, "vance", searchRepo.lastArgs.Query)
	for _, e := range enhanced {
		assert.Equal(t, 75, e.Age)
		assert.True(t, e.LeakageRisk.Level.Valid())
	}
}
