package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/careops-dashboard/internal/api/handlers"
	"github.com/careloop/careops-dashboard/internal/application/services"
	"github.com/careloop/careops-dashboard/internal/domain/entities"
	"github.com/careloop/careops-dashboard/internal/domain/repositories"
	apperrors "github.com/careloop/careops-dashboard/pkg/errors"
)

type stubPatientRepo struct {
	patients map[string]*entities.Patient
}

func newStubPatientRepo(patients ...*entities.Patient) *stubPatientRepo {
	repo := &stubPatientRepo{patients: map[string]*entities.Patient{}}
	for _, p := range patients {
		repo.patients[p.ID] = p
	}
	return repo
}

func (s *stubPatientRepo) Create(ctx context.Context, patient *entities.Patient) error {
	s.patients[patient.ID] = patient
	return nil
}

func (s *stubPatientRepo) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	patient, ok := s.patients[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("patient with id " + id + " not found")
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
	if _, ok := s.patients[patient.ID]; !ok {
		return apperrors.NewNotFoundError("patient with id " + patient.ID + " not found")
	}
	s.patients[patient.ID] = patient
	return nil
}

func (s *stubPatientRepo) Delete(ctx context.Context, id string) error {
	if _, ok := s.patients[id]; !ok {
		return apperrors.NewNotFoundError("patient with id " + id + " not found")
	}
	delete(s.patients, id)
	return nil
}

func (s *stubPatientRepo) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.Patient, error) {
	var result []*entities.Patient
	for _, patient := range s.patients {
		result = append(result, patient)
	}
	return result, nil
}

func newPatientHandler(repo repositories.PatientRepository) *handlers.PatientHandler {
	service := services.NewPatientService(repo, nil, services.NewRiskScoringService())
	return handlers.NewPatientHandler(service)
}

func testPatient() *entities.Patient {
	dob := time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &entities.Patient{
		ID:                  "p1",
		MedicalRecordNumber: "MRN-1",
		FirstName:           "Eleanor",
		LastName:            "Vance",
		DateOfBirth:         &dob,
		Diagnosis:           "Hip Replacement",
		Insurance:           "Medicare",
		IsActive:            true,
	}
}

func TestPatientHandler_GetPatient_Success(t *testing.T) {
	handler := newPatientHandler(newStubPatientRepo(testPatient()))

	req := httptest.NewRequest("GET", "/api/patients/p1", nil)
	req.SetPathValue("id", "p1")
	w := httptest.NewRecorder()

	handler.GetPatient(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response entities.EnhancedPatient
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "p1", response.ID)
	assert.Greater(t, response.Age, 0)
	assert.True(t, response.LeakageRisk.Level.Valid())
}

func TestPatientHandler_GetPatient_NotFound(t *testing.T) {
	handler := newPatientHandler(newStubPatientRepo())

	req := httptest.NewRequest("GET", "/api/patients/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	handler.GetPatient(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatientHandler_GetPatientRisk(t *testing.T) {
	handler := newPatientHandler(newStubPatientRepo(testPatient()))

	req := httptest.NewRequest("GET", "/api/patients/p1/risk", nil)
	req.SetPathValue("id", "p1")
	w := httptest.NewRecorder()

	handler.GetPatientRisk(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var assessment entities.RiskAssessment
	err := json.NewDecoder(w.Body).Decode(&assessment)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, assessment.Score, 0)
	assert.LessOrEqual(t, assessment.Score, 100)
	assert.True(t, assessment.Level.Valid())
}

func TestPatientHandler_ListPatients_InvalidRiskLevel(t *testing.T) {
	handler := newPatientHandler(newStubPatientRepo())

	req := httptest.NewRequest("GET", "/api/patients?risk_level=bogus", nil)
	w := httptest.NewRecorder()

	handler.ListPatients(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPatientHandler_ListPatients_Success(t *testing.T) {
	handler := newPatientHandler(newStubPatientRepo(testPatient()))

	req := httptest.NewRequest("GET", "/api/patients", nil)
	w := httptest.NewRecorder()

	handler.ListPatients(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Patients []entities.EnhancedPatient `json:"patients"`
		Count    int                        `json:"count"`
	}
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, 1, response.Count)
	require.Len(t, response.Patients, 1)
	assert.True(t, response.Patients[0].LeakageRisk.Level.Valid())
}

func TestPatientHandler_CreatePatient_Success(t *testing.T) {
	repo := newStubPatientRepo()
	handler := newPatientHandler(repo)

	body := `{
		"medical_record_number": "MRN-9",
		"first_name": "Walter",
		"last_name": "Osei",
		"date_of_birth": "1939-01-30",
		"diagnosis": "COPD exacerbation",
		"insurance": "Uninsured",
		"address": "County Road 12"
	}`
	req := httptest.NewRequest("POST", "/api/patients", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreatePatient(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var created entities.Patient
	err := json.NewDecoder(w.Body).Decode(&created)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
	require.NotNil(t, created.RiskScore)
	require.NotNil(t, created.RiskLevel)
	assert.True(t, created.RiskLevel.Valid())

	assert.Len(t, repo.patients, 1)
}

func TestPatientHandler_CreatePatient_MissingName(t *testing.T) {
	handler := newPatientHandler(newStubPatientRepo())

	body := `{"diagnosis": "routine checkup"}`
	req := httptest.NewRequest("POST", "/api/patients", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreatePatient(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPatientHandler_CreatePatient_InvalidDate(t *testing.T) {
	handler := newPatientHandler(newStubPatientRepo())

	body := `{"first_name": "A", "last_name": "B", "date_of_birth": "01/30/1939"}`
	req := httptest.NewRequest("POST", "/api/patients", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreatePatient(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPatientHandler_UpdatePatient_PartialFields(t *testing.T) {
	patient := testPatient()
	repo := newStubPatientRepo(patient)
	handler := newPatientHandler(repo)

	body := `{"insurance": "Medicaid"}`
	req := httptest.NewRequest("PATCH", "/api/patients/p1", strings.NewReader(body))
	req.SetPathValue("id", "p1")
	w := httptest.NewRecorder()

	handler.UpdatePatient(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var updated entities.Patient
	err := json.NewDecoder(w.Body).Decode(&updated)
	require.NoError(t, err)
	assert.Equal(t, "Medicaid", updated.Insurance)
	// Untouched fields survive the patch
	assert.Equal(t, "Eleanor", updated.FirstName)
	assert.Equal(t, "Hip Replacement", updated.Diagnosis)
	require.NotNil(t, updated.RiskScore)
}

func TestPatientHandler_UpdatePatient_NotFound(t *testing.T) {
	handler := newPatientHandler(newStubPatientRepo())

	body := `{"insurance": "Medicaid"}`
	req := httptest.NewRequest("PATCH", "/api/patients/missing", strings.NewReader(body))
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	handler.UpdatePatient(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatientHandler_DeletePatient(t *testing.T) {
	repo := newStubPatientRepo(testPatient())
	handler := newPatientHandler(repo)

	req := httptest.NewRequest("DELETE", "/api/patients/p1", nil)
	req.SetPathValue("id", "p1")
	w := httptest.NewRecorder()

	handler.DeletePatient(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, repo.patients)
}

func TestPatientHandler_SearchPatients_UnavailableWithoutSearch(t *testing.T) {
	handler := newPatientHandler(newStubPatientRepo())

	req := httptest.NewRequest("GET", "/api/patients/search?q=vance", nil)
	w := httptest.NewRecorder()

	handler.SearchPatients(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
