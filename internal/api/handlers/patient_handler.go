package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/careops-dashboard/internal/application/services"
	"github.com/careloop/careops-dashboard/internal/domain/entities"
	"github.com/careloop/careops-dashboard/internal/domain/repositories"
	apperrors "github.com/careloop/careops-dashboard/pkg/errors"
)

// PatientHandler handles patient-related HTTP requests
type PatientHandler struct {
	patientService *services.PatientService
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(patientService *services.PatientService) *PatientHandler {
	return &PatientHandler{
		patientService: patientService,
	}
}

// createPatientRequest is the payload for POST /api/patients
type createPatientRequest struct {
	MedicalRecordNumber string `json:"medical_record_number"`
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	DateOfBirth         string `json:"date_of_birth"`
	Diagnosis           string `json:"diagnosis"`
	DischargeDate       string `json:"discharge_date"`
	RequiredFollowUp    string `json:"required_followup"`
	Insurance           string `json:"insurance"`
	Address             string `json:"address"`
	ReferringProviderID string `json:"referring_provider_id"`
}

// updatePatientRequest is the payload for PATCH /api/patients/{id}.
// Pointer fields distinguish "not provided" from "set to empty".
type updatePatientRequest struct {
	FirstName           *string `json:"first_name"`
	LastName            *string `json:"last_name"`
	DateOfBirth         *string `json:"date_of_birth"`
	Diagnosis           *string `json:"diagnosis"`
	DischargeDate       *string `json:"discharge_date"`
	RequiredFollowUp    *string `json:"required_followup"`
	Insurance           *string `json:"insurance"`
	Address             *string `json:"address"`
	ReferringProviderID *string `json:"referring_provider_id"`
	IsActive            *bool   `json:"is_active"`
}

// ListPatients handles GET /api/patients
func (h *PatientHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	filter := repositories.PatientFilter{
		ReferringProviderID: r.URL.Query().Get("provider_id"),
		RiskLevel:           r.URL.Query().Get("risk_level"),
		Limit:               parseIntParam(r, "limit", 30),
		Offset:              parseIntParam(r, "offset", 0),
	}

	if filter.RiskLevel != "" && !entities.RiskLevel(filter.RiskLevel).Valid() {
		respondWithError(w, http.StatusBadRequest, "invalid risk level")
		return
	}

	if active := r.URL.Query().Get("active"); active != "" {
		parsed, err := strconv.ParseBool(active)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid active parameter")
			return
		}
		filter.IsActive = &parsed
	}

	patients, err := h.patientService.List(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list patients")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}

// GetPatient handles GET /api/patients/{id}
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	patient, err := h.patientService.GetByID(r.Context(), patientID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, patient)
}

// GetPatientRisk handles GET /api/patients/{id}/risk
func (h *PatientHandler) GetPatientRisk(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	assessment, err := h.patientService.AssessRisk(r.Context(), patientID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, assessment)
}

// SearchPatients handles GET /api/patients/search
func (h *PatientHandler) SearchPatients(w http.ResponseWriter, r *http.Request) {
	params := repositories.PatientSearchParams{
		Query:     r.URL.Query().Get("q"),
		RiskLevel: r.URL.Query().Get("risk_level"),
		Limit:     parseIntParam(r, "limit", 30),
		Offset:    parseIntParam(r, "offset", 0),
	}

	if params.RiskLevel != "" && !entities.RiskLevel(params.RiskLevel).Valid() {
		respondWithError(w, http.StatusBadRequest, "invalid risk level")
		return
	}

	patients, err := h.patientService.Search(r.Context(), params)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok && appErr.Type == apperrors.ErrorTypeExternal {
			respondWithError(w, http.StatusServiceUnavailable, "patient search is not available")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to search patients")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}

// CreatePatient handles POST /api/patients
func (h *PatientHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req createPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FirstName == "" || req.LastName == "" {
		respondWithError(w, http.StatusBadRequest, "first_name and last_name are required")
		return
	}

	now := time.Now()
	patient := &entities.Patient{
		ID:                  uuid.NewString(),
		MedicalRecordNumber: req.MedicalRecordNumber,
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Diagnosis:           req.Diagnosis,
		RequiredFollowUp:    req.RequiredFollowUp,
		Insurance:           req.Insurance,
		Address:             req.Address,
		ReferringProviderID: req.ReferringProviderID,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if req.DateOfBirth != "" {
		dob, err := parseDate(req.DateOfBirth)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid date_of_birth")
			return
		}
		patient.DateOfBirth = &dob
	}
	if req.DischargeDate != "" {
		discharge, err := parseDate(req.DischargeDate)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid discharge_date")
			return
		}
		patient.DischargeDate = &discharge
	}

	if err := h.patientService.Create(r.Context(), patient); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, patient)
}

// UpdatePatient handles PATCH /api/patients/{id}
func (h *PatientHandler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	var req updatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	existing, err := h.patientService.GetByID(r.Context(), patientID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	patient := existing.Patient
	if req.FirstName != nil {
		patient.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		patient.LastName = *req.LastName
	}
	if req.Diagnosis != nil {
		patient.Diagnosis = *req.Diagnosis
	}
	if req.RequiredFollowUp != nil {
		patient.RequiredFollowUp = *req.RequiredFollowUp
	}
	if req.Insurance != nil {
		patient.Insurance = *req.Insurance
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if req.ReferringProviderID != nil {
		patient.ReferringProviderID = *req.ReferringProviderID
	}
	if req.IsActive != nil {
		patient.IsActive = *req.IsActive
	}
	if req.DateOfBirth != nil {
		if *req.DateOfBirth == "" {
			patient.DateOfBirth = nil
		} else {
			dob, err := parseDate(*req.DateOfBirth)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "invalid date_of_birth")
				return
			}
			patient.DateOfBirth = &dob
		}
	}
	if req.DischargeDate != nil {
		if *req.DischargeDate == "" {
			patient.DischargeDate = nil
		} else {
			discharge, err := parseDate(*req.DischargeDate)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "invalid discharge_date")
				return
			}
			patient.DischargeDate = &discharge
		}
	}

	if err := h.patientService.Update(r.Context(), &patient); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, patient)
}

// DeletePatient handles DELETE /api/patients/{id}
func (h *PatientHandler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	if err := h.patientService.Delete(r.Context(), patientID); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// parseDate accepts both date-only and RFC3339 timestamps
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func parseIntParam(r *http.Request, name string, defaultValue int) int {
	if value := r.URL.Query().Get(name); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

func respondWithAppError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
		case apperrors.ErrorTypeConflict:
			respondWithError(w, http.StatusConflict, appErr.Message)
		default:
			respondWithError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}
