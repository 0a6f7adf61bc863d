package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/careops-dashboard/internal/domain/entities"
	"github.com/careloop/careops-dashboard/internal/domain/repositories"
)

// ProviderHandler handles referring provider HTTP requests
type ProviderHandler struct {
	providerRepo repositories.ProviderRepository
}

// NewProviderHandler creates a new provider handler
func NewProviderHandler(providerRepo repositories.ProviderRepository) *ProviderHandler {
	return &ProviderHandler{
		providerRepo: providerRepo,
	}
}

type providerRequest struct {
	Name        string `json:"name"`
	Specialty   string `json:"specialty"`
	Clinic      string `json:"clinic"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
}

// ListProviders handles GET /api/providers
func (h *ProviderHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ProviderFilter{
		Specialty: r.URL.Query().Get("specialty"),
		Limit:     parseIntParam(r, "limit", 30),
		Offset:    parseIntParam(r, "offset", 0),
	}

	if active := r.URL.Query().Get("active"); active != "" {
		parsed, err := strconv.ParseBool(active)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid active parameter")
			return
		}
		filter.IsActive = &parsed
	}

	providers, err := h.providerRepo.List(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list providers")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"providers": providers,
		"count":     len(providers),
	})
}

// GetProvider handles GET /api/providers/{id}
func (h *ProviderHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if providerID == "" {
		respondWithError(w, http.StatusBadRequest, "provider ID is required")
		return
	}

	provider, err := h.providerRepo.GetByID(r.Context(), providerID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, provider)
}

// CreateProvider handles POST /api/providers
func (h *ProviderHandler) CreateProvider(w http.ResponseWriter, r *http.Request) {
	var req providerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "name is required")
		return
	}

	now := time.Now()
	provider := &entities.Provider{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Specialty:   req.Specialty,
		Clinic:      req.Clinic,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.providerRepo.Create(r.Context(), provider); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, provider)
}

// UpdateProvider handles PUT /api/providers/{id}
func (h *ProviderHandler) UpdateProvider(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if providerID == "" {
		respondWithError(w, http.StatusBadRequest, "provider ID is required")
		return
	}

	var req providerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	provider, err := h.providerRepo.GetByID(r.Context(), providerID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	provider.Name = req.Name
	provider.Specialty = req.Specialty
	provider.Clinic = req.Clinic
	provider.PhoneNumber = req.PhoneNumber
	provider.Email = req.Email

	if err := h.providerRepo.Update(r.Context(), provider); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, provider)
}

// DeleteProvider handles DELETE /api/providers/{id}
func (h *ProviderHandler) DeleteProvider(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if providerID == "" {
		respondWithError(w, http.StatusBadRequest, "provider ID is required")
		return
	}

	if err := h.providerRepo.Delete(r.Context(), providerID); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
