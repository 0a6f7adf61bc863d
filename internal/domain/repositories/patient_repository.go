package repositories

import (
	"context"

	"github.com/careloop/careops-dashboard/internal/domain/entities"
)

// PatientRepository defines the interface for patient data operations
type PatientRepository interface {
	// Create creates a new patient record
	Create(ctx context.Context, patient *entities.Patient) error

	// GetByID retrieves a patient by ID
	GetByID(ctx context.Context, id string) (*entities.Patient, error)

	// GetByIDs retrieves multiple patients by their IDs
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error)

	// Update updates a patient record
	Update(ctx context.Context, patient *entities.Patient) error

	// Delete deactivates a patient record
	Delete(ctx context.Context, id string) error

	// List retrieves patients with filters
	List(ctx context.Context, filter PatientFilter) ([]*entities.Patient, error)
}

// PatientSearchRepository defines the interface for patient search operations (e.g. Typesense)
type PatientSearchRepository interface {
	// Search searches patients by free text
	Search(ctx context.Context, params PatientSearchParams) ([]*entities.Patient, error)

	// Index indexes a patient document
	Index(ctx context.Context, patient *entities.Patient) error

	// Delete removes a patient from the index
	Delete(ctx context.Context, id string) error
}

// PatientFilter defines filters for listing patients
type PatientFilter struct {
	ReferringProviderID string
	RiskLevel           string
	IsActive            *bool
	Limit               int
	Offset              int
}

// PatientSearchParams defines parameters for patient search
type PatientSearchParams struct {
	Query     string
	RiskLevel string
	Limit     int
	Offset    int
}
