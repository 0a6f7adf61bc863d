package repositories

import (
	"context"

	"github.com/careloop/careops-dashboard/internal/domain/entities"
)

// ProviderRepository defines the interface for care provider data operations
type ProviderRepository interface {
	// Create creates a new provider
	Create(ctx context.Context, provider *entities.Provider) error

	// GetByID retrieves a provider by ID
	GetByID(ctx context.Context, id string) (*entities.Provider, error)

	// Update updates a provider
	Update(ctx context.Context, provider *entities.Provider) error

	// Delete deactivates a provider
	Delete(ctx context.Context, id string) error

	// List retrieves providers with filters
	List(ctx context.Context, filter ProviderFilter) ([]*entities.Provider, error)
}

// ProviderFilter defines filters for listing providers
type ProviderFilter struct {
	Specialty string
	IsActive  *bool
	Limit     int
	Offset    int
}
