package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/careloop/careops-dashboard/internal/domain/entities"
	"github.com/careloop/careops-dashboard/internal/domain/repositories"
	"github.com/careloop/careops-dashboard/internal/infrastructure/clients/postgres"
	apperrors "github.com/careloop/careops-dashboard/pkg/errors"
)

// ProviderAdapter implements ProviderRepository on PostgreSQL
type ProviderAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProviderAdapter creates a new provider adapter
func NewProviderAdapter(client *postgres.Client) repositories.ProviderRepository {
	return &ProviderAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new provider
func (a *ProviderAdapter) Create(ctx context.Context, provider *entities.Provider) error {
	record := goqu.Record{
		"id":           provider.ID,
		"name":         provider.Name,
		"specialty":    provider.Specialty,
		"clinic":       provider.Clinic,
		"phone_number": sql.NullString{String: provider.PhoneNumber, Valid: provider.PhoneNumber != ""},
		"email":        sql.NullString{String: provider.Email, Valid: provider.Email != ""},
		"is_active":    provider.IsActive,
		"created_at":   provider.CreatedAt,
		"updated_at":   provider.UpdatedAt,
	}

	query, args, err := a.db.Insert("providers").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err = a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create provider", err)
	}

	return nil
}

// GetByID retrieves a provider by ID
func (a *ProviderAdapter) GetByID(ctx context.Context, id string) (*entities.Provider, error) {
	query, args, err := a.db.Select(
		"id", "name", "specialty", "clinic", "phone_number", "email",
		"is_active", "created_at", "updated_at",
	).From("providers").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	provider := &entities.Provider{}
	var phone, email sql.NullString

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&provider.ID,
		&provider.Name,
		&provider.Specialty,
		&provider.Clinic,
		&phone,
		&email,
		&provider.IsActive,
		&provider.CreatedAt,
		&provider.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get provider", err)
	}

	provider.PhoneNumber = phone.String
	provider.Email = email.String

	return provider, nil
}

// Update updates a provider
func (a *ProviderAdapter) Update(ctx context.Context, provider *entities.Provider) error {
	provider.UpdatedAt = time.Now()

	record := goqu.Record{
		"name":         provider.Name,
		"specialty":    provider.Specialty,
		"clinic":       provider.Clinic,
		"phone_number": sql.NullString{String: provider.PhoneNumber, Valid: provider.PhoneNumber != ""},
		"email":        sql.NullString{String: provider.Email, Valid: provider.Email != ""},
		"is_active":    provider.IsActive,
		"updated_at":   provider.UpdatedAt,
	}

	query, args, err := a.db.Update("providers").
		Set(record).
		Where(goqu.Ex{"id": provider.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update provider", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", provider.ID))
	}

	return nil
}

// Delete soft-deletes a provider
func (a *ProviderAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Update("providers").
		Set(goqu.Record{
			"is_active":  false,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete provider", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", id))
	}

	return nil
}

// List retrieves providers
func (a *ProviderAdapter) List(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error) {
	ds := a.db.Select(
		"id", "name", "specialty", "clinic", "phone_number", "email",
		"is_active", "created_at", "updated_at",
	).From("providers")

	if filter.Specialty != "" {
		ds = ds.Where(goqu.Ex{"specialty": filter.Specialty})
	}
	if filter.IsActive != nil {
		ds = ds.Where(goqu.Ex{"is_active": *filter.IsActive})
	}

	ds = ds.Order(goqu.I("name").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list providers", err)
	}
	defer rows.Close()

	var providers []*entities.Provider
	for rows.Next() {
		provider := &entities.Provider{}
		var phone, email sql.NullString

		err := rows.Scan(
			&provider.ID,
			&provider.Name,
			&provider.Specialty,
			&provider.Clinic,
			&phone,
			&email,
			&provider.IsActive,
			&provider.CreatedAt,
			&provider.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan provider", err)
		}

		provider.PhoneNumber = phone.String
		provider.Email = email.String

		providers = append(providers, provider)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate providers", err)
	}

	return providers, nil
}
