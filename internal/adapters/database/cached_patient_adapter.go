package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/careloop/careops-dashboard/internal/domain/entities"
	"github.com/careloop/careops-dashboard/internal/domain/providers"
	"github.com/careloop/careops-dashboard/internal/domain/repositories"
)

// CachedPatientAdapter wraps PatientAdapter with a read-through Redis cache
type CachedPatientAdapter struct {
	adapter repositories.PatientRepository
	cache   providers.CacheProvider
}

// NewCachedPatientAdapter creates a new cached patient adapter
func NewCachedPatientAdapter(adapter repositories.PatientRepository, cache providers.CacheProvider) repositories.PatientRepository {
	return &CachedPatientAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTLs (in seconds)
const (
	patientByIDTTL  = 300 // 5 minutes for single patient
	patientsListTTL = 120 // 2 minutes for lists
)

func patientCacheKey(id string) string {
	return fmt.Sprintf("patient:%s", id)
}

func patientsListCacheKey(filter repositories.PatientFilter) string {
	active := "any"
	if filter.IsActive != nil {
		active = fmt.Sprintf("%t", *filter.IsActive)
	}
	return fmt.Sprintf("patients:list:%s:%s:%s:%d:%d",
		filter.ReferringProviderID, filter.RiskLevel, active, filter.Limit, filter.Offset)
}

// GetByID retrieves a patient by ID with caching
func (a *CachedPatientAdapter) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	cacheKey := patientCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var patient entities.Patient
		if err := json.Unmarshal(cached, &patient); err == nil {
			return &patient, nil
		}
		log.Printf("Failed to unmarshal cached patient %s: %v", id, err)
	}

	patient, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Fill the cache off the request path
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(patient); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, patientByIDTTL); err != nil {
				log.Printf("Failed to cache patient %s: %v", id, err)
			}
		}
	}()

	return patient, nil
}

// GetByIDs retrieves multiple patients, serving what it can from cache
func (a *CachedPatientAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error) {
	if len(ids) == 0 {
		return []*entities.Patient{}, nil
	}

	cacheKeys := make([]string, len(ids))
	for i, id := range ids {
		cacheKeys[i] = patientCacheKey(id)
	}

	cached, _ := a.cache.GetMulti(ctx, cacheKeys)

	var patients []*entities.Patient
	missingIDs := make([]string, 0)

	for i, id := range ids {
		if data, ok := cached[cacheKeys[i]]; ok {
			var patient entities.Patient
			if err := json.Unmarshal(data, &patient); err == nil {
				patients = append(patients, &patient)
				continue
			}
		}
		missingIDs = append(missingIDs, id)
	}

	if len(missingIDs) > 0 {
		fetched, err := a.adapter.GetByIDs(ctx, missingIDs)
		if err != nil {
			return nil, err
		}
		patients = append(patients, fetched...)

		go func() {
			bgCtx := context.Background()
			items := make(map[string][]byte, len(fetched))
			for _, p := range fetched {
				if data, err := json.Marshal(p); err == nil {
					items[patientCacheKey(p.ID)] = data
				}
			}
			if len(items) > 0 {
				if err := a.cache.SetMulti(bgCtx, items, patientByIDTTL); err != nil {
					log.Printf("Failed to cache patient batch: %v", err)
				}
			}
		}()
	}

	return patients, nil
}

// List retrieves patients with list-level caching
func (a *CachedPatientAdapter) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.Patient, error) {
	cacheKey := patientsListCacheKey(filter)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var patients []*entities.Patient
		if err := json.Unmarshal(cached, &patients); err == nil {
			return patients, nil
		}
	}

	patients, err := a.adapter.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(patients); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, patientsListTTL); err != nil {
				log.Printf("Failed to cache patient list: %v", err)
			}
		}
	}()

	return patients, nil
}

// Create writes through and invalidates list caches
func (a *CachedPatientAdapter) Create(ctx context.Context, patient *entities.Patient) error {
	if err := a.adapter.Create(ctx, patient); err != nil {
		return err
	}
	a.invalidateLists(ctx)
	return nil
}

// Update writes through and invalidates the patient's cache entries
func (a *CachedPatientAdapter) Update(ctx context.Context, patient *entities.Patient) error {
	if err := a.adapter.Update(ctx, patient); err != nil {
		return err
	}
	if err := a.cache.Delete(ctx, patientCacheKey(patient.ID)); err != nil {
		log.Printf("Failed to invalidate cache for patient %s: %v", patient.ID, err)
	}
	a.invalidateLists(ctx)
	return nil
}

// Delete writes through and invalidates the patient's cache entries
func (a *CachedPatientAdapter) Delete(ctx context.Context, id string) error {
	if err := a.adapter.Delete(ctx, id); err != nil {
		return err
	}
	if err := a.cache.Delete(ctx, patientCacheKey(id)); err != nil {
		log.Printf("Failed to invalidate cache for patient %s: %v", id, err)
	}
	a.invalidateLists(ctx)
	return nil
}

func (a *CachedPatientAdapter) invalidateLists(ctx context.Context) {
	if err := a.cache.DeletePattern(ctx, "patients:list:*"); err != nil {
		log.Printf("Failed to invalidate patient list caches: %v", err)
	}
}
