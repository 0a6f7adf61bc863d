package services

import (
	"context"
	"fmt"
	"time"

	"github.com/careloop/careops-dashboard/internal/domain/entities"
	"github.com/careloop/careops-dashboard/internal/domain/providers"
	"github.com/careloop/careops-dashboard/internal/infrastructure/observability"
)

// CacheInvalidationService drops cached patient responses when a patient
// record changes, keeping the dashboard's reads fresh without waiting for
// the TTL.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for patient events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelPatientUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to patient updates: %w", err)
	}

	go s.processEvents(eventChan)
	observability.GetLogger().Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	observability.GetLogger().Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.PatientEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				// Subscriber channel closed underneath us (bus shutdown)
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

// handleEvent invalidates the caches touched by a single patient event.
// List and search caches carry short TTLs and refresh on their own;
// invalidating them here would cause a stampede on busy wards.
func (s *CacheInvalidationService) handleEvent(event *entities.PatientEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := observability.GetLogger()
	logger.Debug().
		Str("event_id", event.ID).
		Str("patient_id", event.PatientID).
		Str("event_type", string(event.Type)).
		Msg("processing cache invalidation")

	patterns := []string{
		fmt.Sprintf("patient:%s", event.PatientID),
		fmt.Sprintf("http:cache:*patients/%s*", event.PatientID),
	}
	for _, pattern := range patterns {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			logger.Warn().Err(err).Str("pattern", pattern).Msg("failed to invalidate cache")
		}
	}
}

// InvalidatePatientCache drops cache entries for a specific patient
func (s *CacheInvalidationService) InvalidatePatientCache(ctx context.Context, patientID string) error {
	pattern := fmt.Sprintf("http:cache:*patients/%s*", patientID)
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		return fmt.Errorf("failed to invalidate patient cache: %w", err)
	}
	return nil
}

// InvalidateListCaches drops all cached patient lists and search results.
// Heavier than the per-patient path; meant for backfills and reseeding.
func (s *CacheInvalidationService) InvalidateListCaches(ctx context.Context) error {
	patterns := []string{
		"patients:list:*",
		"http:cache:*patients*",
	}
	for _, pattern := range patterns {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
		}
	}
	return nil
}
