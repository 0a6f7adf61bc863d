package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/careops-dashboard/internal/domain/entities"
	"github.com/careloop/careops-dashboard/internal/domain/providers"
	"github.com/careloop/careops-dashboard/internal/domain/repositories"
	"github.com/careloop/careops-dashboard/internal/infrastructure/observability"
	apperrors "github.com/careloop/careops-dashboard/pkg/errors"
)

// PatientService handles business logic for patient records. Every read
// path returns enhanced records with a freshly computed leakage risk; the
// stored risk columns are only a snapshot for reporting queries.
type PatientService struct {
	repo       repositories.PatientRepository
	searchRepo repositories.PatientSearchRepository
	scoring    *RiskScoringService
	eventBus   providers.EventBus
	metrics    *observability.Metrics
}

// NewPatientService creates a new patient service
func NewPatientService(
	repo repositories.PatientRepository,
	searchRepo repositories.PatientSearchRepository,
	scoring *RiskScoringService,
) *PatientService {
	return &PatientService{
		repo:       repo,
		searchRepo: searchRepo,
		scoring:    scoring,
	}
}

// SetEventBus enables publishing patient change events
func (s *PatientService) SetEventBus(bus providers.EventBus) {
	s.eventBus = bus
}

// SetMetrics enables recording risk assessment metrics
func (s *PatientService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// GetByID retrieves a single patient with derived risk fields
func (s *PatientService) GetByID(ctx context.Context, id string) (*entities.EnhancedPatient, error) {
	patient, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.scoring.EnhancePatient(patient), nil
}

// List retrieves patients with derived risk fields
func (s *PatientService) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.EnhancedPatient, error) {
	patients, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.scoring.EnhancePatients(patients), nil
}

// Search runs a free-text patient search through the search engine
func (s *PatientService) Search(ctx context.Context, params repositories.PatientSearchParams) ([]*entities.EnhancedPatient, error) {
	if s.searchRepo == nil {
		return nil, apperrors.NewExternalError("patient search is not available", nil)
	}
	patients, err := s.searchRepo.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return s.scoring.EnhancePatients(patients), nil
}

// AssessRisk computes the current leakage risk assessment for a patient
func (s *PatientService) AssessRisk(ctx context.Context, id string) (*entities.RiskAssessment, error) {
	patient, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	assessment := s.scoring.CalculateLeakageRisk(patient)
	s.recordAssessment(ctx, assessment.Level)
	return &assessment, nil
}

// Create persists a new patient record with an initial risk snapshot and
// indexes it
func (s *PatientService) Create(ctx context.Context, patient *entities.Patient) error {
	s.stampRisk(ctx, patient)

	if err := s.repo.Create(ctx, patient); err != nil {
		return err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Index(ctx, patient); err != nil {
			// Eventual consistency: the record is persisted, index catches up later
			log.Printf("Warning: Failed to index patient %s: %v", patient.ID, err)
		}
	}

	s.publish(ctx, entities.PatientEventCreated, patient)
	return nil
}

// Update persists changed record fields, refreshes the stored risk
// snapshot, and reindexes
func (s *PatientService) Update(ctx context.Context, patient *entities.Patient) error {
	patient.UpdatedAt = time.Now()
	s.stampRisk(ctx, patient)

	if err := s.repo.Update(ctx, patient); err != nil {
		return err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Index(ctx, patient); err != nil {
			log.Printf("Warning: Failed to update patient index %s: %v", patient.ID, err)
		}
	}

	s.publish(ctx, entities.PatientEventUpdated, patient)
	return nil
}

// Delete deactivates a patient record and removes it from the index
func (s *PatientService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Delete(ctx, id); err != nil {
			log.Printf("Warning: Failed to delete patient from index %s: %v", id, err)
		}
	}

	s.publish(ctx, entities.PatientEventDeleted, &entities.Patient{ID: id})
	return nil
}

// stampRisk refreshes the persisted risk snapshot from the engine
func (s *PatientService) stampRisk(ctx context.Context, patient *entities.Patient) {
	assessment := s.scoring.CalculateLeakageRisk(patient)
	score := assessment.Score
	level := assessment.Level
	patient.RiskScore = &score
	patient.RiskLevel = &level
	s.recordAssessment(ctx, assessment.Level)
}

func (s *PatientService) recordAssessment(ctx context.Context, level entities.RiskLevel) {
	if s.metrics == nil {
		return
	}
	observability.RecordRiskAssessment(ctx, s.metrics, string(level))
}

func (s *PatientService) publish(ctx context.Context, eventType entities.PatientEventType, patient *entities.Patient) {
	if s.eventBus == nil {
		return
	}

	event := &entities.PatientEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		PatientID: patient.ID,
		Timestamp: time.Now(),
	}
	if patient.RiskLevel != nil {
		event.RiskLevel = *patient.RiskLevel
	}

	if err := s.eventBus.Publish(ctx, providers.EventChannelPatientUpdates, event); err != nil {
		log.Printf("Warning: Failed to publish %s for patient %s: %v", eventType, patient.ID, err)
	}
}
