package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/careloop/careops-dashboard/internal/domain/entities"
	"github.com/careloop/careops-dashboard/internal/domain/repositories"
)

const backfillPageSize = 500

// BackfillSummary reports the outcome of a backfill run
type BackfillSummary struct {
	TotalProcessed int
	UpdatedCount   int
	SkippedCount   int
	FailureCount   int
}

// RiskBackfillService recomputes stored risk snapshots for the whole
// patient population. Snapshots drift as patients age and discharge dates
// recede, so periodic runs keep reporting queries honest.
type RiskBackfillService struct {
	repo       repositories.PatientRepository
	searchRepo repositories.PatientSearchRepository
	scoring    *RiskScoringService
	workers    int
}

// NewRiskBackfillService creates a new backfill service
func NewRiskBackfillService(
	repo repositories.PatientRepository,
	searchRepo repositories.PatientSearchRepository,
	scoring *RiskScoringService,
	workers int,
) *RiskBackfillService {
	if workers < 1 {
		workers = 1
	}
	return &RiskBackfillService{
		repo:       repo,
		searchRepo: searchRepo,
		scoring:    scoring,
		workers:    workers,
	}
}

// BackfillAll recomputes risk snapshots for every patient record
func (s *RiskBackfillService) BackfillAll(ctx context.Context) (*BackfillSummary, error) {
	jobs := make(chan *entities.Patient, s.workers*2)
	summary := &BackfillSummary{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for patient := range jobs {
				updated, err := s.refresh(ctx, patient)

				mu.Lock()
				summary.TotalProcessed++
				switch {
				case err != nil:
					summary.FailureCount++
				case updated:
					summary.UpdatedCount++
				default:
					summary.SkippedCount++
				}
				mu.Unlock()

				if err != nil {
					log.Printf("Failed to refresh risk for patient %s: %v", patient.ID, err)
				}
			}
		}()
	}

	var feedErr error
	offset := 0
feed:
	for {
		patients, err := s.repo.List(ctx, repositories.PatientFilter{
			Limit:  backfillPageSize,
			Offset: offset,
		})
		if err != nil {
			feedErr = err
			break
		}
		if len(patients) == 0 {
			break
		}

		for _, patient := range patients {
			select {
			case <-ctx.Done():
				feedErr = ctx.Err()
				break feed
			case jobs <- patient:
			}
		}

		if len(patients) < backfillPageSize {
			break
		}
		offset += backfillPageSize
	}

	close(jobs)
	wg.Wait()

	return summary, feedErr
}

// BackfillSingle recomputes the risk snapshot for one patient
func (s *RiskBackfillService) BackfillSingle(ctx context.Context, id string) error {
	patient, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.refresh(ctx, patient)
	return err
}

// refresh recomputes the snapshot and persists it when it drifted.
// Returns true when the record was written.
func (s *RiskBackfillService) refresh(ctx context.Context, patient *entities.Patient) (bool, error) {
	assessment := s.scoring.CalculateLeakageRisk(patient)

	if patient.RiskScore != nil && *patient.RiskScore == assessment.Score &&
		patient.RiskLevel != nil && *patient.RiskLevel == assessment.Level {
		return false, nil
	}

	score := assessment.Score
	level := assessment.Level
	patient.RiskScore = &score
	patient.RiskLevel = &level
	patient.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, patient); err != nil {
		return false, err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Index(ctx, patient); err != nil {
			log.Printf("Warning: Failed to reindex patient %s: %v", patient.ID, err)
		}
	}

	return true, nil
}
