package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careloop/careops-dashboard/internal/adapters/database"
	"github.com/careloop/careops-dashboard/internal/adapters/search"
	"github.com/careloop/careops-dashboard/internal/application/services"
	"github.com/careloop/careops-dashboard/internal/domain/repositories"
	"github.com/careloop/careops-dashboard/internal/infrastructure/clients/postgres"
	"github.com/careloop/careops-dashboard/internal/infrastructure/clients/typesense"
	"github.com/careloop/careops-dashboard/pkg/config"
)

func main() {
	var workers int
	var patientID string

	flag.IntVar(&workers, "workers", 3, "Number of concurrent workers")
	flag.StringVar(&patientID, "patient", "", "Single patient ID to backfill")
	flag.Parse()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Setup DB
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pgClient.Close()

	patientRepo := database.NewPatientAdapter(pgClient)

	// Reindex refreshed records when Typesense is reachable
	var searchRepo repositories.PatientSearchRepository
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Printf("Warning: Typesense unavailable, skipping reindex: %v", err)
		} else {
			searchRepo = search.NewTypesenseAdapter(tsClient)
		}
	}

	svc := services.NewRiskBackfillService(patientRepo, searchRepo, services.NewRiskScoringService(), workers)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()

	if patientID != "" {
		log.Printf("Backfilling single patient: %s", patientID)
		if err := svc.BackfillSingle(ctx, patientID); err != nil {
			log.Fatalf("Failed to backfill patient %s: %v", patientID, err)
		}
		log.Printf("Successfully backfilled %s", patientID)
		return
	}

	log.Printf("Starting risk backfill with %d workers...", workers)
	summary, err := svc.BackfillAll(ctx)
	if err != nil {
		log.Printf("Backfill failed: %v", err)
	}

	if summary != nil {
		log.Printf("Backfill complete in %s", time.Since(start))
		log.Printf("Total processed: %d", summary.TotalProcessed)
		log.Printf("Updated: %d", summary.UpdatedCount)
		log.Printf("Unchanged: %d", summary.SkippedCount)
		log.Printf("Failed: %d", summary.FailureCount)
	}
}
