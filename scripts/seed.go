package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/careops-dashboard/internal/adapters/database"
	"github.com/careloop/careops-dashboard/internal/adapters/search"
	"github.com/careloop/careops-dashboard/internal/application/services"
	"github.com/careloop/careops-dashboard/internal/domain/entities"
	"github.com/careloop/careops-dashboard/internal/domain/repositories"
	"github.com/careloop/careops-dashboard/internal/infrastructure/clients/postgres"
	"github.com/careloop/careops-dashboard/internal/infrastructure/clients/typesense"
	"github.com/careloop/careops-dashboard/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	var searchRepo repositories.PatientSearchRepository
	if tsClient, err := typesense.NewClient(&cfg.Typesense); err == nil {
		adapter := search.NewTypesenseAdapter(tsClient)
		if err := adapter.InitSchema(context.Background()); err != nil {
			log.Printf("Failed to init Typesense schema: %v", err)
		}
		searchRepo = adapter
	}

	patientRepo := database.NewPatientAdapter(pgClient)
	providerRepo := database.NewProviderAdapter(pgClient)
	patientService := services.NewPatientService(patientRepo, searchRepo, services.NewRiskScoringService())

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				patients,
				providers
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	// 1. Seed referring providers
	now := time.Now()
	providers := []entities.Provider{
		{ID: uuid.New().String(), Name: "Dr. Amaka Obi", Specialty: "Cardiology", Clinic: "Riverside Heart Center", PhoneNumber: "+1-555-0132", Email: "a.obi@riversideheart.example", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New().String(), Name: "Dr. Miguel Santos", Specialty: "Orthopedics", Clinic: "Lakeview Orthopedic Group", PhoneNumber: "+1-555-0178", Email: "m.santos@lakevieworth.example", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New().String(), Name: "Dr. Helen Park", Specialty: "Internal Medicine", Clinic: "Downtown Primary Care", PhoneNumber: "+1-555-0119", Email: "h.park@downtownpc.example", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New().String(), Name: "Dr. James Whitfield", Specialty: "Pulmonology", Clinic: "Northgate Lung Clinic", PhoneNumber: "+1-555-0193", Email: "j.whitfield@northgatelung.example", IsActive: true, CreatedAt: now, UpdatedAt: now},
	}

	for i := range providers {
		if err := providerRepo.Create(ctx, &providers[i]); err != nil {
			log.Printf("Failed to create provider %s: %v", providers[i].Name, err)
		}
	}

	// 2. Seed patients spanning the full risk spectrum
	patients := []entities.Patient{
		{
			MedicalRecordNumber: "MRN-100001",
			FirstName:           "Eleanor",
			LastName:            "Vance",
			DateOfBirth:         datePtr(1948, time.March, 12),
			Diagnosis:           "Congestive heart failure",
			DischargeDate:       daysAgoPtr(4),
			RequiredFollowUp:    "Cardiology within 7 days",
			Insurance:           "Medicare",
			Address:             "Rural Route 9, Cedar County",
			ReferringProviderID: providers[0].ID,
		},
		{
			MedicalRecordNumber: "MRN-100002",
			FirstName:           "Marcus",
			LastName:            "Bell",
			DateOfBirth:         datePtr(1957, time.July, 3),
			Diagnosis:           "Hip replacement",
			DischargeDate:       daysAgoPtr(12),
			RequiredFollowUp:    "Orthopedic surgery follow-up",
			Insurance:           "Medicaid",
			Address:             "Westside Shelter, 400 Canal St",
			ReferringProviderID: providers[1].ID,
		},
		{
			MedicalRecordNumber: "MRN-100003",
			FirstName:           "Priya",
			LastName:            "Raman",
			DateOfBirth:         datePtr(1981, time.November, 22),
			Diagnosis:           "Type 2 diabetes management",
			DischargeDate:       daysAgoPtr(45),
			RequiredFollowUp:    "Endocrinology in 3 months",
			Insurance:           "Private PPO",
			Address:             "210 Maple Ave, Apt 4B",
			ReferringProviderID: providers[2].ID,
		},
		{
			MedicalRecordNumber: "MRN-100004",
			FirstName:           "Walter",
			LastName:            "Osei",
			DateOfBirth:         datePtr(1939, time.January, 30),
			Diagnosis:           "COPD exacerbation",
			DischargeDate:       daysAgoPtr(2),
			RequiredFollowUp:    "Pulmonology within 5 days",
			Insurance:           "Uninsured",
			Address:             "County Road 12, Harlan",
			ReferringProviderID: providers[3].ID,
		},
		{
			MedicalRecordNumber: "MRN-100005",
			FirstName:           "Sofia",
			LastName:            "Delgado",
			DateOfBirth:         datePtr(1994, time.May, 8),
			Diagnosis:           "Routine checkup",
			DischargeDate:       daysAgoPtr(200),
			RequiredFollowUp:    "",
			Insurance:           "Private HMO",
			Address:             "88 Birchwood Lane",
			ReferringProviderID: providers[2].ID,
		},
		{
			MedicalRecordNumber: "MRN-100006",
			FirstName:           "Gregory",
			LastName:            "Hale",
			DateOfBirth:         datePtr(1962, time.September, 17),
			Diagnosis:           "Stroke recovery",
			DischargeDate:       daysAgoPtr(6),
			RequiredFollowUp:    "Neurology and physical therapy",
			Insurance:           "Medicare",
			Address:             "Underserved district, 5th Ward",
			ReferringProviderID: providers[0].ID,
		},
	}

	created := 0
	for i := range patients {
		patient := &patients[i]
		patient.ID = uuid.New().String()
		patient.IsActive = true
		patient.CreatedAt = now
		patient.UpdatedAt = now

		// Create through the service so risk snapshots and the search
		// index are populated the same way the API would.
		if err := patientService.Create(ctx, patient); err != nil {
			log.Printf("Failed to create patient %s: %v", patient.FullName(), err)
			continue
		}
		created++
		log.Printf("Seeded %s (risk %d, %s)", patient.FullName(), *patient.RiskScore, *patient.RiskLevel)
	}

	log.Printf("Seeding complete: %d providers, %d patients", len(providers), created)
}

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func daysAgoPtr(days int) *time.Time {
	t := time.Now().AddDate(0, 0, -days)
	return &t
}
