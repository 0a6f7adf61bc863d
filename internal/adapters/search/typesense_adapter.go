package search

import (
	"context"
	"fmt"
	"time"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/careloop/careops-dashboard/internal/domain/entities"
	"github.com/careloop/careops-dashboard/internal/domain/repositories"
	tsclient "github.com/careloop/careops-dashboard/internal/infrastructure/clients/typesense"
)

const collectionName = "patients"

// TypesenseAdapter implements patient search using Typesense. The index
// carries the fields staff search on plus everything the risk engine needs,
// so search hits can be enhanced without a second database round trip.
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.PatientSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the patients collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "full_name", Type: "string"},
			{Name: "first_name", Type: "string"},
			{Name: "last_name", Type: "string"},
			{Name: "medical_record_number", Type: "string"},
			{Name: "diagnosis", Type: "string"},
			{Name: "insurance", Type: "string"},
			{Name: "address", Type: "string"},
			{Name: "risk_level", Type: "string", Facet: pointer.True()},
			{Name: "risk_score", Type: "int32"},
			{Name: "is_active", Type: "bool"},
			{Name: "date_of_birth", Type: "int64", Optional: pointer.True()},
			{Name: "discharge_date", Type: "int64", Optional: pointer.True()},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}

	if _, err := a.client.Client().Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// Index upserts a patient document
func (a *TypesenseAdapter) Index(ctx context.Context, patient *entities.Patient) error {
	document := map[string]interface{}{
		"id":                    patient.ID,
		"full_name":             patient.FullName(),
		"first_name":            patient.FirstName,
		"last_name":             patient.LastName,
		"medical_record_number": patient.MedicalRecordNumber,
		"diagnosis":             patient.Diagnosis,
		"insurance":             patient.Insurance,
		"address":               patient.Address,
		"is_active":             patient.IsActive,
		"created_at":            patient.CreatedAt.Unix(),
	}
	if patient.RiskLevel != nil {
		document["risk_level"] = string(*patient.RiskLevel)
	} else {
		document["risk_level"] = ""
	}
	if patient.RiskScore != nil {
		document["risk_score"] = *patient.RiskScore
	} else {
		document["risk_score"] = 0
	}
	if patient.DateOfBirth != nil {
		document["date_of_birth"] = patient.DateOfBirth.Unix()
	}
	if patient.DischargeDate != nil {
		document["discharge_date"] = patient.DischargeDate.Unix()
	}

	if _, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document); err != nil {
		return fmt.Errorf("failed to index patient: %w", err)
	}

	return nil
}

// Delete removes a patient from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	if _, err := a.client.Client().Collection(collectionName).Document(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete patient from index: %w", err)
	}
	return nil
}

// Search runs a free-text query over names, MRN, diagnosis, insurance, and
// address
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.PatientSearchParams) ([]*entities.Patient, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 30
	}

	query := params.Query
	if query == "" {
		query = "*"
	}

	filter := "is_active:=true"
	if params.RiskLevel != "" {
		filter = fmt.Sprintf("%s && risk_level:=%s", filter, params.RiskLevel)
	}

	searchParams := &api.SearchCollectionParams{
		Q:        pointer.String(query),
		QueryBy:  pointer.String("full_name,medical_record_number,diagnosis,insurance,address"),
		FilterBy: pointer.String(filter),
		Page:     pointer.Int(params.Offset/limit + 1),
		PerPage:  pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search patients: %w", err)
	}

	patients := []*entities.Patient{}
	if result.Hits == nil {
		return patients, nil
	}
	for _, hit := range *result.Hits {
		patients = append(patients, patientFromDocument(*hit.Document))
	}

	return patients, nil
}

// patientFromDocument rebuilds a patient entity from an index hit.
// Typesense hands back map[string]interface{}, so every field is cast
// defensively.
func patientFromDocument(doc map[string]interface{}) *entities.Patient {
	patient := &entities.Patient{}

	if v, ok := doc["id"].(string); ok {
		patient.ID = v
	}
	if v, ok := doc["first_name"].(string); ok {
		patient.FirstName = v
	}
	if v, ok := doc["last_name"].(string); ok {
		patient.LastName = v
	}
	if v, ok := doc["medical_record_number"].(string); ok {
		patient.MedicalRecordNumber = v
	}
	if v, ok := doc["diagnosis"].(string); ok {
		patient.Diagnosis = v
	}
	if v, ok := doc["insurance"].(string); ok {
		patient.Insurance = v
	}
	if v, ok := doc["address"].(string); ok {
		patient.Address = v
	}
	if v, ok := doc["is_active"].(bool); ok {
		patient.IsActive = v
	}
	if v, ok := doc["risk_level"].(string); ok && v != "" {
		level := entities.RiskLevel(v)
		patient.RiskLevel = &level
	}
	if v, ok := doc["risk_score"].(float64); ok {
		score := int(v)
		patient.RiskScore = &score
	}
	if v, ok := doc["date_of_birth"].(float64); ok {
		dob := time.Unix(int64(v), 0).UTC()
		patient.DateOfBirth = &dob
	}
	if v, ok := doc["discharge_date"].(float64); ok {
		discharge := time.Unix(int64(v), 0).UTC()
		patient.DischargeDate = &discharge
	}
	if v, ok := doc["created_at"].(float64); ok {
		patient.CreatedAt = time.Unix(int64(v), 0).UTC()
	}

	return patient
}
