package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/careops-dashboard/internal/domain/entities"
)

func TestPatientFromDocument_FullDocument(t *testing.T) {
	dob := time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC)
	discharge := time.Date(2025, time.June, 8, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)

	// JSON numbers decode as float64, which is what Typesense hands back
	doc := map[string]interface{}{
		"id":                    "p1",
		"full_name":             "Eleanor Vance",
		"first_name":            "Eleanor",
		"last_name":             "Vance",
		"medical_record_number": "MRN-0001",
		"diagnosis":             "Hip Replacement",
		"insurance":             "Medicare",
		"address":               "Rural Route 9",
		"is_active":             true,
		"risk_level":            "critical",
		"risk_score":            float64(83),
		"date_of_birth":         float64(dob.Unix()),
		"discharge_date":        float64(discharge.Unix()),
		"created_at":            float64(created.Unix()),
	}

	patient := patientFromDocument(doc)

	assert.Equal(t, "p1", patient.ID)
	assert.Equal(t, "Eleanor Vance", patient.FullName())
	assert.Equal(t, "MRN-0001", patient.MedicalRecordNumber)
	assert.Equal(t, "Hip Replacement", patient.Diagnosis)
	assert.Equal(t, "Medicare", patient.Insurance)
	assert.True(t, patient.IsActive)

	require.NotNil(t, patient.RiskLevel)
	assert.Equal(t, entities.RiskLevelCritical, *patient.RiskLevel)
	require.NotNil(t, patient.RiskScore)
	assert.Equal(t, 83, *patient.RiskScore)

	require.NotNil(t, patient.DateOfBirth)
	assert.True(t, patient.DateOfBirth.Equal(dob))
	require.NotNil(t, patient.DischargeDate)
	assert.True(t, patient.DischargeDate.Equal(discharge))
	assert.True(t, patient.CreatedAt.Equal(created))
}

func TestPatientFromDocument_MissingOptionalFields(t *testing.T) {
	doc := map[string]interface{}{
		"id":         "p2",
		"first_name": "Sofia",
		"last_name":  "Delgado",
		"risk_level": "",
		"is_active":  true,
		"created_at": float64(time.Now().Unix()),
	}

	patient := patientFromDocument(doc)

	assert.Equal(t, "p2", patient.ID)
	assert.Nil(t, patient.RiskLevel)
	assert.Nil(t, patient.DateOfBirth)
	assert.Nil(t, patient.DischargeDate)
}

func TestPatientFromDocument_IgnoresWrongTypes(t *testing.T) {
	doc := map[string]interface{}{
		"id":            "p3",
		"first_name":    42,
		"date_of_birth": "not-a-timestamp",
	}

	patient := patientFromDocument(doc)

	assert.Equal(t, "p3", patient.ID)
	assert.Empty(t, patient.FirstName)
	assert.Nil(t, patient.DateOfBirth)
}
