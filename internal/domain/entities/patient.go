package entities

import (
	"time"
)

// Patient represents a patient record as persisted by the data-access layer.
// Clinical free-text fields (diagnosis, insurance, address) are stored as
// entered by staff; the risk engine derives everything else from them.
type Patient struct {
	ID                  string     `json:"id" db:"id"`
	MedicalRecordNumber string     `json:"medical_record_number" db:"medical_record_number"`
	FirstName           string     `json:"first_name" db:"first_name"`
	LastName            string     `json:"last_name" db:"last_name"`
	DateOfBirth         *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Diagnosis           string     `json:"diagnosis" db:"diagnosis"`
	DischargeDate       *time.Time `json:"discharge_date,omitempty" db:"discharge_date"`
	RequiredFollowUp    string     `json:"required_followup" db:"required_followup"`
	Insurance           string     `json:"insurance" db:"insurance"`
	Address             string     `json:"address" db:"address"`
	ReferringProviderID string     `json:"referring_provider_id,omitempty" db:"referring_provider_id"`
	RiskScore           *int       `json:"risk_score,omitempty" db:"risk_score"`
	RiskLevel           *RiskLevel `json:"risk_level,omitempty" db:"risk_level"`
	IsActive            bool       `json:"is_active" db:"is_active"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// FullName returns the patient's display name
func (p *Patient) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// EnhancedPatient is the read model handed to the dashboard: the stored
// record plus derived display fields. It is recomputed on demand and never
// persisted as a whole; the stored RiskScore/RiskLevel on Patient may be
// stale while LeakageRisk is always fresh.
type EnhancedPatient struct {
	Patient
	Age                int            `json:"age"`
	DaysSinceDischarge int            `json:"days_since_discharge"`
	LeakageRisk        RiskAssessment `json:"leakage_risk"`
}
