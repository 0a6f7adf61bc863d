package services

import (
	"math"
	"strings"
	"time"

	"github.com/careloop/careops-dashboard/internal/domain/entities"
)

// RiskScoringService computes the leakage risk assessment for a patient
// record: five independent factor scores, a weighted aggregate in [0,100],
// and a categorical level. It holds no state beyond the clock; every call
// derives everything fresh from the input record and never mutates it.
//
// Malformed or missing input never fails a calculation. Each factor falls
// back to its documented default so a partial record still produces a
// usable estimate for clinical staff instead of blocking the dashboard.
type RiskScoringService struct {
	now func() time.Time
}

// NewRiskScoringService creates a scoring service using the system clock.
func NewRiskScoringService() *RiskScoringService {
	return &RiskScoringService{now: time.Now}
}

// NewRiskScoringServiceWithClock creates a scoring service with a fixed
// clock, used by tests and anywhere deterministic output is required.
func NewRiskScoringServiceWithClock(now func() time.Time) *RiskScoringService {
	return &RiskScoringService{now: now}
}

// CalculateLeakageRisk computes the risk assessment for a patient record.
// The wall clock is read exactly once so age and days-since-discharge are
// mutually consistent across a day or year boundary.
func (s *RiskScoringService) CalculateLeakageRisk(patient *entities.Patient) entities.RiskAssessment {
	now := s.now()

	factors := entities.RiskFactors{
		Age:                 ageRiskScore(patient.DateOfBirth, now),
		DiagnosisComplexity: diagnosisComplexityScore(patient.Diagnosis),
		TimeSinceDischarge:  dischargeRiskScore(patient.DischargeDate, now),
		InsuranceType:       insuranceRiskScore(patient.Insurance),
		GeographicFactors:   geographicRiskScore(patient.Address),
	}

	weighted := float64(factors.Age)*WeightAge +
		float64(factors.DiagnosisComplexity)*WeightDiagnosisComplexity +
		float64(factors.TimeSinceDischarge)*WeightTimeSinceDischarge +
		float64(factors.InsuranceType)*WeightInsuranceType +
		float64(factors.GeographicFactors)*WeightGeographicFactors

	score := int(math.Round(weighted))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return entities.RiskAssessment{
		Score:   score,
		Level:   BucketRiskLevel(score),
		Factors: factors,
	}
}

// EnhancePatient returns a new enhanced record: the input's fields plus
// derived age, days since discharge, and a freshly computed assessment.
// Stored risk fields on the input are ignored in favor of the fresh
// values; the input itself is never modified.
func (s *RiskScoringService) EnhancePatient(patient *entities.Patient) *entities.EnhancedPatient {
	now := s.now()
	return &entities.EnhancedPatient{
		Patient:            *patient,
		Age:                calculateAge(patient.DateOfBirth, now),
		DaysSinceDischarge: calculateDaysSinceDischarge(patient.DischargeDate, now),
		LeakageRisk:        s.CalculateLeakageRisk(patient),
	}
}

// EnhancePatients enhances a batch of records
func (s *RiskScoringService) EnhancePatients(patients []*entities.Patient) []*entities.EnhancedPatient {
	enhanced := make([]*entities.EnhancedPatient, len(patients))
	for i, p := range patients {
		enhanced[i] = s.EnhancePatient(p)
	}
	return enhanced
}

// calculateAge returns whole calendar years between dateOfBirth and now,
// decrementing the naive year difference when the birthday has not been
// reached yet this year. Missing dates yield 0.
func calculateAge(dateOfBirth *time.Time, now time.Time) int {
	if dateOfBirth == nil {
		return 0
	}
	dob := *dateOfBirth
	if dob.After(now) {
		return 0
	}

	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// calculateDaysSinceDischarge returns whole days between the discharge
// date and now, floor-rounded. Missing or future discharge dates yield 0
// so they never produce a negative risk signal.
func calculateDaysSinceDischarge(dischargeDate *time.Time, now time.Time) int {
	if dischargeDate == nil {
		return 0
	}
	days := int(math.Floor(now.Sub(*dischargeDate).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

// ageRiskScore maps patient age onto the age band table. Unknown dates of
// birth contribute no age risk.
func ageRiskScore(dateOfBirth *time.Time, now time.Time) int {
	if dateOfBirth == nil {
		return 0
	}
	age := calculateAge(dateOfBirth, now)
	for _, band := range AgeRiskBands {
		if age >= band.MinAge {
			return band.Score
		}
	}
	return 0
}

// dischargeRiskScore maps days since discharge onto the discharge band
// table. Missing and future dates contribute no discharge risk; without
// the future check a not-yet-happened discharge would land in the
// freshest band and score the maximum.
func dischargeRiskScore(dischargeDate *time.Time, now time.Time) int {
	if dischargeDate == nil || dischargeDate.After(now) {
		return 0
	}
	days := calculateDaysSinceDischarge(dischargeDate, now)
	for _, band := range DischargeRiskBands {
		if days <= band.MaxDays {
			return band.Score
		}
	}
	return DischargeRiskFloor
}

// diagnosisComplexityScore matches the diagnosis text against the
// complexity table, falling back to the default for unknown or blank
// diagnoses.
func diagnosisComplexityScore(diagnosis string) int {
	return matchKeywordScore(diagnosis, DiagnosisComplexityScores, DiagnosisComplexityDefault)
}

// insuranceRiskScore matches the insurance description against the
// insurance table.
func insuranceRiskScore(insurance string) int {
	return matchKeywordScore(insurance, InsuranceRiskScores, InsuranceRiskDefault)
}

// geographicRiskScore matches the address text against the known area
// markers.
func geographicRiskScore(address string) int {
	return matchKeywordScore(address, GeographicRiskMarkers, GeographicRiskDefault)
}

// matchKeywordScore performs the case-insensitive substring lookup shared
// by the three text factors. First matching fragment wins.
func matchKeywordScore(text string, table []KeywordScore, defaultScore int) int {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return defaultScore
	}
	for _, entry := range table {
		if strings.Contains(normalized, entry.Keyword) {
			return entry.Score
		}
	}
	return defaultScore
}
