package services

import (
	"github.com/careloop/careops-dashboard/internal/domain/entities"
)

// The leakage risk policy lives in this file as versioned configuration.
// Clinical ops owns the numbers; the engine only applies them. Every table
// is exported so the bands and weights can be tested independently.

// AgeBand maps a minimum age in whole years to a risk contribution.
type AgeBand struct {
	MinAge int
	Score  int
}

// AgeRiskBands is a monotonic step function over patient age, evaluated
// top-down with first match winning. Range 0-30. An unknown date of birth
// contributes 0 instead of any band value.
var AgeRiskBands = []AgeBand{
	{MinAge: 75, Score: 30},
	{MinAge: 60, Score: 22},
	{MinAge: 40, Score: 12},
	{MinAge: 0, Score: 5},
}

// DischargeBand maps a maximum day count since discharge to a risk
// contribution. Risk peaks right after discharge and decays to a floor.
type DischargeBand struct {
	MaxDays int
	Score   int
}

// DischargeRiskBands is a decreasing step function over days since
// discharge, evaluated top-down with first match winning. Range 0-20.
// A missing or future discharge date contributes 0.
var DischargeRiskBands = []DischargeBand{
	{MaxDays: 7, Score: 20},
	{MaxDays: 30, Score: 15},
	{MaxDays: 90, Score: 10},
	{MaxDays: 180, Score: 5},
}

// DischargeRiskFloor applies beyond the last band (discharge older than
// 180 days).
const DischargeRiskFloor = 2

// KeywordScore pairs a lowercase fragment with the score assigned when the
// fragment appears in the matched field. Tables are ordered most specific
// first; the first matching fragment wins.
type KeywordScore struct {
	Keyword string
	Score   int
}

// DiagnosisComplexityScores maps diagnosis-name fragments to a complexity
// score in [0,100]. Matching is case-insensitive substring.
var DiagnosisComplexityScores = []KeywordScore{
	{Keyword: "heart failure", Score: 95},
	{Keyword: "stroke", Score: 95},
	{Keyword: "cardiac", Score: 90},
	{Keyword: "hip replacement", Score: 85},
	{Keyword: "cancer", Score: 85},
	{Keyword: "knee replacement", Score: 80},
	{Keyword: "copd", Score: 75},
	{Keyword: "pneumonia", Score: 65},
	{Keyword: "diabetes", Score: 60},
	{Keyword: "fracture", Score: 55},
	{Keyword: "hypertension", Score: 45},
	{Keyword: "physical therapy", Score: 30},
	{Keyword: "routine checkup", Score: 10},
}

// DiagnosisComplexityDefault applies when the diagnosis text matches no
// known fragment, including blank diagnoses.
const DiagnosisComplexityDefault = 40

// InsuranceRiskScores maps insurance-description fragments to a leakage
// risk score in [0,100]. Public or absent coverage correlates with losing
// the patient to out-of-network follow-up.
var InsuranceRiskScores = []KeywordScore{
	{Keyword: "uninsured", Score: 90},
	{Keyword: "self-pay", Score: 90},
	{Keyword: "self pay", Score: 90},
	{Keyword: "medicaid", Score: 80},
	{Keyword: "medicare", Score: 55},
	{Keyword: "hmo", Score: 35},
	{Keyword: "private", Score: 30},
	{Keyword: "ppo", Score: 25},
}

// InsuranceRiskDefault applies when the insurance text matches no known
// pattern, including blank descriptions.
const InsuranceRiskDefault = 50

// GeographicRiskMarkers maps address fragments for known underserved or
// high-risk areas to a score in [0,100].
var GeographicRiskMarkers = []KeywordScore{
	{Keyword: "homeless", Score: 95},
	{Keyword: "shelter", Score: 90},
	{Keyword: "underserved", Score: 85},
	{Keyword: "rural", Score: 75},
	{Keyword: "trailer", Score: 70},
	{Keyword: "county road", Score: 65},
}

// GeographicRiskDefault applies when no marker matches or the address is
// missing.
const GeographicRiskDefault = 30

// Factor weights applied to the raw factor scores when aggregating. Age
// and discharge factors already carry their weight in their 0-30 and 0-20
// ranges, so they enter at full value; the three 0-100 factors are scaled.
// Effective shares of the 100-point total: age 30%, diagnosis 25%,
// discharge 20%, insurance 15%, geography 10%.
const (
	WeightAge                 = 1.0
	WeightDiagnosisComplexity = 0.25
	WeightTimeSinceDischarge  = 1.0
	WeightInsuranceType       = 0.15
	WeightGeographicFactors   = 0.10
)

// Risk level thresholds partition [0,100] with no gaps: scores below
// ThresholdMedium are low, below ThresholdHigh are medium, below
// ThresholdCritical are high, and everything else is critical.
const (
	ThresholdMedium   = 25
	ThresholdHigh     = 50
	ThresholdCritical = 75
)

// BucketRiskLevel maps a clamped score to its categorical risk level.
func BucketRiskLevel(score int) entities.RiskLevel {
	switch {
	case score < ThresholdMedium:
		return entities.RiskLevelLow
	case score < ThresholdHigh:
		return entities.RiskLevelMedium
	case score < ThresholdCritical:
		return entities.RiskLevelHigh
	default:
		return entities.RiskLevelCritical
	}
}
