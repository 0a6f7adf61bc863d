package entities

// RiskLevel is the categorical bucket derived from the numeric risk score.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Valid reports whether the level is one of the four defined categories.
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical:
		return true
	}
	return false
}

// RiskFactors holds the raw (unweighted) per-factor scores shown in the
// dashboard's breakdown view. Each value is in [0,100] except where the
// factor's own range is narrower.
type RiskFactors struct {
	Age                 int `json:"age"`
	DiagnosisComplexity int `json:"diagnosisComplexity"`
	TimeSinceDischarge  int `json:"timeSinceDischarge"`
	InsuranceType       int `json:"insuranceType"`
	GeographicFactors   int `json:"geographicFactors"`
}

// RiskAssessment is the output of the leakage risk engine.
type RiskAssessment struct {
	Score   int         `json:"score"`
	Level   RiskLevel   `json:"level"`
	Factors RiskFactors `json:"factors"`
}
