package entities

import (
	"time"
)

// PatientEventType identifies the kind of patient mutation being broadcast
type PatientEventType string

const (
	PatientEventUpdated PatientEventType = "patient.updated"
	PatientEventCreated PatientEventType = "patient.created"
	PatientEventDeleted PatientEventType = "patient.deleted"
)

// PatientEvent is published on the event bus whenever a patient record
// changes, so caches and dashboards can refresh.
type PatientEvent struct {
	ID        string           `json:"id"`
	Type      PatientEventType `json:"type"`
	PatientID string           `json:"patient_id"`
	RiskLevel RiskLevel        `json:"risk_level,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
