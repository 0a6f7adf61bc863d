package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/careloop/careops-dashboard/internal/domain/entities"
	"github.com/careloop/careops-dashboard/internal/domain/repositories"
	"github.com/careloop/careops-dashboard/internal/infrastructure/clients/postgres"
	apperrors "github.com/careloop/careops-dashboard/pkg/errors"
)

var patientColumns = []interface{}{
	"id", "medical_record_number", "first_name", "last_name", "date_of_birth",
	"diagnosis", "discharge_date", "required_followup", "insurance", "address",
	"referring_provider_id", "risk_score", "risk_level",
	"is_active", "created_at", "updated_at",
}

// PatientAdapter implements PatientRepository on PostgreSQL
type PatientAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPatientAdapter creates a new patient adapter
func NewPatientAdapter(client *postgres.Client) repositories.PatientRepository {
	return &PatientAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new patient record
func (a *PatientAdapter) Create(ctx context.Context, patient *entities.Patient) error {
	query, args, err := a.db.Insert("patients").Rows(patientRecord(patient, true)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err = a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create patient", err)
	}

	return nil
}

// GetByID retrieves a patient by ID
func (a *PatientAdapter) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	query, args, err := a.db.Select(patientColumns...).
		From("patients").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	patient, err := scanPatient(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get patient", err)
	}

	return patient, nil
}

// GetByIDs retrieves multiple patients by their IDs
func (a *PatientAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error) {
	if len(ids) == 0 {
		return []*entities.Patient{}, nil
	}

	query, args, err := a.db.Select(patientColumns...).
		From("patients").
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryPatients(ctx, query, args)
}

// Update updates a patient record. The caller owns the updated_at stamp.
func (a *PatientAdapter) Update(ctx context.Context, patient *entities.Patient) error {
	query, args, err := a.db.Update("patients").
		Set(patientRecord(patient, false)).
		Where(goqu.Ex{"id": patient.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update patient", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", patient.ID))
	}

	return nil
}

// Delete soft-deletes a patient record
func (a *PatientAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Update("patients").
		Set(goqu.Record{"is_active": false}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete patient", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
	}

	return nil
}

// List retrieves patients with filters
func (a *PatientAdapter) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.Patient, error) {
	ds := a.db.Select(patientColumns...).From("patients")

	if filter.ReferringProviderID != "" {
		ds = ds.Where(goqu.Ex{"referring_provider_id": filter.ReferringProviderID})
	}
	if filter.RiskLevel != "" {
		ds = ds.Where(goqu.Ex{"risk_level": filter.RiskLevel})
	}
	if filter.IsActive != nil {
		ds = ds.Where(goqu.Ex{"is_active": *filter.IsActive})
	}

	ds = ds.Order(goqu.I("last_name").Asc(), goqu.I("first_name").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.queryPatients(ctx, query, args)
}

func (a *PatientAdapter) queryPatients(ctx context.Context, query string, args []interface{}) ([]*entities.Patient, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list patients", err)
	}
	defer rows.Close()

	var patients []*entities.Patient
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan patient", err)
		}
		patients = append(patients, patient)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate patients", err)
	}

	return patients, nil
}

// patientRecord builds the goqu record for inserts and updates. created_at
// only travels on insert.
func patientRecord(patient *entities.Patient, includeCreate bool) goqu.Record {
	record := goqu.Record{
		"medical_record_number": patient.MedicalRecordNumber,
		"first_name":            patient.FirstName,
		"last_name":             patient.LastName,
		"date_of_birth":         nullTime(patient.DateOfBirth),
		"diagnosis":             patient.Diagnosis,
		"discharge_date":        nullTime(patient.DischargeDate),
		"required_followup":     patient.RequiredFollowUp,
		"insurance":             patient.Insurance,
		"address":               patient.Address,
		"referring_provider_id": sql.NullString{String: patient.ReferringProviderID, Valid: patient.ReferringProviderID != ""},
		"risk_score":            nullInt(patient.RiskScore),
		"risk_level":            nullLevel(patient.RiskLevel),
		"is_active":             patient.IsActive,
		"updated_at":            patient.UpdatedAt,
	}
	if includeCreate {
		record["id"] = patient.ID
		record["created_at"] = patient.CreatedAt
	}
	return record
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row rowScanner) (*entities.Patient, error) {
	patient := &entities.Patient{}
	var (
		dob, discharge sql.NullTime
		referrer       sql.NullString
		riskScore      sql.NullInt64
		riskLevel      sql.NullString
	)

	err := row.Scan(
		&patient.ID,
		&patient.MedicalRecordNumber,
		&patient.FirstName,
		&patient.LastName,
		&dob,
		&patient.Diagnosis,
		&discharge,
		&patient.RequiredFollowUp,
		&patient.Insurance,
		&patient.Address,
		&referrer,
		&riskScore,
		&riskLevel,
		&patient.IsActive,
		&patient.CreatedAt,
		&patient.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dob.Valid {
		d := dob.Time
		patient.DateOfBirth = &d
	}
	if discharge.Valid {
		d := discharge.Time
		patient.DischargeDate = &d
	}
	patient.ReferringProviderID = referrer.String
	if riskScore.Valid {
		score := int(riskScore.Int64)
		patient.RiskScore = &score
	}
	if riskLevel.Valid {
		level := entities.RiskLevel(riskLevel.String)
		patient.RiskLevel = &level
	}

	return patient, nil
}
