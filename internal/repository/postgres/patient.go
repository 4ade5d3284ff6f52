package postgres

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

const patientColumns = `id, name, email, phone, address, password_hash, created_at, updated_at`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (name, email, phone, address, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	patient.Touch(time.Now())

	err := r.db.QueryRowxContext(ctx, query,
		patient.Name,
		patient.Email,
		patient.Phone,
		patient.Address,
		patient.PasswordHash,
		patient.CreatedAt,
		patient.UpdatedAt,
	).Scan(&patient.ID)
	return translate("failed to create patient", err)
}

func (r *patientRepository) Get(ctx context.Context, id int64) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		return nil, translate("failed to get patient", err)
	}
	return &patient, nil
}

func (r *patientRepository) GetByEmail(ctx context.Context, email string) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE email = $1`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, email); err != nil {
		return nil, translate("failed to get patient", err)
	}
	return &patient, nil
}

func (r *patientRepository) FindByEmailOrPhone(ctx context.Context, email, phone string) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE email = $1 OR phone = $2 LIMIT 1`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, email, phone); err != nil {
		return nil, translate("failed to find patient", err)
	}
	return &patient, nil
}
