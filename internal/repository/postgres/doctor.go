package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

const doctorColumns = `id, name, specialty, email, phone, password_hash, availability, created_at, updated_at`

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			name, specialty, email, phone, password_hash, availability,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	doctor.Touch(time.Now())

	err := r.db.QueryRowxContext(ctx, query,
		doctor.Name,
		doctor.Specialty,
		doctor.Email,
		doctor.Phone,
		doctor.PasswordHash,
		doctor.Availability,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	).Scan(&doctor.ID)
	return translate("failed to create doctor", err)
}

func (r *doctorRepository) Get(ctx context.Context, id int64) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, translate("failed to get doctor", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE email = $1`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, email); err != nil {
		return nil, translate("failed to get doctor", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors
		SET name = $1, specialty = $2, email = $3, phone = $4,
			password_hash = $5, availability = $6, updated_at = $7
		WHERE id = $8
	`
	doctor.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		doctor.Name,
		doctor.Specialty,
		doctor.Email,
		doctor.Phone,
		doctor.PasswordHash,
		doctor.Availability,
		doctor.UpdatedAt,
		doctor.ID,
	)
	if err != nil {
		return translate("failed to update doctor", err)
	}
	return requireAffected("doctor", result)
}

func (r *doctorRepository) Delete(ctx context.Context, id int64) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM appointments WHERE doctor_id = $1`, id); err != nil {
			return translate("failed to delete doctor appointments", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
		if err != nil {
			return translate("failed to delete doctor", err)
		}
		return requireAffected("doctor", result)
	})
}

func (r *doctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors ORDER BY id ASC`
	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query); err != nil {
		return nil, translate("failed to list doctors", err)
	}
	return doctors, nil
}

func (r *doctorRepository) Search(ctx context.Context, name, specialty string) ([]*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE 1=1`
	var args []interface{}

	if name != "" {
		args = append(args, likePattern(name))
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if specialty != "" {
		args = append(args, specialty)
		query += fmt.Sprintf(" AND lower(specialty) = lower($%d)", len(args))
	}
	query += ` ORDER BY id ASC`

	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, translate("failed to search doctors", err)
	}
	return doctors, nil
}
