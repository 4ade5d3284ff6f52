package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

const appointmentSelect = `
	SELECT a.id, a.doctor_id, a.patient_id, a.appointment_time, a.status,
		   a.created_at, a.updated_at,
		   d.name AS doctor_name,
		   p.name AS patient_name, p.email AS patient_email, p.phone AS patient_phone
	FROM appointments a
	JOIN doctors d ON d.id = a.doctor_id
	JOIN patients p ON p.id = a.patient_id
`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (doctor_id, patient_id, appointment_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	appointment.Touch(time.Now())

	err := r.db.QueryRowxContext(ctx, query,
		appointment.DoctorID,
		appointment.PatientID,
		appointment.AppointmentTime,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	).Scan(&appointment.ID)
	return translate("failed to create appointment", err)
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	query := appointmentSelect + ` WHERE a.id = $1`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, translate("failed to get appointment", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET doctor_id = $1, patient_id = $2, appointment_time = $3, status = $4, updated_at = $5
		WHERE id = $6
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appointment.DoctorID,
		appointment.PatientID,
		appointment.AppointmentTime,
		appointment.Status,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return translate("failed to update appointment", err)
	}
	return requireAffected("appointment", result)
}

func (r *appointmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return translate("failed to delete appointment", err)
	}
	return requireAffected("appointment", result)
}

func (r *appointmentRepository) List(ctx context.Context, q repository.AppointmentQuery) ([]*model.Appointment, error) {
	query := appointmentSelect + ` WHERE 1=1`
	var args []interface{}
	add := func(clause string, v interface{}) {
		args = append(args, v)
		query += fmt.Sprintf(clause, len(args))
	}

	if q.DoctorID != 0 {
		add(" AND a.doctor_id = $%d", q.DoctorID)
	}
	if q.PatientID != 0 {
		add(" AND a.patient_id = $%d", q.PatientID)
	}
	if !q.From.IsZero() {
		add(" AND a.appointment_time >= $%d", q.From)
	}
	if !q.To.IsZero() {
		add(" AND a.appointment_time <= $%d", q.To)
	}
	if !q.After.IsZero() {
		add(" AND a.appointment_time > $%d", q.After)
	}
	if !q.Before.IsZero() {
		add(" AND a.appointment_time < $%d", q.Before)
	}
	if q.PatientName != "" {
		add(" AND p.name ILIKE $%d", likePattern(q.PatientName))
	}
	if q.DoctorName != "" {
		add(" AND d.name ILIKE $%d", likePattern(q.DoctorName))
	}

	query += " ORDER BY a.appointment_time ASC, a.id ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, translate("failed to list appointments", err)
	}
	return appointments, nil
}
