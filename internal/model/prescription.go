package model

import (
	"time"
)

// Prescription is stored as a document keyed by appointment.
type Prescription struct {
	ID            string    `json:"id"`
	AppointmentID int64     `json:"appointment_id" validate:"required"`
	PatientName   string    `json:"patient_name" validate:"required,min=3,max=100"`
	Medication    string    `json:"medication" validate:"required,min=3,max=100"`
	Dosage        string    `json:"dosage" validate:"required"`
	DoctorNotes   string    `json:"doctor_notes,omitempty" validate:"max=200"`
	CreatedAt     time.Time `json:"created_at"`
}

type CreatePrescriptionRequest struct {
	AppointmentID int64  `json:"appointment_id" binding:"required"`
	PatientName   string `json:"patient_name" binding:"required,min=3,max=100"`
	Medication    string `json:"medication" binding:"required,min=3,max=100"`
	Dosage        string `json:"dosage" binding:"required"`
	DoctorNotes   string `json:"doctor_notes" binding:"max=200"`
}
