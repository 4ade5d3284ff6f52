package model

import (
	"fmt"
	"time"
)

type AppointmentStatus int

const (
	AppointmentStatusScheduled AppointmentStatus = 0
	AppointmentStatusCompleted AppointmentStatus = 1
)

// AppointmentDuration is the fixed length of every booking.
const AppointmentDuration = time.Hour

const (
	DateLayout      = "2006-01-02"
	TimeOfDayLayout = "15:04"
)

func (s AppointmentStatus) Valid() bool {
	return s == AppointmentStatusScheduled || s == AppointmentStatusCompleted
}

func (s AppointmentStatus) String() string {
	switch s {
	case AppointmentStatusScheduled:
		return "scheduled"
	case AppointmentStatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("AppointmentStatus(%d)", int(s))
	}
}

type Appointment struct {
	Base
	DoctorID        int64             `db:"doctor_id" json:"doctor_id"`
	PatientID       int64             `db:"patient_id" json:"patient_id"`
	AppointmentTime time.Time         `db:"appointment_time" json:"appointment_time"`
	Status          AppointmentStatus `db:"status" json:"status"`

	// Joined for listings, never written.
	DoctorName   string `db:"doctor_name" json:"doctor_name,omitempty"`
	PatientName  string `db:"patient_name" json:"patient_name,omitempty"`
	PatientEmail string `db:"patient_email" json:"patient_email,omitempty"`
	PatientPhone string `db:"patient_phone" json:"patient_phone,omitempty"`
}

func (a *Appointment) EndTime() time.Time {
	return a.AppointmentTime.Add(AppointmentDuration)
}

func (a *Appointment) Date() string {
	return a.AppointmentTime.Format(DateLayout)
}

func (a *Appointment) TimeOfDay() string {
	return a.AppointmentTime.Format(TimeOfDayLayout)
}

// AppointmentResponse adds the derived fields to the stored record.
type AppointmentResponse struct {
	*Appointment
	EndTime time.Time `json:"end_time"`
	Date    string    `json:"date"`
	Time    string    `json:"time"`
}

func (a *Appointment) ToResponse() AppointmentResponse {
	return AppointmentResponse{
		Appointment: a,
		EndTime:     a.EndTime(),
		Date:        a.Date(),
		Time:        a.TimeOfDay(),
	}
}

func ToAppointmentResponses(apts []*Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(apts))
	for _, apt := range apts {
		out = append(out, apt.ToResponse())
	}
	return out
}

type CreateAppointmentRequest struct {
	DoctorID        int64     `json:"doctor_id" binding:"required"`
	AppointmentTime time.Time `json:"appointment_time" binding:"required,future"`
}

type UpdateAppointmentRequest struct {
	DoctorID        int64             `json:"doctor_id" binding:"required"`
	AppointmentTime time.Time         `json:"appointment_time" binding:"required"`
	Status          AppointmentStatus `json:"status" binding:"oneof=0 1"`
}

// AppointmentCondition narrows a patient's history relative to now.
type AppointmentCondition string

const (
	ConditionAny    AppointmentCondition = ""
	ConditionPast   AppointmentCondition = "past"
	ConditionFuture AppointmentCondition = "future"
)

type PatientAppointmentFilters struct {
	Condition  AppointmentCondition `form:"condition" binding:"omitempty,oneof=past future"`
	DoctorName string               `form:"doctor_name"`
}

type DoctorAppointmentFilters struct {
	Date        string `form:"date" binding:"required,datetime=2006-01-02"`
	PatientName string `form:"patient_name"`
}
