// Package memory provides map-backed repositories with the same contracts as
// the postgres ones. It backs the "memory" database driver and service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

type slotKey struct {
	doctorID int64
	at       int64
}

// Store holds every table behind one lock.
type Store struct {
	mu            sync.RWMutex
	nextID        int64
	admins        map[int64]*model.Admin
	doctors       map[int64]*model.Doctor
	patients      map[int64]*model.Patient
	appointments  map[int64]*model.Appointment
	slots         map[slotKey]int64
	prescriptions map[int64][]*model.Prescription
}

func NewStore() *Store {
	return &Store{
		admins:        make(map[int64]*model.Admin),
		doctors:       make(map[int64]*model.Doctor),
		patients:      make(map[int64]*model.Patient),
		appointments:  make(map[int64]*model.Appointment),
		slots:         make(map[slotKey]int64),
		prescriptions: make(map[int64][]*model.Prescription),
	}
}

func (s *Store) Admins() repository.AdminRepository { return adminRepo{s} }
func (s *Store) Doctors() repository.DoctorRepository { return doctorRepo{s} }
func (s *Store) Patients() repository.PatientRepository { return patientRepo{s} }
func (s *Store) Appointments() repository.AppointmentRepository { return appointmentRepo{s} }
func (s *Store) Prescriptions() repository.PrescriptionRepository { return prescriptionRepo{s} }

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func key(doctorID int64, at time.Time) slotKey {
	return slotKey{doctorID: doctorID, at: at.UnixNano()}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

type adminRepo struct{ s *Store }

func (r adminRepo) Create(ctx context.Context, admin *model.Admin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, a := range r.s.admins {
		if a.Username == admin.Username {
			return fmt.Errorf("failed to create admin: %w", repository.ErrDuplicate)
		}
	}
	admin.ID = r.s.id()
	admin.Touch(time.Now())
	cp := *admin
	r.s.admins[admin.ID] = &cp
	return nil
}

func (r adminRepo) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.admins {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("failed to get admin: %w", repository.ErrNotFound)
}

type doctorRepo struct{ s *Store }

func (r doctorRepo) emailTaken(email string, except int64) bool {
	for _, d := range r.s.doctors {
		if d.Email == email && d.ID != except {
			return true
		}
	}
	return false
}

func copyDoctor(d *model.Doctor) *model.Doctor {
	cp := *d
	cp.Availability = append([]string(nil), d.Availability...)
	return &cp
}

func (r doctorRepo) Create(ctx context.Context, doctor *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTaken(doctor.Email, 0) {
		return fmt.Errorf("failed to create doctor: %w", repository.ErrDuplicate)
	}
	doctor.ID = r.s.id()
	doctor.Touch(time.Now())
	r.s.doctors[doctor.ID] = copyDoctor(doctor)
	return nil
}

func (r doctorRepo) Get(ctx context.Context, id int64) (*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.doctors[id]
	if !ok {
		return nil, fmt.Errorf("failed to get doctor: %w", repository.ErrNotFound)
	}
	return copyDoctor(d), nil
}

func (r doctorRepo) GetByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, d := range r.s.doctors {
		if d.Email == email {
			return copyDoctor(d), nil
		}
	}
	return nil, fmt.Errorf("failed to get doctor: %w", repository.ErrNotFound)
}

func (r doctorRepo) Update(ctx context.Context, doctor *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.doctors[doctor.ID]
	if !ok {
		return fmt.Errorf("doctor: %w", repository.ErrNotFound)
	}
	if r.emailTaken(doctor.Email, doctor.ID) {
		return fmt.Errorf("failed to update doctor: %w", repository.ErrDuplicate)
	}
	doctor.CreatedAt = existing.CreatedAt
	doctor.UpdatedAt = time.Now()
	r.s.doctors[doctor.ID] = copyDoctor(doctor)
	return nil
}

func (r doctorRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.doctors[id]; !ok {
		return fmt.Errorf("doctor: %w", repository.ErrNotFound)
	}
	for aid, a := range r.s.appointments {
		if a.DoctorID == id {
			delete(r.s.slots, key(a.DoctorID, a.AppointmentTime))
			delete(r.s.appointments, aid)
		}
	}
	delete(r.s.doctors, id)
	return nil
}

func (r doctorRepo) List(ctx context.Context) ([]*model.Doctor, error) {
	return r.Search(ctx, "", "")
}

func (r doctorRepo) Search(ctx context.Context, name, specialty string) ([]*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.Doctor
	for _, d := range r.s.doctors {
		if name != "" && !containsFold(d.Name, name) {
			continue
		}
		if specialty != "" && !strings.EqualFold(d.Specialty, specialty) {
			continue
		}
		out = append(out, copyDoctor(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type patientRepo struct{ s *Store }

func (r patientRepo) Create(ctx context.Context, patient *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.patients {
		if p.Email == patient.Email || p.Phone == patient.Phone {
			return fmt.Errorf("failed to create patient: %w", repository.ErrDuplicate)
		}
	}
	patient.ID = r.s.id()
	patient.Touch(time.Now())
	cp := *patient
	r.s.patients[patient.ID] = &cp
	return nil
}

func (r patientRepo) Get(ctx context.Context, id int64) (*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.patients[id]
	if !ok {
		return nil, fmt.Errorf("failed to get patient: %w", repository.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (r patientRepo) GetByEmail(ctx context.Context, email string) (*model.Patient, error) {
	return r.find(func(p *model.Patient) bool { return p.Email == email })
}

func (r patientRepo) FindByEmailOrPhone(ctx context.Context, email, phone string) (*model.Patient, error) {
	return r.find(func(p *model.Patient) bool { return p.Email == email || p.Phone == phone })
}

func (r patientRepo) find(match func(*model.Patient) bool) (*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.patients {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("failed to find patient: %w", repository.ErrNotFound)
}

type appointmentRepo struct{ s *Store }

// join fills the listing-only name fields, as the SQL join does.
func (r appointmentRepo) join(a *model.Appointment) *model.Appointment {
	cp := *a
	if d, ok := r.s.doctors[a.DoctorID]; ok {
		cp.DoctorName = d.Name
	}
	if p, ok := r.s.patients[a.PatientID]; ok {
		cp.PatientName = p.Name
		cp.PatientEmail = p.Email
		cp.PatientPhone = p.Phone
	}
	return &cp
}

// checkRefs mirrors the appointments foreign keys. Caller holds the lock.
func (r appointmentRepo) checkRefs(a *model.Appointment) error {
	if _, ok := r.s.doctors[a.DoctorID]; !ok {
		return fmt.Errorf("doctor %d: %w", a.DoctorID, repository.ErrUnknownDoctor)
	}
	if _, ok := r.s.patients[a.PatientID]; !ok {
		return fmt.Errorf("patient %d: %w", a.PatientID, repository.ErrUnknownPatient)
	}
	return nil
}

func (r appointmentRepo) Create(ctx context.Context, appointment *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkRefs(appointment); err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	k := key(appointment.DoctorID, appointment.AppointmentTime)
	if _, taken := r.s.slots[k]; taken {
		return fmt.Errorf("failed to create appointment: %w", repository.ErrDuplicate)
	}

	appointment.ID = r.s.id()
	appointment.Touch(time.Now())
	stored := *appointment
	stored.DoctorName, stored.PatientName, stored.PatientEmail, stored.PatientPhone = "", "", "", ""
	r.s.appointments[appointment.ID] = &stored
	r.s.slots[k] = appointment.ID
	return nil
}

func (r appointmentRepo) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return nil, fmt.Errorf("failed to get appointment: %w", repository.ErrNotFound)
	}
	return r.join(a), nil
}

func (r appointmentRepo) Update(ctx context.Context, appointment *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.appointments[appointment.ID]
	if !ok {
		return fmt.Errorf("appointment: %w", repository.ErrNotFound)
	}
	if err := r.checkRefs(appointment); err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	k := key(appointment.DoctorID, appointment.AppointmentTime)
	if owner, taken := r.s.slots[k]; taken && owner != appointment.ID {
		return fmt.Errorf("failed to update appointment: %w", repository.ErrDuplicate)
	}

	delete(r.s.slots, key(existing.DoctorID, existing.AppointmentTime))
	appointment.CreatedAt = existing.CreatedAt
	appointment.UpdatedAt = time.Now()
	stored := *appointment
	stored.DoctorName, stored.PatientName, stored.PatientEmail, stored.PatientPhone = "", "", "", ""
	r.s.appointments[appointment.ID] = &stored
	r.s.slots[k] = appointment.ID
	return nil
}

func (r appointmentRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return fmt.Errorf("appointment: %w", repository.ErrNotFound)
	}
	delete(r.s.slots, key(a.DoctorID, a.AppointmentTime))
	delete(r.s.appointments, id)
	return nil
}

func (r appointmentRepo) List(ctx context.Context, q repository.AppointmentQuery) ([]*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.Appointment
	for _, stored := range r.s.appointments {
		a := r.join(stored)
		t := a.AppointmentTime
		switch {
		case q.DoctorID != 0 && a.DoctorID != q.DoctorID,
			q.PatientID != 0 && a.PatientID != q.PatientID,
			!q.From.IsZero() && t.Before(q.From),
			!q.To.IsZero() && t.After(q.To),
			!q.After.IsZero() && !t.After(q.After),
			!q.Before.IsZero() && !t.Before(q.Before),
			q.PatientName != "" && !containsFold(a.PatientName, q.PatientName),
			q.DoctorName != "" && !containsFold(a.DoctorName, q.DoctorName):
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AppointmentTime.Equal(out[j].AppointmentTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].AppointmentTime.Before(out[j].AppointmentTime)
	})
	return out, nil
}

type prescriptionRepo struct{ s *Store }

func (r prescriptionRepo) Save(ctx context.Context, prescription *model.Prescription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if prescription.ID == "" {
		prescription.ID = uuid.NewString()
	}
	if prescription.CreatedAt.IsZero() {
		prescription.CreatedAt = time.Now()
	}
	cp := *prescription
	r.s.prescriptions[prescription.AppointmentID] = append(r.s.prescriptions[prescription.AppointmentID], &cp)
	return nil
}

func (r prescriptionRepo) ListByAppointment(ctx context.Context, appointmentID int64) ([]*model.Prescription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Prescription, 0, len(r.s.prescriptions[appointmentID]))
	for _, p := range r.s.prescriptions[appointmentID] {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}
