package models

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medlink/teleconsult/internal/domain/input"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

var (
	// ErrNotConfirmed means the appointment is not in a joinable state.
	ErrNotConfirmed = errors.New("not_confirmed")
	// ErrNotParticipant means the identity is neither the patient nor the doctor.
	ErrNotParticipant = errors.New("not_participant")

	ErrInvalidTransition = errors.New("invalid status transition")
)

type Appointment struct {
	ID        uuid.UUID         `json:"id" db:"id"`
	PatientID uuid.UUID         `json:"patient_id" db:"patient_id"`
	DoctorID  uuid.UUID         `json:"doctor_id" db:"doctor_id"`
	Date      time.Time         `json:"date" db:"date"`
	SlotStart string            `json:"slot_start" db:"slot_start"`
	SlotEnd   string            `json:"slot_end" db:"slot_end"`
	Status    AppointmentStatus `json:"status" db:"status"`
	Symptoms  string            `json:"symptoms" db:"symptoms"`
	Notes     string            `json:"notes" db:"notes"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" db:"updated_at"`
}

func NewAppointment(in *input.BookAppointmentInput) *Appointment {
	return &Appointment{
		ID:        uuid.New(),
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		Date:      in.Date,
		SlotStart: in.SlotStart,
		SlotEnd:   in.SlotEnd,
		Status:    StatusPending,
		Symptoms:  in.Symptoms,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// CanJoin is the call room gate. It must be evaluated on every join attempt:
// the status can change between the patient navigating to the call screen and
// the actual join (a doctor may decline in between).
func (a *Appointment) CanJoin(identity uuid.UUID) error {
	if a.Status != StatusConfirmed {
		return ErrNotConfirmed
	}

	if identity != a.PatientID && identity != a.DoctorID {
		return ErrNotParticipant
	}

	return nil
}

// Confirm moves a pending appointment to confirmed (doctor accepts).
func (a *Appointment) Confirm() error {
	if a.Status != StatusPending {
		return ErrInvalidTransition
	}

	a.Status = StatusConfirmed
	a.UpdatedAt = time.Now()

	return nil
}

// Cancel is valid for pending and confirmed appointments, both for a doctor
// declining and a patient cancelling.
func (a *Appointment) Cancel() error {
	if a.Status != StatusPending && a.Status != StatusConfirmed {
		return ErrInvalidTransition
	}

	a.Status = StatusCancelled
	a.UpdatedAt = time.Now()

	return nil
}

// Complete closes out a confirmed appointment after the consultation.
func (a *Appointment) Complete() error {
	if a.Status != StatusConfirmed {
		return ErrInvalidTransition
	}

	a.Status = StatusCompleted
	a.UpdatedAt = time.Now()

	return nil
}
