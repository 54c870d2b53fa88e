package dto

import (
	"time"

	"github.com/google/uuid"
)

type BookAppointmentRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      time.Time `json:"date"`
	SlotStart string    `json:"slot_start"`
	SlotEnd   string    `json:"slot_end"`
	Symptoms  string    `json:"symptoms"`
}
