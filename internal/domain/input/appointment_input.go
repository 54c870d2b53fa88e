package input

import (
	"time"

	"github.com/google/uuid"
)

type BookAppointmentInput struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      time.Time
	SlotStart string
	SlotEnd   string
	Symptoms  string
}
