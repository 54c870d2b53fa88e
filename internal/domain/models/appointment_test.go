package models

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medlink/teleconsult/internal/domain/input"
)

func testAppointment(status AppointmentStatus) *Appointment {
	a := NewAppointment(&input.BookAppointmentInput{
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		Date:      time.Now().Add(24 * time.Hour),
		SlotStart: "10:00",
		SlotEnd:   "10:30",
	})
	a.Status = status
	return a
}

func TestCanJoin(t *testing.T) {
	tests := []struct {
		name    string
		status  AppointmentStatus
		asOther bool
		want    error
	}{
		{name: "pending denied", status: StatusPending, want: ErrNotConfirmed},
		{name: "cancelled denied", status: StatusCancelled, want: ErrNotConfirmed},
		{name: "completed denied", status: StatusCompleted, want: ErrNotConfirmed},
		{name: "confirmed patient allowed", status: StatusConfirmed, want: nil},
		{name: "confirmed stranger denied", status: StatusConfirmed, asOther: true, want: ErrNotParticipant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testAppointment(tt.status)

			identity := a.PatientID
			if tt.asOther {
				identity = uuid.New()
			}

			if got := a.CanJoin(identity); !errors.Is(got, tt.want) {
				t.Fatalf("CanJoin: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanJoin_Doctor(t *testing.T) {
	a := testAppointment(StatusConfirmed)

	if err := a.CanJoin(a.DoctorID); err != nil {
		t.Fatalf("CanJoin doctor: got %v, want nil", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	a := testAppointment(StatusPending)

	if err := a.Complete(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("complete pending: got %v, want ErrInvalidTransition", err)
	}

	if err := a.Confirm(); err != nil {
		t.Fatalf("confirm pending: %v", err)
	}
	if a.Status != StatusConfirmed {
		t.Fatalf("status: got %s, want confirmed", a.Status)
	}

	if err := a.Confirm(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("confirm confirmed: got %v, want ErrInvalidTransition", err)
	}

	if err := a.Complete(); err != nil {
		t.Fatalf("complete confirmed: %v", err)
	}

	if err := a.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel completed: got %v, want ErrInvalidTransition", err)
	}
}

func TestCancel(t *testing.T) {
	for _, status := range []AppointmentStatus{StatusPending, StatusConfirmed} {
		a := testAppointment(status)
		if err := a.Cancel(); err != nil {
			t.Fatalf("cancel %s: %v", status, err)
		}
		if a.Status != StatusCancelled {
			t.Fatalf("status after cancel: got %s, want cancelled", a.Status)
		}
	}
}
