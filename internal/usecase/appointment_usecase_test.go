package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/medlink/teleconsult/internal/domain/input"
	"github.com/medlink/teleconsult/internal/domain/models"
)

type stubUsers struct {
	byID map[uuid.UUID]*models.User
}

func (s *stubUsers) CreateUser(u *models.User) error { return nil }
func (s *stubUsers) GetDoctors() ([]*models.User, error) {
	return nil, nil
}
func (s *stubUsers) GetUserByUsername(username string) (*models.User, error) {
	return nil, errors.New("no rows in result set")
}
func (s *stubUsers) GetUserByID(id uuid.UUID) (*models.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	return u, nil
}

func newAppointmentFixture() (AppointmentUsecase, *stubAppointments, uuid.UUID, uuid.UUID) {
	patientID := uuid.New()
	doctorID := uuid.New()

	users := &stubUsers{byID: map[uuid.UUID]*models.User{
		patientID: {ID: patientID, Role: models.RolePatient},
		doctorID:  {ID: doctorID, Role: models.RoleDoctor},
	}}
	appointments := &stubAppointments{byID: make(map[uuid.UUID]*models.Appointment)}

	return NewAppointmentUsecase(appointments, users), appointments, patientID, doctorID
}

func TestBook(t *testing.T) {
	ctx := context.Background()
	uc, _, patientID, doctorID := newAppointmentFixture()

	appointment, err := uc.Book(ctx, &input.BookAppointmentInput{
		PatientID: patientID,
		DoctorID:  doctorID,
		Symptoms:  "cough",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if appointment.Status != models.StatusPending {
		t.Fatalf("new appointment status: got %s, want %s", appointment.Status, models.StatusPending)
	}
	if appointment.PatientID != patientID || appointment.DoctorID != doctorID {
		t.Fatal("participants not carried over")
	}
}

func TestBook_DoctorIDMustBeADoctor(t *testing.T) {
	ctx := context.Background()
	uc, _, patientID, _ := newAppointmentFixture()

	other := uuid.New()

	_, err := uc.Book(ctx, &input.BookAppointmentInput{PatientID: patientID, DoctorID: other})
	if err == nil {
		t.Fatal("booked against an unknown doctor")
	}

	// Booking against another patient is forbidden outright.
	_, err = uc.Book(ctx, &input.BookAppointmentInput{PatientID: patientID, DoctorID: patientID})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("book with patient as doctor: got %v, want %v", err, ErrForbidden)
	}
}

func TestConfirm_OnlyTheBookedDoctor(t *testing.T) {
	ctx := context.Background()
	uc, appointments, patientID, doctorID := newAppointmentFixture()

	a := models.NewAppointment(&input.BookAppointmentInput{PatientID: patientID, DoctorID: doctorID})
	appointments.byID[a.ID] = a

	if _, err := uc.Confirm(ctx, uuid.New(), a.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("confirm by stranger: got %v, want %v", err, ErrForbidden)
	}
	if a.Status != models.StatusPending {
		t.Fatalf("status changed by forbidden confirm: %s", a.Status)
	}

	confirmed, err := uc.Confirm(ctx, doctorID, a.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != models.StatusConfirmed {
		t.Fatalf("status after confirm: got %s, want %s", confirmed.Status, models.StatusConfirmed)
	}

	// Confirming twice is an invalid transition.
	if _, err := uc.Confirm(ctx, doctorID, a.ID); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("double confirm: got %v, want %v", err, models.ErrInvalidTransition)
	}
}

func TestCancel_EitherParty(t *testing.T) {
	ctx := context.Background()
	uc, appointments, patientID, doctorID := newAppointmentFixture()

	a := models.NewAppointment(&input.BookAppointmentInput{PatientID: patientID, DoctorID: doctorID})
	appointments.byID[a.ID] = a

	if _, err := uc.Cancel(ctx, uuid.New(), a.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cancel by stranger: got %v, want %v", err, ErrForbidden)
	}

	cancelled, err := uc.Cancel(ctx, patientID, a.ID)
	if err != nil {
		t.Fatalf("cancel by patient: %v", err)
	}
	if cancelled.Status != models.StatusCancelled {
		t.Fatalf("status after cancel: got %s, want %s", cancelled.Status, models.StatusCancelled)
	}
}

func TestComplete_RequiresConfirmed(t *testing.T) {
	ctx := context.Background()
	uc, appointments, patientID, doctorID := newAppointmentFixture()

	a := models.NewAppointment(&input.BookAppointmentInput{PatientID: patientID, DoctorID: doctorID})
	appointments.byID[a.ID] = a

	if _, err := uc.Complete(ctx, doctorID, a.ID); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("complete while pending: got %v, want %v", err, models.ErrInvalidTransition)
	}

	if _, err := uc.Confirm(ctx, doctorID, a.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	completed, err := uc.Complete(ctx, doctorID, a.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != models.StatusCompleted {
		t.Fatalf("status after complete: got %s, want %s", completed.Status, models.StatusCompleted)
	}
}
