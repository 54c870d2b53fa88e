package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/medlink/teleconsult/internal/domain/input"
	"github.com/medlink/teleconsult/internal/domain/models"
	"github.com/medlink/teleconsult/internal/infra/adapters/postgres/repository"
)

var ErrForbidden = errors.New("not allowed for this user")

type AppointmentUsecase interface {
	Book(ctx context.Context, in *input.BookAppointmentInput) (*models.Appointment, error)
	ListForUser(ctx context.Context, user *models.User) ([]*models.Appointment, error)

	// Confirm and Decline are doctor actions on a pending appointment.
	Confirm(ctx context.Context, doctorID, appointmentID uuid.UUID) (*models.Appointment, error)
	Decline(ctx context.Context, doctorID, appointmentID uuid.UUID) (*models.Appointment, error)

	// Cancel is available to both parties while the appointment is live.
	Cancel(ctx context.Context, userID, appointmentID uuid.UUID) (*models.Appointment, error)

	// Complete is a doctor action after the consultation ends.
	Complete(ctx context.Context, doctorID, appointmentID uuid.UUID) (*models.Appointment, error)
}

type appointmentUsecase struct {
	appointmentRepo repository.AppointmentRepository
	userRepo        repository.UserRepository
}

func NewAppointmentUsecase(
	appointmentRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
) AppointmentUsecase {
	return &appointmentUsecase{
		appointmentRepo: appointmentRepo,
		userRepo:        userRepo,
	}
}

func (u *appointmentUsecase) Book(ctx context.Context, in *input.BookAppointmentInput) (*models.Appointment, error) {
	doctor, err := u.userRepo.GetUserByID(in.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}

	if doctor.Role != models.RoleDoctor {
		return nil, ErrForbidden
	}

	appointment := models.NewAppointment(in)

	if err := u.appointmentRepo.Create(ctx, appointment); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	return appointment, nil
}

func (u *appointmentUsecase) ListForUser(ctx context.Context, user *models.User) ([]*models.Appointment, error) {
	if user.Role == models.RoleDoctor {
		return u.appointmentRepo.GetByDoctorID(ctx, user.ID)
	}

	return u.appointmentRepo.GetByPatientID(ctx, user.ID)
}

func (u *appointmentUsecase) Confirm(ctx context.Context, doctorID, appointmentID uuid.UUID) (*models.Appointment, error) {
	return u.transition(ctx, appointmentID, func(a *models.Appointment) error {
		if a.DoctorID != doctorID {
			return ErrForbidden
		}
		return a.Confirm()
	})
}

func (u *appointmentUsecase) Decline(ctx context.Context, doctorID, appointmentID uuid.UUID) (*models.Appointment, error) {
	return u.transition(ctx, appointmentID, func(a *models.Appointment) error {
		if a.DoctorID != doctorID {
			return ErrForbidden
		}
		return a.Cancel()
	})
}

func (u *appointmentUsecase) Cancel(ctx context.Context, userID, appointmentID uuid.UUID) (*models.Appointment, error) {
	return u.transition(ctx, appointmentID, func(a *models.Appointment) error {
		if a.PatientID != userID && a.DoctorID != userID {
			return ErrForbidden
		}
		return a.Cancel()
	})
}

func (u *appointmentUsecase) Complete(ctx context.Context, doctorID, appointmentID uuid.UUID) (*models.Appointment, error) {
	return u.transition(ctx, appointmentID, func(a *models.Appointment) error {
		if a.DoctorID != doctorID {
			return ErrForbidden
		}
		return a.Complete()
	})
}

func (u *appointmentUsecase) transition(
	ctx context.Context,
	appointmentID uuid.UUID,
	apply func(*models.Appointment) error,
) (*models.Appointment, error) {
	appointment, err := u.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	if err := apply(appointment); err != nil {
		return nil, err
	}

	if err := u.appointmentRepo.UpdateStatus(ctx, appointment); err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	return appointment, nil
}
