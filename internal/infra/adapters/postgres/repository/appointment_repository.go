package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medlink/teleconsult/internal/domain/models"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	UpdateStatus(ctx context.Context, appointment *models.Appointment) error

	GetByPatientID(ctx context.Context, patientID uuid.UUID) ([]*models.Appointment, error)
	GetByDoctorID(ctx context.Context, doctorID uuid.UUID) ([]*models.Appointment, error)
}

type appointmentRepo struct {
	db *sqlx.DB
}

func NewAppointmentRepo(db *sqlx.DB) AppointmentRepository {
	return &appointmentRepo{db: db}
}

func (r *appointmentRepo) Create(ctx context.Context, appointment *models.Appointment) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO appointments (id, patient_id, doctor_id, date, slot_start, slot_end, status, symptoms, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		appointment.ID,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.Date,
		appointment.SlotStart,
		appointment.SlotEnd,
		appointment.Status,
		appointment.Symptoms,
		appointment.Notes,
	)

	return err
}

func (r *appointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var appointment models.Appointment

	err := r.db.GetContext(ctx, &appointment, "SELECT * FROM appointments WHERE id = $1", id)
	if err != nil {
		return nil, err
	}

	return &appointment, nil
}

func (r *appointmentRepo) UpdateStatus(ctx context.Context, appointment *models.Appointment) error {
	_, err := r.db.ExecContext(
		ctx,
		"UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3",
		appointment.Status,
		appointment.UpdatedAt,
		appointment.ID,
	)

	return err
}

func (r *appointmentRepo) GetByPatientID(ctx context.Context, patientID uuid.UUID) ([]*models.Appointment, error) {
	var appointments []*models.Appointment

	err := r.db.SelectContext(
		ctx,
		&appointments,
		"SELECT * FROM appointments WHERE patient_id = $1 ORDER BY date",
		patientID,
	)
	if err != nil {
		return nil, err
	}

	return appointments, nil
}

func (r *appointmentRepo) GetByDoctorID(ctx context.Context, doctorID uuid.UUID) ([]*models.Appointment, error) {
	var appointments []*models.Appointment

	err := r.db.SelectContext(
		ctx,
		&appointments,
		"SELECT * FROM appointments WHERE doctor_id = $1 ORDER BY date",
		doctorID,
	)
	if err != nil {
		return nil, err
	}

	return appointments, nil
}
