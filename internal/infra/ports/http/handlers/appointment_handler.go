package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medlink/teleconsult/internal/application/constant"
	"github.com/medlink/teleconsult/internal/domain/input"
	"github.com/medlink/teleconsult/internal/domain/models"
	"github.com/medlink/teleconsult/internal/infra/appctx"
	"github.com/medlink/teleconsult/internal/infra/ports/http/dto"
	"github.com/medlink/teleconsult/internal/usecase"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	userUsecase        usecase.UserUsecase
}

func NewAppointmentHandler(
	appointmentUsecase usecase.AppointmentUsecase,
	userUsecase usecase.UserUsecase,
) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		userUsecase:        userUsecase,
	}
}

func (h *AppointmentHandler) Book(c echo.Context) error {
	userID, ok := appctx.UserID(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid user"})
	}

	var req dto.BookAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	appointment, err := h.appointmentUsecase.Book(c.Request().Context(), &input.BookAppointmentInput{
		PatientID: userID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		SlotStart: req.SlotStart,
		SlotEnd:   req.SlotEnd,
		Symptoms:  req.Symptoms,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrForbidden) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "doctor_id is not a doctor"})
		}

		slog.Error("book appointment", slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to book appointment"})
	}

	return c.JSON(http.StatusCreated, appointment)
}

func (h *AppointmentHandler) List(c echo.Context) error {
	userID, ok := appctx.UserID(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid user"})
	}

	user, err := h.userUsecase.GetByID(userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
	}

	appointments, err := h.appointmentUsecase.ListForUser(c.Request().Context(), user)
	if err != nil {
		slog.Error("list appointments", slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list appointments"})
	}

	return c.JSON(http.StatusOK, appointments)
}

func (h *AppointmentHandler) Confirm(c echo.Context) error {
	return h.doTransition(c, h.appointmentUsecase.Confirm)
}

func (h *AppointmentHandler) Decline(c echo.Context) error {
	return h.doTransition(c, h.appointmentUsecase.Decline)
}

func (h *AppointmentHandler) Cancel(c echo.Context) error {
	return h.doTransition(c, h.appointmentUsecase.Cancel)
}

func (h *AppointmentHandler) Complete(c echo.Context) error {
	return h.doTransition(c, h.appointmentUsecase.Complete)
}

func (h *AppointmentHandler) doTransition(
	c echo.Context,
	fn func(ctx context.Context, userID, appointmentID uuid.UUID) (*models.Appointment, error),
) error {
	userID, ok := appctx.UserID(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid user"})
	}

	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid appointment id"})
	}

	appointment, err := fn(c.Request().Context(), userID, appointmentID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrForbidden):
			return c.JSON(http.StatusForbidden, map[string]string{"error": "not your appointment"})
		case errors.Is(err, models.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, map[string]string{"error": "invalid status transition"})
		default:
			slog.Error("appointment transition", slog.Any(constant.Error, err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update appointment"})
		}
	}

	return c.JSON(http.StatusOK, appointment)
}
