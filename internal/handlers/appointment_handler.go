package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/telehealth-api/internal/middleware"
	"github.com/harentsoaR/telehealth-api/internal/models"
	"github.com/harentsoaR/telehealth-api/internal/services"
)

type CreateAppointmentRequest struct {
	DoctorID      string `json:"doctorId" binding:"required"`
	Date          string `json:"date" binding:"required,date"`
	Time          string `json:"time" binding:"required,clock"`
	HealthConcern string `json:"healthConcern" binding:"required"`
}

type UpdateStatusRequest struct {
	Status       models.AppointmentStatus `json:"status" binding:"required"`
	CancelReason string                   `json:"cancelReason"`
}

// CreateAppointment books a slot for the calling patient.
func (h *Handler) CreateAppointment(c *gin.Context) {
	patientID, ok := callerID(c)
	if !ok {
		return
	}
	var req CreateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}
	doctorID, err := primitive.ObjectIDFromHex(req.DoctorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{Error: "validation failed", Fields: []string{"doctorId: invalid id"}})
		return
	}

	apt, err := h.Booking.Book(c.Request.Context(), services.BookCommand{
		UserID:        patientID,
		DoctorID:      doctorID,
		Date:          req.Date,
		Time:          req.Time,
		HealthConcern: req.HealthConcern,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apt)
}

// GetAppointments lists the patient's own bookings, or the doctor's schedule
// optionally narrowed to ?date=YYYY-MM-DD.
func (h *Handler) GetAppointments(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var (
		appointments []models.BookedAppointment
		err          error
	)
	if c.GetString(middleware.ContextUserRole) == models.RoleDoctor {
		appointments, err = h.Booking.ListForDoctor(c.Request.Context(), userID, c.Query("date"))
	} else {
		appointments, err = h.Booking.ListForUser(c.Request.Context(), userID)
	}
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	if appointments == nil {
		appointments = []models.BookedAppointment{}
	}
	c.JSON(http.StatusOK, appointments)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	apt, err := h.Booking.Authorize(c.Request.Context(), id, userID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, apt)
}

// UpdateAppointmentStatus lets the doctor drive the appointment through its
// lifecycle. Patients may only cancel their own bookings.
func (h *Handler) UpdateAppointmentStatus(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	apt, err := h.Booking.Authorize(c.Request.Context(), id, userID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	if apt.DoctorID != userID && req.Status != models.StatusCancelled {
		h.respondServiceError(c, services.ErrForbidden)
		return
	}

	updated, err := h.Booking.UpdateStatus(c.Request.Context(), id, req.Status, req.CancelReason)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
