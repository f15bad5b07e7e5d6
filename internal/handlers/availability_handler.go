package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/telehealth-api/internal/models"
	"github.com/harentsoaR/telehealth-api/internal/services"
)

// UpsertAvailabilityRequest requires every field. consultationFee is a
// pointer so that an explicit 0 is accepted and an omitted fee is not.
type UpsertAvailabilityRequest struct {
	SessionDuration int                   `json:"sessionDuration" binding:"required"`
	ConsultationFee *float64              `json:"consultationFee" binding:"required"`
	SpecificDates   []models.SpecificDate `json:"specificDates" binding:"required,dive"`
}

// UpdateAvailabilityRequest is a partial update. specificDates, when present,
// replaces the whole list.
type UpdateAvailabilityRequest struct {
	SessionDuration *int                   `json:"sessionDuration"`
	ConsultationFee *float64               `json:"consultationFee"`
	SpecificDates   *[]models.SpecificDate `json:"specificDates"`
	IsActive        *bool                  `json:"isActive"`
}

// UpsertAvailability creates or replaces the calling doctor's availability.
func (h *Handler) UpsertAvailability(c *gin.Context) {
	doctorID, ok := callerID(c)
	if !ok {
		return
	}
	var req UpsertAvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}

	rec, err := h.Availability.Upsert(c.Request.Context(), doctorID, services.UpsertAvailabilityCommand{
		SessionDuration: req.SessionDuration,
		ConsultationFee: *req.ConsultationFee,
		SpecificDates:   req.SpecificDates,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) UpdateAvailability(c *gin.Context) {
	doctorID, ok := callerID(c)
	if !ok {
		return
	}
	var req UpdateAvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}

	rec, err := h.Availability.Update(c.Request.Context(), doctorID, models.AvailabilityPatch{
		SessionDuration: req.SessionDuration,
		ConsultationFee: req.ConsultationFee,
		SpecificDates:   req.SpecificDates,
		IsActive:        req.IsActive,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) DeleteAvailability(c *gin.Context) {
	doctorID, ok := callerID(c)
	if !ok {
		return
	}
	if err := h.Availability.Delete(c.Request.Context(), doctorID); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Availability deleted successfully"})
}

func (h *Handler) GetAvailability(c *gin.Context) {
	doctorID, ok := parseObjectID(c, "doctorId")
	if !ok {
		return
	}
	rec, err := h.Availability.Get(c.Request.Context(), doctorID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetSlots lists bookable start times per day between the optional
// startDate and endDate query parameters.
func (h *Handler) GetSlots(c *gin.Context) {
	doctorID, ok := parseObjectID(c, "doctorId")
	if !ok {
		return
	}
	days, err := h.Availability.GenerateSlots(c.Request.Context(), doctorID, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, days)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.Availability.ListDoctors(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	if doctors == nil {
		doctors = []models.DoctorAvailability{}
	}
	c.JSON(http.StatusOK, doctors)
}
