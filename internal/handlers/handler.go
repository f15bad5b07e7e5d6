package handlers

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/harentsoaR/telehealth-api/internal/middleware"
	"github.com/harentsoaR/telehealth-api/internal/models"
	"github.com/harentsoaR/telehealth-api/internal/services"
	"github.com/harentsoaR/telehealth-api/internal/utils"
)

type Handler struct {
	Auth         *services.AuthService
	Availability *services.AvailabilityService
	Booking      *services.BookingService
	log          *zap.Logger
}

func NewHandler(
	auth *services.AuthService,
	availability *services.AvailabilityService,
	booking *services.BookingService,
	log *zap.Logger,
) *Handler {
	RegisterValidators()
	return &Handler{
		Auth:         auth,
		Availability: availability,
		Booking:      booking,
		log:          log,
	}
}

// RegisterRoutes mounts the public auth routes and the token-protected /api
// routes on r. authLimit guards /auth against credential stuffing.
func (h *Handler) RegisterRoutes(r gin.IRouter, tokens *utils.TokenManager, authLimit gin.HandlerFunc) {
	authRoutes := r.Group("/auth", authLimit)
	{
		authRoutes.POST("/register", h.RegisterUser)
		authRoutes.POST("/login", h.Login)
	}

	api := r.Group("/api", middleware.AuthMiddleware(tokens))
	{
		api.GET("/user/me", h.GetCurrentUser)
		api.PATCH("/user/me", h.UpdateCurrentUser)

		doctorOnly := middleware.RequireRole(models.RoleDoctor)
		api.PUT("/availability", doctorOnly, h.UpsertAvailability)
		api.PATCH("/availability", doctorOnly, h.UpdateAvailability)
		api.DELETE("/availability", doctorOnly, h.DeleteAvailability)
		api.GET("/availability/:doctorId", h.GetAvailability)
		api.GET("/availability/:doctorId/slots", h.GetSlots)
		api.GET("/doctors", h.ListDoctors)

		api.POST("/appointments", middleware.RequireRole(models.RolePatient), h.CreateAppointment)
		api.GET("/appointments", h.GetAppointments)
		api.GET("/appointments/:id", h.GetAppointment)
		api.PATCH("/appointments/:id/status", h.UpdateAppointmentStatus)
	}
}

var registerOnce sync.Once

// RegisterValidators adds the "date" (YYYY-MM-DD) and "clock" (HH:MM) binding
// tags to gin's validator and reports fields by their json names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
			_, err := services.ParseDate(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
			_, err := services.ParseClock(fl.Field().String())
			return err == nil
		})
	})
}
