package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/telehealth-api/internal/metrics"
	"github.com/harentsoaR/telehealth-api/internal/models"
	"github.com/harentsoaR/telehealth-api/internal/repository"
)

// AppointmentStore persists booked appointments. Insert must return
// repository.ErrDuplicateKey when the slot is already held; lookups return
// nil, nil when nothing matches.
type AppointmentStore interface {
	FindActiveBySlot(ctx context.Context, doctorID primitive.ObjectID, date, clock string) (*models.BookedAppointment, error)
	Insert(ctx context.Context, apt *models.BookedAppointment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.BookedAppointment, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from models.AppointmentStatus, change models.StatusChange) (*models.BookedAppointment, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.BookedAppointment, error)
	ListByDoctor(ctx context.Context, doctorID primitive.ObjectID, date string) ([]models.BookedAppointment, error)
}

// Notifier is told about booking events. Implementations must not block.
type Notifier interface {
	AppointmentBooked(apt *models.BookedAppointment)
	AppointmentStatusChanged(apt *models.BookedAppointment)
}

type BookCommand struct {
	UserID        primitive.ObjectID
	DoctorID      primitive.ObjectID
	Date          string
	Time          string
	HealthConcern string
}

type BookingService struct {
	appointments AppointmentStore
	availability AvailabilityStore
	notifier     Notifier
	metrics      *metrics.Collector
	log          *zap.Logger
	now          func() time.Time
}

func NewBookingService(
	appointments AppointmentStore,
	availability AvailabilityStore,
	notifier Notifier,
	m *metrics.Collector,
	log *zap.Logger,
) *BookingService {
	return &BookingService{
		appointments: appointments,
		availability: availability,
		notifier:     notifier,
		metrics:      m,
		log:          log,
		now:          time.Now,
	}
}

// Book reserves a slot for a patient. A lookup rejects slots already held by
// a pending or confirmed appointment; the partial unique index on
// (doctorId, date, time) rejects whatever slips past it under concurrency.
func (s *BookingService) Book(ctx context.Context, cmd BookCommand) (*models.BookedAppointment, error) {
	ve := &ValidationError{}
	day, err := ParseDate(cmd.Date)
	if err != nil {
		ve.add("date: " + err.Error())
	}
	if _, err := ParseClock(cmd.Time); err != nil {
		ve.add("time: " + err.Error())
	}
	if strings.TrimSpace(cmd.HealthConcern) == "" {
		ve.add("healthConcern: is required")
	}
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	rec, err := s.availability.FindByDoctor(ctx, cmd.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("loading availability: %w", err)
	}
	if rec == nil || !rec.IsActive {
		return nil, ErrNoActiveAvailability
	}
	if !IsSlotOffered(rec, day, cmd.Time) {
		return nil, &ValidationError{Fields: []string{
			fmt.Sprintf("time: %s on %s is not an available slot", cmd.Time, cmd.Date),
		}}
	}

	existing, err := s.appointments.FindActiveBySlot(ctx, cmd.DoctorID, cmd.Date, cmd.Time)
	if err != nil {
		return nil, fmt.Errorf("checking slot: %w", err)
	}
	if existing != nil {
		s.recordConflict("precheck")
		return nil, ErrSlotAlreadyBooked
	}

	now := s.now().UTC()
	apt := &models.BookedAppointment{
		UserID:          cmd.UserID,
		DoctorID:        cmd.DoctorID,
		Date:            cmd.Date,
		Time:            cmd.Time,
		SessionDuration: rec.SessionDuration,
		ConsultationFee: rec.ConsultationFee,
		HealthConcern:   strings.TrimSpace(cmd.HealthConcern),
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.appointments.Insert(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			s.recordConflict("index")
			return nil, ErrSlotAlreadyBooked
		}
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	if s.metrics != nil {
		s.metrics.BookingsCreated.Inc()
	}
	s.log.Info("appointment booked",
		zap.String("appointmentId", apt.ID.Hex()),
		zap.String("doctorId", apt.DoctorID.Hex()),
		zap.String("date", apt.Date),
		zap.String("time", apt.Time),
	)
	s.notifier.AppointmentBooked(apt)
	return apt, nil
}

// UpdateStatus moves an appointment along the status machine. Requests on a
// terminal appointment, or for a transition not in the table, are rejected
// and leave the stored status unchanged.
func (s *BookingService) UpdateStatus(ctx context.Context, id primitive.ObjectID, next models.AppointmentStatus, cancelReason string) (*models.BookedAppointment, error) {
	if !next.IsValid() {
		return nil, &ValidationError{Fields: []string{fmt.Sprintf("status: unknown status %q", next)}}
	}

	apt, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading appointment: %w", err)
	}
	if apt == nil {
		return nil, ErrAppointmentNotFound
	}

	updated, err := s.transition(ctx, apt, next, cancelReason)
	if err != nil {
		return nil, err
	}
	s.notifier.AppointmentStatusChanged(updated)
	return updated, nil
}

// Authorize returns the appointment if the caller is its patient or doctor.
func (s *BookingService) Authorize(ctx context.Context, id, callerID primitive.ObjectID) (*models.BookedAppointment, error) {
	apt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt.UserID != callerID && apt.DoctorID != callerID {
		return nil, ErrForbidden
	}
	return apt, nil
}

func (s *BookingService) Get(ctx context.Context, id primitive.ObjectID) (*models.BookedAppointment, error) {
	apt, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading appointment: %w", err)
	}
	if apt == nil {
		return nil, ErrAppointmentNotFound
	}
	return apt, nil
}

func (s *BookingService) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.BookedAppointment, error) {
	return s.appointments.ListByUser(ctx, userID)
}

func (s *BookingService) ListForDoctor(ctx context.Context, doctorID primitive.ObjectID, date string) ([]models.BookedAppointment, error) {
	if date != "" {
		if _, err := ParseDate(date); err != nil {
			return nil, &ValidationError{Fields: []string{"date: " + err.Error()}}
		}
	}
	return s.appointments.ListByDoctor(ctx, doctorID, date)
}

func (s *BookingService) transition(ctx context.Context, apt *models.BookedAppointment, next models.AppointmentStatus, cancelReason string) (*models.BookedAppointment, error) {
	from := apt.Status
	if !from.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, from, next)
	}

	now := s.now().UTC()
	change := models.StatusChange{Status: next, UpdatedAt: now}
	if next == models.StatusCancelled {
		change.CancelledAt = &now
		change.CancelReason = strings.TrimSpace(cancelReason)
	}

	updated, err := s.appointments.UpdateStatus(ctx, apt.ID, from, change)
	if err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}
	if updated == nil {
		// Another request moved the appointment after we read it.
		return nil, fmt.Errorf("%w: appointment is no longer %s", ErrInvalidStatusTransition, from)
	}

	if s.metrics != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(from), string(next)).Inc()
	}
	s.log.Info("appointment status changed",
		zap.String("appointmentId", apt.ID.Hex()),
		zap.String("from", string(from)),
		zap.String("to", string(next)),
	)
	return updated, nil
}

func (s *BookingService) recordConflict(layer string) {
	if s.metrics != nil {
		s.metrics.BookingConflicts.WithLabelValues(layer).Inc()
	}
}
