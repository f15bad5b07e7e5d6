package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/telehealth-api/internal/metrics"
	"github.com/harentsoaR/telehealth-api/internal/models"
)

// AvailabilityStore persists one availability record per doctor. Lookups
// return nil, nil when nothing matches.
type AvailabilityStore interface {
	FindByDoctor(ctx context.Context, doctorID primitive.ObjectID) (*models.AvailabilityRecord, error)
	Upsert(ctx context.Context, doctorID primitive.ObjectID, duration int, fee float64, dates []models.SpecificDate, now time.Time) (*models.AvailabilityRecord, error)
	Update(ctx context.Context, doctorID primitive.ObjectID, patch models.AvailabilityPatch, now time.Time) (*models.AvailabilityRecord, error)
	Delete(ctx context.Context, doctorID primitive.ObjectID) (bool, error)
	ListActiveWithDoctors(ctx context.Context) ([]models.DoctorAvailability, error)
}

type UpsertAvailabilityCommand struct {
	SessionDuration int
	ConsultationFee float64
	SpecificDates   []models.SpecificDate
}

type AvailabilityService struct {
	store   AvailabilityStore
	metrics *metrics.Collector
	log     *zap.Logger
	now     func() time.Time
}

func NewAvailabilityService(store AvailabilityStore, m *metrics.Collector, log *zap.Logger) *AvailabilityService {
	return &AvailabilityService{store: store, metrics: m, log: log, now: time.Now}
}

// Upsert replaces the doctor's duration, fee and full date list. Dates not
// resubmitted are dropped.
func (s *AvailabilityService) Upsert(ctx context.Context, doctorID primitive.ObjectID, cmd UpsertAvailabilityCommand) (*models.AvailabilityRecord, error) {
	ve := &ValidationError{}
	validateSessionDuration(ve, cmd.SessionDuration)
	validateConsultationFee(ve, cmd.ConsultationFee)
	validateSpecificDates(ve, cmd.SpecificDates)
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	rec, err := s.store.Upsert(ctx, doctorID, cmd.SessionDuration, cmd.ConsultationFee, cmd.SpecificDates, s.now().UTC())
	if err != nil {
		s.log.Error("failed to save availability", zap.String("doctorId", doctorID.Hex()), zap.Error(err))
		return nil, fmt.Errorf("saving availability: %w", err)
	}

	s.log.Info("availability saved",
		zap.String("doctorId", doctorID.Hex()),
		zap.Int("dates", len(rec.SpecificDates)),
		zap.Int("sessionDuration", rec.SessionDuration),
	)
	return rec, nil
}

func (s *AvailabilityService) Get(ctx context.Context, doctorID primitive.ObjectID) (*models.AvailabilityRecord, error) {
	rec, err := s.store.FindByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("loading availability: %w", err)
	}
	if rec == nil {
		return nil, ErrAvailabilityNotFound
	}
	return rec, nil
}

func (s *AvailabilityService) Update(ctx context.Context, doctorID primitive.ObjectID, patch models.AvailabilityPatch) (*models.AvailabilityRecord, error) {
	ve := &ValidationError{}
	if patch.IsEmpty() {
		ve.add("no fields to update")
	}
	if patch.SessionDuration != nil {
		validateSessionDuration(ve, *patch.SessionDuration)
	}
	if patch.ConsultationFee != nil {
		validateConsultationFee(ve, *patch.ConsultationFee)
	}
	if patch.SpecificDates != nil {
		validateSpecificDates(ve, *patch.SpecificDates)
	}
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	rec, err := s.store.Update(ctx, doctorID, patch, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("updating availability: %w", err)
	}
	if rec == nil {
		return nil, ErrAvailabilityNotFound
	}
	return rec, nil
}

func (s *AvailabilityService) Delete(ctx context.Context, doctorID primitive.ObjectID) error {
	deleted, err := s.store.Delete(ctx, doctorID)
	if err != nil {
		return fmt.Errorf("deleting availability: %w", err)
	}
	if !deleted {
		return ErrAvailabilityNotFound
	}
	s.log.Info("availability deleted", zap.String("doctorId", doctorID.Hex()))
	return nil
}

// GenerateSlots expands the doctor's active record over [startDate, endDate].
// Empty bounds default to today and 30 days after the start. Booked appointments
// are not subtracted; booking re-checks the slot.
func (s *AvailabilityService) GenerateSlots(ctx context.Context, doctorID primitive.ObjectID, startDate, endDate string) ([]models.DaySlots, error) {
	from, to, err := s.resolveRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	rec, err := s.activeRecord(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	days := GenerateSlots(rec, from, to)
	if days == nil {
		days = []models.DaySlots{}
	}
	if s.metrics != nil {
		total := 0
		for _, d := range days {
			total += len(d.Slots)
		}
		s.metrics.SlotsGenerated.Observe(float64(total))
	}
	return days, nil
}

func (s *AvailabilityService) ListDoctors(ctx context.Context) ([]models.DoctorAvailability, error) {
	doctors, err := s.store.ListActiveWithDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing doctors: %w", err)
	}
	return doctors, nil
}

func (s *AvailabilityService) activeRecord(ctx context.Context, doctorID primitive.ObjectID) (*models.AvailabilityRecord, error) {
	rec, err := s.store.FindByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("loading availability: %w", err)
	}
	if rec == nil || !rec.IsActive {
		return nil, ErrNoActiveAvailability
	}
	return rec, nil
}

func (s *AvailabilityService) resolveRange(startDate, endDate string) (time.Time, time.Time, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	ve := &ValidationError{}
	from, to := today, today.AddDate(0, 0, defaultSlotHorizon)
	if startDate != "" {
		d, err := ParseDate(startDate)
		if err != nil {
			ve.add("startDate: " + err.Error())
		}
		from, to = d, d.AddDate(0, 0, defaultSlotHorizon)
	}
	if endDate != "" {
		d, err := ParseDate(endDate)
		if err != nil {
			ve.add("endDate: " + err.Error())
		}
		to = d
	}
	if len(ve.Fields) == 0 {
		if to.Before(from) {
			ve.add("endDate: must not be before startDate")
		} else if to.After(from.AddDate(0, 0, maxSlotRangeDays)) {
			ve.add(fmt.Sprintf("endDate: range must not exceed %d days", maxSlotRangeDays))
		}
	}
	if err := ve.orNil(); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
