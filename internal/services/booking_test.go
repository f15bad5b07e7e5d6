package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/telehealth-api/internal/metrics"
	"github.com/harentsoaR/telehealth-api/internal/models"
	"github.com/harentsoaR/telehealth-api/internal/repository/memory"
)

type bookingFixture struct {
	svc          *BookingService
	appointments *memory.AppointmentStore
	notifier     *recordingNotifier
	metrics      *metrics.Collector
	doctorID     primitive.ObjectID
	patientID    primitive.ObjectID
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	availability := memory.NewAvailabilityStore()
	doctorID := primitive.NewObjectID()
	_, err := availability.Upsert(context.Background(), doctorID, 30, 60, []models.SpecificDate{
		{Date: "2026-02-24", TimeSlots: []models.TimeWindow{{Start: "09:00", End: "10:00"}}},
	}, time.Now())
	require.NoError(t, err)

	appointments := memory.NewAppointmentStore()
	notifier := &recordingNotifier{}
	m := metrics.NewCollector(prometheus.NewRegistry())
	svc := NewBookingService(appointments, availability, notifier, m, zap.NewNop())
	svc.now = fixedClock(time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC))

	return &bookingFixture{
		svc:          svc,
		appointments: appointments,
		notifier:     notifier,
		metrics:      m,
		doctorID:     doctorID,
		patientID:    primitive.NewObjectID(),
	}
}

func (f *bookingFixture) book(t *testing.T, clock string) (*models.BookedAppointment, error) {
	t.Helper()
	return f.svc.Book(context.Background(), BookCommand{
		UserID:        f.patientID,
		DoctorID:      f.doctorID,
		Date:          "2026-02-24",
		Time:          clock,
		HealthConcern: "persistent cough",
	})
}

func TestBook(t *testing.T) {
	f := newBookingFixture(t)

	apt, err := f.book(t, "09:00")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, apt.Status)
	assert.Equal(t, 30, apt.SessionDuration)
	assert.Equal(t, 60.0, apt.ConsultationFee)
	assert.True(t, apt.HoldsSlot)
	assert.Equal(t, []primitive.ObjectID{apt.ID}, f.notifier.booked)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BookingsCreated))
}

func TestBookConflict(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.book(t, "09:00")
	require.NoError(t, err)

	_, err = f.book(t, "09:00")
	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)
	assert.Equal(t, 1, f.appointments.Count())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BookingConflicts.WithLabelValues("precheck")))
}

func TestBookConflictCaughtByIndex(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.book(t, "09:30")
	require.NoError(t, err)

	f.appointments.SkipPrecheck = true
	_, err = f.book(t, "09:30")
	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)
	assert.Equal(t, 1, f.appointments.Count())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BookingConflicts.WithLabelValues("index")))
}

func TestBookConcurrent(t *testing.T) {
	f := newBookingFixture(t)
	f.appointments.SkipPrecheck = true

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.book(t, "09:00"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.appointments.Count())
}

func TestBookRebookAfterCancel(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	apt, err := f.book(t, "09:00")
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, apt.ID, models.StatusCancelled, "")
	require.NoError(t, err)

	_, err = f.book(t, "09:00")
	assert.NoError(t, err)
}

func TestBookValidation(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	var ve *ValidationError

	_, err := f.svc.Book(ctx, BookCommand{DoctorID: f.doctorID, Date: "24-02-2026", Time: "9h", HealthConcern: " "})
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 3)

	_, err = f.book(t, "10:00")
	assert.ErrorAs(t, err, &ve, "10:00 does not fit a 30 minute session before 10:00")

	_, err = f.svc.Book(ctx, BookCommand{DoctorID: primitive.NewObjectID(), Date: "2026-02-24", Time: "09:00", HealthConcern: "rash"})
	assert.ErrorIs(t, err, ErrNoActiveAvailability)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("pending to confirmed to completed", func(t *testing.T) {
		f := newBookingFixture(t)
		apt, err := f.book(t, "09:00")
		require.NoError(t, err)

		apt, err = f.svc.UpdateStatus(ctx, apt.ID, models.StatusConfirmed, "")
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, apt.Status)

		apt, err = f.svc.UpdateStatus(ctx, apt.ID, models.StatusCompleted, "")
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, apt.Status)
		assert.False(t, apt.HoldsSlot)
		assert.Equal(t, []models.AppointmentStatus{models.StatusConfirmed, models.StatusCompleted}, f.notifier.changed)
	})

	t.Run("cancellation stamps time and reason", func(t *testing.T) {
		f := newBookingFixture(t)
		apt, err := f.book(t, "09:00")
		require.NoError(t, err)

		apt, err = f.svc.UpdateStatus(ctx, apt.ID, models.StatusCancelled, " travelling ")
		require.NoError(t, err)
		require.NotNil(t, apt.CancelledAt)
		assert.Equal(t, "travelling", apt.CancelReason)
	})

	t.Run("terminal states are immutable", func(t *testing.T) {
		for _, terminal := range []models.AppointmentStatus{models.StatusCompleted, models.StatusCancelled} {
			f := newBookingFixture(t)
			apt, err := f.book(t, "09:00")
			require.NoError(t, err)
			if terminal == models.StatusCompleted {
				_, err = f.svc.UpdateStatus(ctx, apt.ID, models.StatusConfirmed, "")
				require.NoError(t, err)
			}
			_, err = f.svc.UpdateStatus(ctx, apt.ID, terminal, "")
			require.NoError(t, err)

			for _, next := range []models.AppointmentStatus{models.StatusPending, models.StatusConfirmed, models.StatusCancelled, models.StatusCompleted} {
				_, err = f.svc.UpdateStatus(ctx, apt.ID, next, "")
				assert.ErrorIs(t, err, ErrInvalidStatusTransition)
			}

			stored, err := f.svc.Get(ctx, apt.ID)
			require.NoError(t, err)
			assert.Equal(t, terminal, stored.Status)
		}
	})

	t.Run("pending cannot complete", func(t *testing.T) {
		f := newBookingFixture(t)
		apt, err := f.book(t, "09:00")
		require.NoError(t, err)
		_, err = f.svc.UpdateStatus(ctx, apt.ID, models.StatusCompleted, "")
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	})

	t.Run("unknown status and missing appointment", func(t *testing.T) {
		f := newBookingFixture(t)
		var ve *ValidationError
		_, err := f.svc.UpdateStatus(ctx, primitive.NewObjectID(), "archived", "")
		assert.ErrorAs(t, err, &ve)
		_, err = f.svc.UpdateStatus(ctx, primitive.NewObjectID(), models.StatusConfirmed, "")
		assert.ErrorIs(t, err, ErrAppointmentNotFound)
	})
}

func TestAuthorize(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	apt, err := f.book(t, "09:00")
	require.NoError(t, err)

	_, err = f.svc.Authorize(ctx, apt.ID, f.patientID)
	assert.NoError(t, err)
	_, err = f.svc.Authorize(ctx, apt.ID, f.doctorID)
	assert.NoError(t, err)
	_, err = f.svc.Authorize(ctx, apt.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrForbidden)
}
