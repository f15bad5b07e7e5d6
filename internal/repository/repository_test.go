package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/harentsoaR/telehealth-api/internal/models"
)

func TestAppointmentRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "telehealth." + CollectionAppointments

	mt.Run("insert maps duplicate key", func(mt *mtest.T) {
		repo := NewAppointmentMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: booked_appointments index: " + ActiveSlotIndex,
		}))

		apt := &models.BookedAppointment{DoctorID: primitive.NewObjectID(), Date: "2026-02-24", Time: "09:00", Status: models.StatusPending}
		err := repo.Insert(context.Background(), apt)
		assert.ErrorIs(t, err, ErrDuplicateKey)
	})

	mt.Run("insert sets id and slot hold", func(mt *mtest.T) {
		repo := NewAppointmentMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		apt := &models.BookedAppointment{Status: models.StatusPending}
		require.NoError(t, repo.Insert(context.Background(), apt))
		assert.False(t, apt.ID.IsZero())
		assert.True(t, apt.HoldsSlot)
	})

	mt.Run("find active by slot returns nil when free", func(mt *mtest.T) {
		repo := NewAppointmentMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		apt, err := repo.FindActiveBySlot(context.Background(), primitive.NewObjectID(), "2026-02-24", "09:00")
		require.NoError(t, err)
		assert.Nil(t, apt)
	})

	mt.Run("find active by slot decodes holder", func(mt *mtest.T) {
		repo := NewAppointmentMongoRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "date", Value: "2026-02-24"},
			{Key: "time", Value: "09:00"},
			{Key: "status", Value: "confirmed"},
		}))

		apt, err := repo.FindActiveBySlot(context.Background(), primitive.NewObjectID(), "2026-02-24", "09:00")
		require.NoError(t, err)
		require.NotNil(t, apt)
		assert.Equal(t, id, apt.ID)
		assert.Equal(t, models.StatusConfirmed, apt.Status)
	})

	mt.Run("update status returns post image", func(mt *mtest.T) {
		repo := NewAppointmentMongoRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "status", Value: "cancelled"},
			{Key: "cancelReason", Value: "patient unavailable"},
		}}))

		now := time.Now()
		apt, err := repo.UpdateStatus(context.Background(), id, models.StatusPending, models.StatusChange{
			Status:       models.StatusCancelled,
			CancelledAt:  &now,
			CancelReason: "patient unavailable",
			UpdatedAt:    now,
		})
		require.NoError(t, err)
		require.NotNil(t, apt)
		assert.Equal(t, models.StatusCancelled, apt.Status)
		assert.Equal(t, "patient unavailable", apt.CancelReason)
	})
}

func TestUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create maps duplicate email", func(mt *mtest.T) {
		repo := NewUserMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := repo.Create(context.Background(), &models.User{Email: "a@example.com"})
		assert.ErrorIs(t, err, ErrDuplicateKey)
	})

	mt.Run("find by email returns nil when absent", func(mt *mtest.T) {
		repo := NewUserMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "telehealth."+CollectionUsers, mtest.FirstBatch))

		user, err := repo.FindByEmail(context.Background(), "missing@example.com")
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestAvailabilityRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("delete reports missing record", func(mt *mtest.T) {
		repo := NewAvailabilityMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		deleted, err := repo.Delete(context.Background(), primitive.NewObjectID())
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	mt.Run("upsert decodes record", func(mt *mtest.T) {
		repo := NewAvailabilityMongoRepository(mt.DB)
		doctorID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "doctorId", Value: doctorID},
			{Key: "sessionDuration", Value: 30},
			{Key: "consultationFee", Value: 50.0},
			{Key: "isActive", Value: true},
			{Key: "specificDates", Value: bson.A{
				bson.D{{Key: "date", Value: "2026-02-24"}, {Key: "timeSlots", Value: bson.A{
					bson.D{{Key: "start", Value: "09:00"}, {Key: "end", Value: "10:00"}},
				}}},
			}},
		}}))

		rec, err := repo.Upsert(context.Background(), doctorID, 30, 50, []models.SpecificDate{
			{Date: "2026-02-24", TimeSlots: []models.TimeWindow{{Start: "09:00", End: "10:00"}}},
		}, time.Now())
		require.NoError(t, err)
		assert.Equal(t, doctorID, rec.DoctorID)
		assert.True(t, rec.IsActive)
		require.Len(t, rec.SpecificDates, 1)
		assert.Equal(t, "10:00", rec.SpecificDates[0].TimeSlots[0].End)
	})
}
