package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/telehealth-api/internal/models"
)

func TestAvailabilityStoreCopiesDates(t *testing.T) {
	ctx := context.Background()
	store := NewAvailabilityStore()
	doctorID := primitive.NewObjectID()

	dates := []models.SpecificDate{
		{Date: "2026-02-24", TimeSlots: []models.TimeWindow{{Start: "09:00", End: "10:00"}}},
	}
	returned, err := store.Upsert(ctx, doctorID, 30, 40, dates, time.Now())
	require.NoError(t, err)

	dates[0].Date = "2030-01-01"
	dates[0].TimeSlots[0].End = "23:00"
	returned.SpecificDates[0].TimeSlots[0].Start = "00:00"

	stored, err := store.FindByDoctor(ctx, doctorID)
	require.NoError(t, err)
	assert.Equal(t, models.TimeWindow{Start: "09:00", End: "10:00"}, stored.SpecificDates[0].TimeSlots[0])
	assert.Equal(t, "2026-02-24", stored.SpecificDates[0].Date)

	patched := []models.SpecificDate{
		{Date: "2026-03-01", TimeSlots: []models.TimeWindow{{Start: "13:00", End: "14:00"}}},
	}
	_, err = store.Update(ctx, doctorID, models.AvailabilityPatch{SpecificDates: &patched}, time.Now())
	require.NoError(t, err)
	patched[0].TimeSlots[0].Start = "12:00"

	stored, err = store.FindByDoctor(ctx, doctorID)
	require.NoError(t, err)
	assert.Equal(t, "13:00", stored.SpecificDates[0].TimeSlots[0].Start)
}
