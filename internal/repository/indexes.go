package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActiveSlotIndex is the authoritative guard against double-booking: only one
// appointment holding a slot may exist per (doctorId, date, time).
const ActiveSlotIndex = "uniq_active_slot"

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		CollectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollectionAvailability: {
			{Keys: bson.D{{Key: "doctorId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "isActive", Value: 1}}},
		},
		CollectionAppointments: {
			{Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "date", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}}},
			{
				Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "date", Value: 1}, {Key: "time", Value: 1}},
				Options: options.Index().
					SetName(ActiveSlotIndex).
					SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "holdsSlot", Value: true}}),
			},
		},
	}

	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating indexes on %s: %w", coll, err)
		}
	}
	return nil
}
