package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/telehealth-api/internal/models"
)

type AvailabilityMongoRepository struct {
	Collection *mongo.Collection
}

func NewAvailabilityMongoRepository(db *mongo.Database) *AvailabilityMongoRepository {
	return &AvailabilityMongoRepository{Collection: db.Collection(CollectionAvailability)}
}

// FindByDoctor returns nil, nil when the doctor has no record.
func (r *AvailabilityMongoRepository) FindByDoctor(ctx context.Context, doctorID primitive.ObjectID) (*models.AvailabilityRecord, error) {
	var rec models.AvailabilityRecord
	err := r.Collection.FindOne(ctx, bson.M{"doctorId": doctorID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding availability: %w", err)
	}
	return &rec, nil
}

// Upsert overwrites duration, fee and dates of the doctor's record in place,
// creating an active record on first call.
func (r *AvailabilityMongoRepository) Upsert(ctx context.Context, doctorID primitive.ObjectID, duration int, fee float64, dates []models.SpecificDate, now time.Time) (*models.AvailabilityRecord, error) {
	if dates == nil {
		dates = []models.SpecificDate{}
	}
	filter := bson.M{"doctorId": doctorID}
	update := bson.M{
		"$set": bson.M{
			"sessionDuration": duration,
			"consultationFee": fee,
			"specificDates":   dates,
			"lastUpdated":     now,
		},
		"$setOnInsert": bson.M{
			"isActive":  true,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var rec models.AvailabilityRecord
	err := r.Collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec)
	if mongo.IsDuplicateKeyError(err) {
		// Lost an insert race on the unique doctorId index; the record now exists.
		err = r.Collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec)
	}
	if err != nil {
		return nil, fmt.Errorf("upserting availability: %w", err)
	}
	return &rec, nil
}

// Update applies a partial update and returns nil, nil when no record exists.
func (r *AvailabilityMongoRepository) Update(ctx context.Context, doctorID primitive.ObjectID, patch models.AvailabilityPatch, now time.Time) (*models.AvailabilityRecord, error) {
	set := bson.M{"lastUpdated": now}
	if patch.SessionDuration != nil {
		set["sessionDuration"] = *patch.SessionDuration
	}
	if patch.ConsultationFee != nil {
		set["consultationFee"] = *patch.ConsultationFee
	}
	if patch.SpecificDates != nil {
		dates := *patch.SpecificDates
		if dates == nil {
			dates = []models.SpecificDate{}
		}
		set["specificDates"] = dates
	}
	if patch.IsActive != nil {
		set["isActive"] = *patch.IsActive
	}

	var rec models.AvailabilityRecord
	err := r.Collection.FindOneAndUpdate(ctx,
		bson.M{"doctorId": doctorID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating availability: %w", err)
	}
	return &rec, nil
}

func (r *AvailabilityMongoRepository) Delete(ctx context.Context, doctorID primitive.ObjectID) (bool, error) {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"doctorId": doctorID})
	if err != nil {
		return false, fmt.Errorf("deleting availability: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// ListActiveWithDoctors joins every active record with its doctor's profile.
func (r *AvailabilityMongoRepository) ListActiveWithDoctors(ctx context.Context) ([]models.DoctorAvailability, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "isActive", Value: true}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: CollectionUsers},
			{Key: "localField", Value: "doctorId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "doctor"},
		}}},
		{{Key: "$unwind", Value: "$doctor"}},
		{{Key: "$project", Value: bson.D{{Key: "doctor.password", Value: 0}}}},
		{{Key: "$sort", Value: bson.D{{Key: "doctor.fullName", Value: 1}}}},
	}

	cursor, err := r.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("listing doctors with availability: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]models.DoctorAvailability, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding doctors with availability: %w", err)
	}
	return out, nil
}
