package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/telehealth-api/internal/models"
)

type AppointmentMongoRepository struct {
	Collection *mongo.Collection
}

func NewAppointmentMongoRepository(db *mongo.Database) *AppointmentMongoRepository {
	return &AppointmentMongoRepository{Collection: db.Collection(CollectionAppointments)}
}

// FindActiveBySlot returns the pending or confirmed appointment occupying the
// slot, or nil, nil.
func (r *AppointmentMongoRepository) FindActiveBySlot(ctx context.Context, doctorID primitive.ObjectID, date, clock string) (*models.BookedAppointment, error) {
	filter := bson.M{
		"doctorId": doctorID,
		"date":     date,
		"time":     clock,
		"status":   bson.M{"$in": []models.AppointmentStatus{models.StatusPending, models.StatusConfirmed}},
	}
	var apt models.BookedAppointment
	if err := r.Collection.FindOne(ctx, filter).Decode(&apt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding appointment by slot: %w", err)
	}
	return &apt, nil
}

// Insert returns ErrDuplicateKey when the slot is already held.
func (r *AppointmentMongoRepository) Insert(ctx context.Context, apt *models.BookedAppointment) error {
	if apt.ID.IsZero() {
		apt.ID = primitive.NewObjectID()
	}
	apt.HoldsSlot = apt.Status.HoldsSlot()
	if _, err := r.Collection.InsertOne(ctx, apt); err != nil {
		if err = mapWriteError(err); errors.Is(err, ErrDuplicateKey) {
			return err
		}
		return fmt.Errorf("inserting appointment: %w", err)
	}
	return nil
}

func (r *AppointmentMongoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.BookedAppointment, error) {
	var apt models.BookedAppointment
	if err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&apt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding appointment: %w", err)
	}
	return &apt, nil
}

// UpdateStatus writes the change only if the stored status still equals from.
// It returns nil, nil when the appointment is missing or has moved on.
func (r *AppointmentMongoRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from models.AppointmentStatus, change models.StatusChange) (*models.BookedAppointment, error) {
	set := bson.M{
		"status":    change.Status,
		"holdsSlot": change.Status.HoldsSlot(),
		"updatedAt": change.UpdatedAt,
	}
	if change.CancelledAt != nil {
		set["cancelledAt"] = *change.CancelledAt
		set["cancelReason"] = change.CancelReason
	}

	var apt models.BookedAppointment
	err := r.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&apt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating appointment status: %w", mapWriteError(err))
	}
	return &apt, nil
}

func (r *AppointmentMongoRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.BookedAppointment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "time", Value: -1}})
	return r.list(ctx, bson.M{"userId": userID}, opts)
}

// ListByDoctor returns the doctor's appointments, optionally for one date.
func (r *AppointmentMongoRepository) ListByDoctor(ctx context.Context, doctorID primitive.ObjectID, date string) ([]models.BookedAppointment, error) {
	filter := bson.M{"doctorId": doctorID}
	if date != "" {
		filter["date"] = date
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}})
	return r.list(ctx, filter, opts)
}

func (r *AppointmentMongoRepository) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.BookedAppointment, error) {
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}
	defer cursor.Close(ctx)

	appointments := make([]models.BookedAppointment, 0)
	if err := cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("decoding appointments: %w", err)
	}
	return appointments, nil
}
