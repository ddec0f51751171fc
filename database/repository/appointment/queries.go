// File: database/repository/appointment/queries.go
package appointmentRepo

import (
	"context"
	"fmt"
	"time"

	"expertmeet/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var chronological = bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}, {Key: "createdAt", Value: 1}}

func (r *MongoAppointmentRepo) ListByClient(ctx context.Context, clientID string) ([]models.Appointment, error) {
	return r.find(ctx, bson.M{"clientId": clientID})
}

func (r *MongoAppointmentRepo) ListByProvider(ctx context.Context, providerID string) ([]models.Appointment, error) {
	return r.find(ctx, bson.M{"providerId": providerID})
}

func (r *MongoAppointmentRepo) find(ctx context.Context, filter bson.M) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(chronological))
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer cursor.Close(ctx)

	appts := []models.Appointment{}
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appts, nil
}

// ExistsBetween reports whether the client has any appointment with the
// provider other than excludeID.
func (r *MongoAppointmentRepo) ExistsBetween(ctx context.Context, clientID, providerID, excludeID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"clientId": clientID, "providerId": providerID}
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to count appointments: %w", err)
	}
	return n > 0, nil
}

func (r *MongoAppointmentRepo) GetByRoomID(ctx context.Context, roomID string) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var appt models.Appointment
	if err := r.coll.FindOne(ctx, bson.M{"callRoomId": roomID}).Decode(&appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

// CompleteConfirmedBefore marks confirmed appointments dated before date
// (YYYY-MM-DD) as completed.
func (r *MongoAppointmentRepo) CompleteConfirmedBefore(ctx context.Context, date string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"status": models.AppointmentConfirmed, "date": bson.M{"$lt": date}}
	update := bson.M{"$set": bson.M{"status": models.AppointmentCompleted, "updatedAt": time.Now().UTC()}}
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to complete appointments: %w", err)
	}
	return res.ModifiedCount, nil
}
