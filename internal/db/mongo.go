package db

import (
	"context"
	"time"

	"bookwise-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collections struct {
	Providers      *mongo.Collection
	Services       *mongo.Collection
	Staff          *mongo.Collection
	BusinessHours  *mongo.Collection
	StaffOverrides *mongo.Collection
	Bookings       *mongo.Collection
	Users          *mongo.Collection
}

func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *Collections, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}

	db := client.Database(dbName)

	cols := &Collections{
		Providers:      db.Collection("providers"),
		Services:       db.Collection("services"),
		Staff:          db.Collection("staff"),
		BusinessHours:  db.Collection("business_hours"),
		StaffOverrides: db.Collection("staff_overrides"),
		Bookings:       db.Collection("bookings"),
		Users:          db.Collection("users"),
	}

	return client, cols, nil
}

func EnsureIndexes(ctx context.Context, cols *Collections) error {
	indexTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := cols.Providers.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Services.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.BusinessHours.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "dayOfWeek", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Staff.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "providerId", Value: 1}, {Key: "isActive", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "serviceIds", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.StaffOverrides.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "staffId", Value: 1}, {Key: "start", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	// Availability answers are advisory: two concurrent booking attempts can
	// both read "available" before either write commits. The partial unique
	// index closes that race at the write boundary for staff-assigned
	// bookings; booking creation re-checks availability right before the
	// insert and treats a duplicate-key error as a lost race.
	activeStatuses := bson.A{models.BookingStatusPending, models.BookingStatusConfirmed}
	_, err = cols.Bookings.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "serviceId", Value: 1}, {Key: "staffId", Value: 1}, {Key: "startTime", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"status":  bson.M{"$in": activeStatuses},
					"staffId": bson.M{"$exists": true},
				}),
		},
		{
			Keys: bson.D{{Key: "serviceId", Value: 1}, {Key: "bufferStart", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "staffId", Value: 1}, {Key: "bufferStart", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "providerId", Value: 1}, {Key: "startTime", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Users.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	return nil
}
