package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookwise-backend/internal/db"
	"bookwise-backend/internal/models"
	"bookwise-backend/internal/schedule"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo implements schedule.Store over the mongo collections and carries the
// booking reads/writes the HTTP layer needs. Each named read is a single
// query; the engine never traverses relations implicitly.
type Mongo struct {
	cols *db.Collections
}

func New(cols *db.Collections) *Mongo {
	return &Mongo{cols: cols}
}

func (m *Mongo) GetProvider(ctx context.Context, id string) (models.Provider, error) {
	var provider models.Provider
	if err := m.cols.Providers.FindOne(ctx, bson.M{"_id": id}).Decode(&provider); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Provider{}, fmt.Errorf("%w: provider %s", schedule.ErrNotFound, id)
		}
		return models.Provider{}, err
	}
	return provider, nil
}

func (m *Mongo) GetService(ctx context.Context, id string) (models.Service, error) {
	var svc models.Service
	if err := m.cols.Services.FindOne(ctx, bson.M{"_id": id}).Decode(&svc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Service{}, fmt.Errorf("%w: service %s", schedule.ErrNotFound, id)
		}
		return models.Service{}, err
	}
	return svc, nil
}

func (m *Mongo) GetBusinessHours(ctx context.Context, providerID string) ([]models.BusinessHoursRule, error) {
	cursor, err := m.cols.BusinessHours.Find(ctx,
		bson.M{"providerId": providerID},
		options.Find().SetSort(bson.D{{Key: "dayOfWeek", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rules := make([]models.BusinessHoursRule, 0)
	for cursor.Next(ctx) {
		var rule models.BusinessHoursRule
		if err := cursor.Decode(&rule); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, cursor.Err()
}

func activeOverlapFilter(start, end time.Time) bson.M {
	return bson.M{
		"status":      bson.M{"$in": models.ActiveBookingStatuses()},
		"bufferStart": bson.M{"$lt": end},
		"bufferEnd":   bson.M{"$gt": start},
	}
}

func (m *Mongo) CountActiveBookings(ctx context.Context, serviceID string, start, end time.Time) (int, error) {
	filter := activeOverlapFilter(start, end)
	filter["serviceId"] = serviceID
	count, err := m.cols.Bookings.CountDocuments(ctx, filter)
	return int(count), err
}

func (m *Mongo) ListServiceBookings(ctx context.Context, serviceID string, start, end time.Time) ([]models.Booking, error) {
	filter := activeOverlapFilter(start, end)
	filter["serviceId"] = serviceID
	return m.findBookings(ctx, filter, options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}}))
}

func (m *Mongo) ListEligibleStaff(ctx context.Context, providerID, serviceID string, anyStaffMember bool) ([]models.StaffMember, error) {
	filter := bson.M{"providerId": providerID, "isActive": true}
	if !anyStaffMember {
		filter["serviceIds"] = serviceID
	}

	cursor, err := m.cols.Staff.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	staff := make([]models.StaffMember, 0)
	for cursor.Next(ctx) {
		var member models.StaffMember
		if err := cursor.Decode(&member); err != nil {
			return nil, err
		}
		staff = append(staff, member)
	}
	return staff, cursor.Err()
}

func (m *Mongo) ListStaffBookings(ctx context.Context, staffIDs []string, start, end time.Time) ([]models.Booking, error) {
	if len(staffIDs) == 0 {
		return nil, nil
	}
	filter := activeOverlapFilter(start, end)
	filter["staffId"] = bson.M{"$in": staffIDs}
	return m.findBookings(ctx, filter, nil)
}

func (m *Mongo) ListStaffOverrides(ctx context.Context, staffIDs []string, start, end time.Time) ([]models.StaffAvailability, error) {
	if len(staffIDs) == 0 {
		return nil, nil
	}
	cursor, err := m.cols.StaffOverrides.Find(ctx, bson.M{
		"staffId": bson.M{"$in": staffIDs},
		"start":   bson.M{"$lt": end},
		"end":     bson.M{"$gt": start},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	overrides := make([]models.StaffAvailability, 0)
	for cursor.Next(ctx) {
		var ov models.StaffAvailability
		if err := cursor.Decode(&ov); err != nil {
			return nil, err
		}
		overrides = append(overrides, ov)
	}
	return overrides, cursor.Err()
}

// CreateBooking inserts the booking; a duplicate-key error from the partial
// unique index means a concurrent attempt won the slot.
func (m *Mongo) CreateBooking(ctx context.Context, booking models.Booking) error {
	_, err := m.cols.Bookings.InsertOne(ctx, booking)
	return err
}

func IsDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func (m *Mongo) GetBooking(ctx context.Context, id string) (models.Booking, error) {
	var booking models.Booking
	if err := m.cols.Bookings.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Booking{}, fmt.Errorf("%w: booking %s", schedule.ErrNotFound, id)
		}
		return models.Booking{}, err
	}
	return booking, nil
}

func (m *Mongo) UpdateBookingStatus(ctx context.Context, id, status string, cancelledAt *time.Time) (models.Booking, error) {
	set := bson.M{"status": status, "updatedAt": time.Now().UTC()}
	if cancelledAt != nil {
		set["cancelledAt"] = *cancelledAt
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Booking
	if err := m.cols.Bookings.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Booking{}, fmt.Errorf("%w: booking %s", schedule.ErrNotFound, id)
		}
		return models.Booking{}, err
	}
	return updated, nil
}

type BookingFilter struct {
	ProviderID string
	ServiceID  string
	Status     string
	From       time.Time
	To         time.Time
}

func (f BookingFilter) query() bson.M {
	query := bson.M{}
	if f.ProviderID != "" {
		query["providerId"] = f.ProviderID
	}
	if f.ServiceID != "" {
		query["serviceId"] = f.ServiceID
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	span := bson.M{}
	if !f.From.IsZero() {
		span["$gte"] = f.From
	}
	if !f.To.IsZero() {
		span["$lt"] = f.To
	}
	if len(span) > 0 {
		query["startTime"] = span
	}
	return query
}

func (m *Mongo) ListBookings(ctx context.Context, filter BookingFilter, limit, offset int64) ([]models.Booking, int64, error) {
	query := filter.query()
	total, err := m.cols.Bookings.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "startTime", Value: 1}}).
		SetLimit(limit).
		SetSkip(offset)
	bookings, err := m.findBookings(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (m *Mongo) findBookings(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Booking, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = m.cols.Bookings.Find(ctx, filter, opts)
	} else {
		cursor, err = m.cols.Bookings.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	bookings := make([]models.Booking, 0)
	for cursor.Next(ctx) {
		var booking models.Booking
		if err := cursor.Decode(&booking); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, cursor.Err()
}
