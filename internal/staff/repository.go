package staff

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookwise-backend/internal/models"
)

type Repository interface {
	Create(ctx context.Context, item models.StaffMember) error
	Update(ctx context.Context, id string, set bson.M) (models.StaffMember, error)
	GetByID(ctx context.Context, id string) (models.StaffMember, error)
	List(ctx context.Context, filter AdminListFilter, limit, offset int64) ([]models.StaffMember, error)
	Count(ctx context.Context, filter AdminListFilter) (int64, error)
	CreateOverride(ctx context.Context, item models.StaffAvailability) error
	DeleteOverride(ctx context.Context, staffID, overrideID string) (bool, error)
	ListOverrides(ctx context.Context, staffID string, from, to time.Time) ([]models.StaffAvailability, error)
}

type MongoRepository struct {
	staff     *mongo.Collection
	overrides *mongo.Collection
}

func NewRepository(staff, overrides *mongo.Collection) *MongoRepository {
	return &MongoRepository{staff: staff, overrides: overrides}
}

func (r *MongoRepository) Create(ctx context.Context, item models.StaffMember) error {
	_, err := r.staff.InsertOne(ctx, item)
	return err
}

func (r *MongoRepository) Update(ctx context.Context, id string, set bson.M) (models.StaffMember, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.StaffMember
	if err := r.staff.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return models.StaffMember{}, err
	}
	return updated, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (models.StaffMember, error) {
	var item models.StaffMember
	err := r.staff.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	return item, err
}

func (r *MongoRepository) List(ctx context.Context, filter AdminListFilter, limit, offset int64) ([]models.StaffMember, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.staff.Find(ctx, listQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.StaffMember, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) Count(ctx context.Context, filter AdminListFilter) (int64, error) {
	return r.staff.CountDocuments(ctx, listQuery(filter))
}

func listQuery(filter AdminListFilter) bson.M {
	query := bson.M{}
	if filter.ProviderID != "" {
		query["providerId"] = filter.ProviderID
	}
	if filter.ServiceID != "" {
		query["serviceIds"] = filter.ServiceID
	}
	if !filter.IncludeInactive {
		query["isActive"] = true
	}
	return query
}

func (r *MongoRepository) CreateOverride(ctx context.Context, item models.StaffAvailability) error {
	_, err := r.overrides.InsertOne(ctx, item)
	return err
}

func (r *MongoRepository) DeleteOverride(ctx context.Context, staffID, overrideID string) (bool, error) {
	res, err := r.overrides.DeleteOne(ctx, bson.M{"_id": overrideID, "staffId": staffID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoRepository) ListOverrides(ctx context.Context, staffID string, from, to time.Time) ([]models.StaffAvailability, error) {
	query := bson.M{"staffId": staffID}
	if !from.IsZero() || !to.IsZero() {
		// Range filter matches any override overlapping [from, to).
		if !to.IsZero() {
			query["start"] = bson.M{"$lt": to}
		}
		if !from.IsZero() {
			query["end"] = bson.M{"$gt": from}
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := r.overrides.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.StaffAvailability, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}
