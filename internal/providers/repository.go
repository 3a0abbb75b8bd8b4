package providers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookwise-backend/internal/models"
)

type Repository interface {
	Create(ctx context.Context, item models.Provider) error
	Update(ctx context.Context, id string, set bson.M) (models.Provider, error)
	GetByID(ctx context.Context, id string) (models.Provider, error)
	GetBySlug(ctx context.Context, slug string) (models.Provider, error)
	ListPublic(ctx context.Context) ([]models.Provider, error)
	ListAdmin(ctx context.Context, filter AdminListFilter, limit, offset int64) ([]models.Provider, error)
	CountAdmin(ctx context.Context, filter AdminListFilter) (int64, error)
	ListHours(ctx context.Context, providerID string) ([]models.BusinessHoursRule, error)
	ReplaceHours(ctx context.Context, providerID string, rules []models.BusinessHoursRule) error
}

type MongoRepository struct {
	providers *mongo.Collection
	hours     *mongo.Collection
}

func NewRepository(providers, hours *mongo.Collection) *MongoRepository {
	return &MongoRepository{providers: providers, hours: hours}
}

func (r *MongoRepository) Create(ctx context.Context, item models.Provider) error {
	_, err := r.providers.InsertOne(ctx, item)
	return err
}

func (r *MongoRepository) Update(ctx context.Context, id string, set bson.M) (models.Provider, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Provider
	if err := r.providers.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return models.Provider{}, err
	}
	return updated, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (models.Provider, error) {
	var item models.Provider
	err := r.providers.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	return item, err
}

func (r *MongoRepository) GetBySlug(ctx context.Context, slug string) (models.Provider, error) {
	var item models.Provider
	err := r.providers.FindOne(ctx, bson.M{"slug": slug}).Decode(&item)
	return item, err
}

func (r *MongoRepository) ListPublic(ctx context.Context) ([]models.Provider, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.providers.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.Provider, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) ListAdmin(ctx context.Context, filter AdminListFilter, limit, offset int64) ([]models.Provider, error) {
	query := bson.M{}
	if !filter.IncludeInactive {
		query["isActive"] = true
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.providers.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.Provider, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) CountAdmin(ctx context.Context, filter AdminListFilter) (int64, error) {
	query := bson.M{}
	if !filter.IncludeInactive {
		query["isActive"] = true
	}
	return r.providers.CountDocuments(ctx, query)
}

func (r *MongoRepository) ListHours(ctx context.Context, providerID string) ([]models.BusinessHoursRule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "dayOfWeek", Value: 1}})
	cursor, err := r.hours.Find(ctx, bson.M{"providerId": providerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rules := make([]models.BusinessHoursRule, 0)
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// ReplaceHours swaps the weekly template atomically enough for an admin tool:
// clear then insert. The unique (providerId, dayOfWeek) index keeps concurrent
// writers from doubling up a weekday.
func (r *MongoRepository) ReplaceHours(ctx context.Context, providerID string, rules []models.BusinessHoursRule) error {
	if _, err := r.hours.DeleteMany(ctx, bson.M{"providerId": providerID}); err != nil {
		return err
	}
	if len(rules) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(rules))
	for _, rule := range rules {
		docs = append(docs, rule)
	}
	_, err := r.hours.InsertMany(ctx, docs)
	return err
}
