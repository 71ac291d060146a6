package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-insights/internal/domain"
	"storefront-insights/internal/infrastructure/repository/entity"
	"storefront-insights/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	storesCollection    = "stores"
	usersCollection     = "users"
	customersCollection = "customers"
	ordersCollection    = "orders"
)

// wrapErr turns driver-level connectivity failures into the distinguished
// unreachable-dependency error and wraps everything else with the
// operation name. Transient pool timeouts keep their message intact so the
// retry wrapper can still match them.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return &domain.UnreachableDependencyError{Dependency: "database", Err: err}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// EnsureIndexes creates the unique indexes the reconciliation engine
// relies on: (storeId, shopifyId) for customers and orders, and the shop
// domain for stores. Insert-or-skip-duplicate semantics are only safe
// with these in place.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	_, err := db.Collection(storesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "shop", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return wrapErr("create stores index", err)
	}

	compound := bson.D{{Key: "storeId", Value: 1}, {Key: "shopifyId", Value: 1}}
	for _, coll := range []string{customersCollection, ordersCollection} {
		_, err := db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    compound,
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return wrapErr("create "+coll+" index", err)
		}
	}

	_, err = db.Collection(ordersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "storeId", Value: 1}, {Key: "processedAt", Value: 1}},
	})
	return wrapErr("create orders processedAt index", err)
}

// MongoStoreRepository implements ports.StoreRepository using MongoDB.
type MongoStoreRepository struct {
	collection *mongo.Collection
}

// NewMongoStoreRepository creates a new MongoDB store repository.
func NewMongoStoreRepository(db *mongo.Database) ports.StoreRepository {
	return &MongoStoreRepository{collection: db.Collection(storesCollection)}
}

// UpsertStore creates or refreshes a store keyed by its shop domain.
func (r *MongoStoreRepository) UpsertStore(ctx context.Context, store *domain.Store) (domain.UpsertOutcome, error) {
	now := time.Now().UTC()

	filter := bson.M{"shop": store.Shop}
	update := bson.M{
		"$set": bson.M{
			"accessToken": store.AccessToken,
			"userId":      store.UserID,
			"updatedAt":   now,
		},
		"$setOnInsert": bson.M{
			"shop":      store.Shop,
			"createdAt": now,
		},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return domain.OutcomeUpdated, wrapErr("upsert store", err)
	}

	if res.UpsertedID != nil {
		if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
			store.ID = oid.Hex()
		}
		return domain.OutcomeInserted, nil
	}

	var doc entity.MongoStoreDoc
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return domain.OutcomeUpdated, wrapErr("get store after upsert", err)
	}
	store.ID = doc.ID.Hex()
	return domain.OutcomeUpdated, nil
}

// GetStore retrieves a store by its local id.
func (r *MongoStoreRepository) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc entity.MongoStoreDoc
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get store", err)
	}
	return doc.ToDomain(), nil
}

// GetStoreByShop retrieves a store by its shop domain.
func (r *MongoStoreRepository) GetStoreByShop(ctx context.Context, shop string) (*domain.Store, error) {
	var doc entity.MongoStoreDoc
	err := r.collection.FindOne(ctx, bson.M{"shop": shop}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get store by shop", err)
	}
	return doc.ToDomain(), nil
}

// FirstStore returns the first store in storage, or nil when none exist.
func (r *MongoStoreRepository) FirstStore(ctx context.Context) (*domain.Store, error) {
	var doc entity.MongoStoreDoc
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get first store", err)
	}
	return doc.ToDomain(), nil
}

// ListStores retrieves at most limit store references.
func (r *MongoStoreRepository) ListStores(ctx context.Context, limit int) ([]domain.StoreRef, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrapErr("list stores", err)
	}
	defer cursor.Close(ctx)

	refs := []domain.StoreRef{}
	for cursor.Next(ctx) {
		var doc entity.MongoStoreDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, wrapErr("decode store", err)
		}
		refs = append(refs, doc.ToDomain().Ref())
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapErr("iterate stores", err)
	}
	return refs, nil
}

// MongoUserRepository implements ports.UserRepository using MongoDB.
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoDB user repository.
func NewMongoUserRepository(db *mongo.Database) ports.UserRepository {
	return &MongoUserRepository{collection: db.Collection(usersCollection)}
}

// UpsertUser creates or refreshes a user keyed by the identity subject.
func (r *MongoUserRepository) UpsertUser(ctx context.Context, user *domain.User) (domain.UpsertOutcome, error) {
	now := time.Now().UTC()

	filter := bson.M{"_id": user.ID}
	update := bson.M{
		"$set": bson.M{
			"email":     user.Email,
			"name":      user.Name,
			"avatarUrl": user.AvatarURL,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return domain.OutcomeUpdated, wrapErr("upsert user", err)
	}
	if res.UpsertedCount > 0 {
		return domain.OutcomeInserted, nil
	}
	return domain.OutcomeUpdated, nil
}
