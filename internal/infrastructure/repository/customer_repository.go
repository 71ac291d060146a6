package repository

import (
	"context"
	"errors"
	"time"

	"storefront-insights/internal/domain"
	"storefront-insights/internal/infrastructure/repository/entity"
	"storefront-insights/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCustomerRepository implements ports.CustomerRepository using MongoDB.
type MongoCustomerRepository struct {
	collection *mongo.Collection
}

// NewMongoCustomerRepository creates a new MongoDB customer repository.
func NewMongoCustomerRepository(db *mongo.Database) ports.CustomerRepository {
	return &MongoCustomerRepository{collection: db.Collection(customersCollection)}
}

// InsertManySkipDuplicates inserts the batch unordered; rows colliding on
// the (storeId, shopifyId) unique index are skipped, everything else in
// the batch still lands.
func (r *MongoCustomerRepository) InsertManySkipDuplicates(ctx context.Context, customers []*domain.Customer) (int, error) {
	if len(customers) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(customers))
	for _, customer := range customers {
		doc, err := entity.MongoCustomerDocFromDomain(customer)
		if err != nil {
			return 0, wrapErr("build customer document", err)
		}
		doc.CreatedAt = now
		doc.UpdatedAt = now
		docs = append(docs, doc)
	}

	res, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	inserted := 0
	if res != nil {
		inserted = len(res.InsertedIDs)
	}
	if err != nil {
		if isOnlyDuplicateKeyFailure(err) {
			return inserted, nil
		}
		return inserted, wrapErr("insert customers", err)
	}
	return inserted, nil
}

// MapShopifyIDs returns shopifyId -> local id for every customer of the
// store. Newly batch-inserted customers only get their local ids here.
func (r *MongoCustomerRepository) MapShopifyIDs(ctx context.Context, storeID string) (map[string]string, error) {
	storeOID, err := primitive.ObjectIDFromHex(storeID)
	if err != nil {
		return nil, wrapErr("parse store id", err)
	}

	opts := options.Find().SetProjection(bson.M{"shopifyId": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"storeId": storeOID}, opts)
	if err != nil {
		return nil, wrapErr("list customer ids", err)
	}
	defer cursor.Close(ctx)

	idMap := make(map[string]string)
	for cursor.Next(ctx) {
		var doc struct {
			ID        primitive.ObjectID `bson:"_id"`
			ShopifyID string             `bson:"shopifyId"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, wrapErr("decode customer id", err)
		}
		idMap[doc.ShopifyID] = doc.ID.Hex()
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapErr("iterate customer ids", err)
	}
	return idMap, nil
}

// UpsertCustomer creates or refreshes one customer keyed by
// (storeId, shopifyId) and returns its local id.
func (r *MongoCustomerRepository) UpsertCustomer(ctx context.Context, customer *domain.Customer) (string, domain.UpsertOutcome, error) {
	storeOID, err := primitive.ObjectIDFromHex(customer.StoreID)
	if err != nil {
		return "", domain.OutcomeUpdated, wrapErr("parse store id", err)
	}

	now := time.Now().UTC()
	filter := bson.M{"storeId": storeOID, "shopifyId": customer.ShopifyID}
	update := bson.M{
		"$set": bson.M{
			"email":     customer.Email,
			"firstName": customer.FirstName,
			"lastName":  customer.LastName,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"shopifyId": customer.ShopifyID,
			"storeId":   storeOID,
			"createdAt": now,
		},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return "", domain.OutcomeUpdated, wrapErr("upsert customer", err)
	}

	if res.UpsertedID != nil {
		if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
			return oid.Hex(), domain.OutcomeInserted, nil
		}
	}

	var doc entity.MongoCustomerDoc
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return "", domain.OutcomeUpdated, wrapErr("get customer after upsert", err)
	}
	return doc.ID.Hex(), domain.OutcomeUpdated, nil
}

// CountByStore counts the store's customers.
func (r *MongoCustomerRepository) CountByStore(ctx context.Context, storeID string) (int64, error) {
	storeOID, err := primitive.ObjectIDFromHex(storeID)
	if err != nil {
		return 0, wrapErr("parse store id", err)
	}
	count, err := r.collection.CountDocuments(ctx, bson.M{"storeId": storeOID})
	return count, wrapErr("count customers", err)
}

// isOnlyDuplicateKeyFailure reports whether every write error in an
// unordered bulk insert was a duplicate-key collision, which the
// insert-or-skip-duplicate contract swallows.
func isOnlyDuplicateKeyFailure(err error) bool {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) {
		return false
	}
	if bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != 11000 {
			return false
		}
	}
	return true
}
