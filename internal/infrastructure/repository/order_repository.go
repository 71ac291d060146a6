package repository

import (
	"context"
	"time"

	"storefront-insights/internal/domain"
	"storefront-insights/internal/infrastructure/repository/entity"
	"storefront-insights/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOrderRepository implements ports.OrderRepository using MongoDB.
type MongoOrderRepository struct {
	collection *mongo.Collection
}

// NewMongoOrderRepository creates a new MongoDB order repository.
func NewMongoOrderRepository(db *mongo.Database) ports.OrderRepository {
	return &MongoOrderRepository{collection: db.Collection(ordersCollection)}
}

// InsertManySkipDuplicates inserts the batch unordered, skipping rows
// that collide on the (storeId, shopifyId) unique index.
func (r *MongoOrderRepository) InsertManySkipDuplicates(ctx context.Context, orders []*domain.Order) (int, error) {
	if len(orders) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(orders))
	for _, order := range orders {
		doc, err := entity.MongoOrderDocFromDomain(order)
		if err != nil {
			return 0, wrapErr("build order document", err)
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
		return inserted, wrapErr("insert orders", err)
	}
	return inserted, nil
}

// UpsertOrder creates or refreshes one order keyed by (storeId,
// shopifyId). Status fields and the total refresh on update; identity
// fields and the customer link are fixed at insert time.
func (r *MongoOrderRepository) UpsertOrder(ctx context.Context, order *domain.Order) (string, domain.UpsertOutcome, error) {
	doc, err := entity.MongoOrderDocFromDomain(order)
	if err != nil {
		return "", domain.OutcomeUpdated, wrapErr("build order document", err)
	}

	now := time.Now().UTC()
	filter := bson.M{"storeId": doc.StoreID, "shopifyId": doc.ShopifyID}
	setOnInsert := bson.M{
		"shopifyId":   doc.ShopifyID,
		"storeId":     doc.StoreID,
		"orderNumber": doc.OrderNumber,
		"currency":    doc.Currency,
		"createdAt":   now,
	}
	if doc.ProcessedAt != nil {
		setOnInsert["processedAt"] = doc.ProcessedAt
	}
	if doc.CustomerID != nil {
		setOnInsert["customerId"] = doc.CustomerID
	}
	update := bson.M{
		"$set": bson.M{
			"totalPrice":        doc.TotalPrice,
			"financialStatus":   doc.FinancialStatus,
			"fulfillmentStatus": doc.FulfillmentStatus,
			"updatedAt":         now,
		},
		"$setOnInsert": setOnInsert,
	}

	res, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return "", domain.OutcomeUpdated, wrapErr("upsert order", err)
	}

	if res.UpsertedID != nil {
		if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
			return oid.Hex(), domain.OutcomeInserted, nil
		}
	}

	var existing entity.MongoOrderDoc
	if err := r.collection.FindOne(ctx, filter).Decode(&existing); err != nil {
		return "", domain.OutcomeUpdated, wrapErr("get order after upsert", err)
	}
	return existing.ID.Hex(), domain.OutcomeUpdated, nil
}

// CountByStore counts the store's orders.
func (r *MongoOrderRepository) CountByStore(ctx context.Context, storeID string) (int64, error) {
	storeOID, err := primitive.ObjectIDFromHex(storeID)
	if err != nil {
		return 0, wrapErr("parse store id", err)
	}
	count, err := r.collection.CountDocuments(ctx, bson.M{"storeId": storeOID})
	return count, wrapErr("count orders", err)
}
