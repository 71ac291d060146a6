package repository

import (
	"context"
	"time"

	"storefront-insights/internal/domain"
	"storefront-insights/internal/infrastructure/repository/entity"
	"storefront-insights/internal/ports"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoInsightsRepository implements ports.InsightsRepository with
// aggregation pipelines. Prices are stored as strings, so every sum goes
// through $toDecimal inside the database; nothing is summed in float64.
type MongoInsightsRepository struct {
	orders    *mongo.Collection
	customers *mongo.Collection
}

// NewMongoInsightsRepository creates a new MongoDB insights repository.
func NewMongoInsightsRepository(db *mongo.Database) ports.InsightsRepository {
	return &MongoInsightsRepository{
		orders:    db.Collection(ordersCollection),
		customers: db.Collection(customersCollection),
	}
}

// sumPrice is the $toDecimal sum used by every revenue aggregate.
var sumPrice = bson.M{"$sum": bson.M{"$toDecimal": "$totalPrice"}}

func decimalFrom128(d primitive.Decimal128) decimal.Decimal {
	value, err := decimal.NewFromString(d.String())
	if err != nil {
		return decimal.Zero
	}
	return value
}

// Totals computes the store-wide sum, order count and customer count.
func (r *MongoInsightsRepository) Totals(ctx context.Context, storeID string) (*domain.Totals, error) {
	storeOID, err := primitive.ObjectIDFromHex(storeID)
	if err != nil {
		return nil, wrapErr("parse store id", err)
	}

	pipeline := bson.A{
		bson.M{"$match": bson.M{"storeId": storeOID}},
		bson.M{"$group": bson.M{
			"_id":         nil,
			"totalSpent":  sumPrice,
			"totalOrders": bson.M{"$sum": 1},
		}},
	}

	cursor, err := r.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr("aggregate totals", err)
	}
	defer cursor.Close(ctx)

	totals := &domain.Totals{TotalSpent: decimal.Zero}
	if cursor.Next(ctx) {
		var row struct {
			TotalSpent  primitive.Decimal128 `bson:"totalSpent"`
			TotalOrders int64                `bson:"totalOrders"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, wrapErr("decode totals", err)
		}
		totals.TotalSpent = decimalFrom128(row.TotalSpent)
		totals.TotalOrders = row.TotalOrders
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapErr("iterate totals", err)
	}

	totalCustomers, err := r.customers.CountDocuments(ctx, bson.M{"storeId": storeOID})
	if err != nil {
		return nil, wrapErr("count customers", err)
	}
	totals.TotalCustomers = totalCustomers

	return totals, nil
}

// OrdersByDay buckets orders by the date portion of processedAt over
// [start, endExclusive), ascending.
func (r *MongoInsightsRepository) OrdersByDay(ctx context.Context, storeID string, start, endExclusive time.Time) ([]domain.DayBucket, error) {
	storeOID, err := primitive.ObjectIDFromHex(storeID)
	if err != nil {
		return nil, wrapErr("parse store id", err)
	}

	pipeline := bson.A{
		bson.M{"$match": bson.M{
			"storeId":     storeOID,
			"processedAt": bson.M{"$gte": start, "$lt": endExclusive},
		}},
		bson.M{"$group": bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$processedAt"}},
			"count": bson.M{"$sum": 1},
			"total": sumPrice,
		}},
		bson.M{"$sort": bson.M{"_id": 1}},
	}

	cursor, err := r.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr("aggregate orders by day", err)
	}
	defer cursor.Close(ctx)

	buckets := []domain.DayBucket{}
	for cursor.Next(ctx) {
		var row struct {
			Day   string               `bson:"_id"`
			Count int64                `bson:"count"`
			Total primitive.Decimal128 `bson:"total"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, wrapErr("decode day bucket", err)
		}
		buckets = append(buckets, domain.DayBucket{
			Day:   row.Day,
			Count: row.Count,
			Total: decimalFrom128(row.Total),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapErr("iterate day buckets", err)
	}
	return buckets, nil
}

// TopCustomers ranks customers by summed spend, descending. Orders with
// no customer link contribute nothing.
func (r *MongoInsightsRepository) TopCustomers(ctx context.Context, storeID string, limit int) ([]domain.CustomerSpend, error) {
	storeOID, err := primitive.ObjectIDFromHex(storeID)
	if err != nil {
		return nil, wrapErr("parse store id", err)
	}

	pipeline := bson.A{
		bson.M{"$match": bson.M{
			"storeId":    storeOID,
			"customerId": bson.M{"$ne": nil},
		}},
		bson.M{"$group": bson.M{
			"_id":        "$customerId",
			"totalSpend": sumPrice,
		}},
		bson.M{"$sort": bson.M{"totalSpend": -1}},
		bson.M{"$limit": limit},
		bson.M{"$lookup": bson.M{
			"from":         customersCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "customer",
		}},
		bson.M{"$unwind": bson.M{"path": "$customer", "preserveNullAndEmptyArrays": true}},
	}

	cursor, err := r.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr("aggregate top customers", err)
	}
	defer cursor.Close(ctx)

	spenders := []domain.CustomerSpend{}
	for cursor.Next(ctx) {
		var row struct {
			CustomerID primitive.ObjectID       `bson:"_id"`
			TotalSpend primitive.Decimal128     `bson:"totalSpend"`
			Customer   *entity.MongoCustomerDoc `bson:"customer"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, wrapErr("decode top customer", err)
		}

		spend := domain.CustomerSpend{
			CustomerID: row.CustomerID.Hex(),
			TotalSpend: decimalFrom128(row.TotalSpend),
		}
		if row.Customer != nil {
			spend.Name = row.Customer.ToDomain().DisplayName()
			spend.Email = row.Customer.Email
		}
		spenders = append(spenders, spend)
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapErr("iterate top customers", err)
	}
	return spenders, nil
}

// TopOrders returns the store's highest-value orders with denormalized
// customer identity.
func (r *MongoInsightsRepository) TopOrders(ctx context.Context, storeID string, limit int) ([]domain.OrderSummary, error) {
	storeOID, err := primitive.ObjectIDFromHex(storeID)
	if err != nil {
		return nil, wrapErr("parse store id", err)
	}

	pipeline := bson.A{
		bson.M{"$match": bson.M{"storeId": storeOID}},
		bson.M{"$addFields": bson.M{"totalValue": bson.M{"$toDecimal": "$totalPrice"}}},
		bson.M{"$sort": bson.M{"totalValue": -1}},
		bson.M{"$limit": limit},
		bson.M{"$lookup": bson.M{
			"from":         customersCollection,
			"localField":   "customerId",
			"foreignField": "_id",
			"as":           "customer",
		}},
		bson.M{"$unwind": bson.M{"path": "$customer", "preserveNullAndEmptyArrays": true}},
	}

	cursor, err := r.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr("aggregate top orders", err)
	}
	defer cursor.Close(ctx)

	return decodeOrderSummaries(ctx, cursor)
}

// OrdersForCustomer lists one customer's orders, newest first, optionally
// bounded by [start, endExclusive).
func (r *MongoInsightsRepository) OrdersForCustomer(ctx context.Context, customerID string, start, endExclusive *time.Time) ([]domain.OrderSummary, error) {
	customerOID, err := primitive.ObjectIDFromHex(customerID)
	if err != nil {
		return nil, wrapErr("parse customer id", err)
	}

	match := bson.M{"customerId": customerOID}
	if start != nil && endExclusive != nil {
		match["processedAt"] = bson.M{"$gte": *start, "$lt": *endExclusive}
	}

	pipeline := bson.A{
		bson.M{"$match": match},
		bson.M{"$sort": bson.M{"processedAt": -1}},
	}

	cursor, err := r.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr("list customer orders", err)
	}
	defer cursor.Close(ctx)

	return decodeOrderSummaries(ctx, cursor)
}

// RevenueBetween sums order totals and counts orders processed within
// [start, endExclusive).
func (r *MongoInsightsRepository) RevenueBetween(ctx context.Context, storeID string, start, endExclusive time.Time) (*domain.MonthRevenue, error) {
	storeOID, err := primitive.ObjectIDFromHex(storeID)
	if err != nil {
		return nil, wrapErr("parse store id", err)
	}

	pipeline := bson.A{
		bson.M{"$match": bson.M{
			"storeId":     storeOID,
			"processedAt": bson.M{"$gte": start, "$lt": endExclusive},
		}},
		bson.M{"$group": bson.M{
			"_id":     nil,
			"revenue": sumPrice,
			"orders":  bson.M{"$sum": 1},
		}},
	}

	cursor, err := r.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr("aggregate revenue", err)
	}
	defer cursor.Close(ctx)

	revenue := &domain.MonthRevenue{Revenue: decimal.Zero}
	if cursor.Next(ctx) {
		var row struct {
			Revenue primitive.Decimal128 `bson:"revenue"`
			Orders  int64                `bson:"orders"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, wrapErr("decode revenue", err)
		}
		revenue.Revenue = decimalFrom128(row.Revenue)
		revenue.Orders = row.Orders
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapErr("iterate revenue", err)
	}
	return revenue, nil
}

func decodeOrderSummaries(ctx context.Context, cursor *mongo.Cursor) ([]domain.OrderSummary, error) {
	summaries := []domain.OrderSummary{}
	for cursor.Next(ctx) {
		var row struct {
			ID          primitive.ObjectID       `bson:"_id"`
			OrderNumber string                   `bson:"orderNumber"`
			TotalPrice  string                   `bson:"totalPrice"`
			Currency    string                   `bson:"currency"`
			ProcessedAt *time.Time               `bson:"processedAt"`
			Customer    *entity.MongoCustomerDoc `bson:"customer"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, wrapErr("decode order summary", err)
		}

		total, err := decimal.NewFromString(row.TotalPrice)
		if err != nil {
			total = decimal.Zero
		}
		summary := domain.OrderSummary{
			ID:          row.ID.Hex(),
			OrderNumber: row.OrderNumber,
			Total:       total,
			Currency:    row.Currency,
			ProcessedAt: row.ProcessedAt,
		}
		if row.Customer != nil {
			summary.CustomerName = row.Customer.ToDomain().DisplayName()
			summary.CustomerEmail = row.Customer.Email
		}
		summaries = append(summaries, summary)
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapErr("iterate order summaries", err)
	}
	return summaries, nil
}
