package entity

import (
	"time"

	"storefront-insights/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoOrderDoc represents a mirrored order in MongoDB. TotalPrice stays
// a string; pipelines convert with $toDecimal when they need arithmetic.
type MongoOrderDoc struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty"`
	ShopifyID         string              `bson:"shopifyId"`
	OrderNumber       string              `bson:"orderNumber,omitempty"`
	TotalPrice        string              `bson:"totalPrice"`
	Currency          string              `bson:"currency,omitempty"`
	FinancialStatus   string              `bson:"financialStatus,omitempty"`
	FulfillmentStatus string              `bson:"fulfillmentStatus,omitempty"`
	ProcessedAt       *time.Time          `bson:"processedAt,omitempty"`
	StoreID           primitive.ObjectID  `bson:"storeId"`
	CustomerID        *primitive.ObjectID `bson:"customerId,omitempty"`
	CreatedAt         time.Time           `bson:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoOrderDoc) ToDomain() *domain.Order {
	order := &domain.Order{
		ID:                d.ID.Hex(),
		ShopifyID:         d.ShopifyID,
		OrderNumber:       d.OrderNumber,
		TotalPrice:        d.TotalPrice,
		Currency:          d.Currency,
		FinancialStatus:   d.FinancialStatus,
		FulfillmentStatus: d.FulfillmentStatus,
		ProcessedAt:       d.ProcessedAt,
		StoreID:           d.StoreID.Hex(),
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
	if d.CustomerID != nil {
		order.CustomerID = d.CustomerID.Hex()
	}
	return order
}

// MongoOrderDocFromDomain converts a domain entity to a MongoDB document.
func MongoOrderDocFromDomain(order *domain.Order) (*MongoOrderDoc, error) {
	storeID, err := primitive.ObjectIDFromHex(order.StoreID)
	if err != nil {
		return nil, err
	}

	doc := &MongoOrderDoc{
		ShopifyID:         order.ShopifyID,
		OrderNumber:       order.OrderNumber,
		TotalPrice:        order.TotalPrice,
		Currency:          order.Currency,
		FinancialStatus:   order.FinancialStatus,
		FulfillmentStatus: order.FulfillmentStatus,
		ProcessedAt:       order.ProcessedAt,
		StoreID:           storeID,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
	if order.CustomerID != "" {
		customerID, err := primitive.ObjectIDFromHex(order.CustomerID)
		if err != nil {
			return nil, err
		}
		doc.CustomerID = &customerID
	}
	if order.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(order.ID); err == nil {
			doc.ID = objID
		}
	}
	return doc, nil
}
