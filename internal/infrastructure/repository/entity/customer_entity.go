package entity

import (
	"time"

	"storefront-insights/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoCustomerDoc represents a mirrored customer in MongoDB. A unique
// compound index on (storeId, shopifyId) enforces the per-store
// uniqueness invariant.
type MongoCustomerDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ShopifyID string             `bson:"shopifyId"`
	Email     string             `bson:"email,omitempty"`
	FirstName string             `bson:"firstName,omitempty"`
	LastName  string             `bson:"lastName,omitempty"`
	StoreID   primitive.ObjectID `bson:"storeId"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoCustomerDoc) ToDomain() *domain.Customer {
	return &domain.Customer{
		ID:        d.ID.Hex(),
		ShopifyID: d.ShopifyID,
		Email:     d.Email,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		StoreID:   d.StoreID.Hex(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MongoCustomerDocFromDomain converts a domain entity to a MongoDB
// document.
func MongoCustomerDocFromDomain(customer *domain.Customer) (*MongoCustomerDoc, error) {
	storeID, err := primitive.ObjectIDFromHex(customer.StoreID)
	if err != nil {
		return nil, err
	}

	doc := &MongoCustomerDoc{
		ShopifyID: customer.ShopifyID,
		Email:     customer.Email,
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		StoreID:   storeID,
		CreatedAt: customer.CreatedAt,
		UpdatedAt: customer.UpdatedAt,
	}
	if customer.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(customer.ID); err == nil {
			doc.ID = objID
		}
	}
	return doc, nil
}
