package entity

import (
	"time"

	"storefront-insights/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoStoreDoc represents a connected store in MongoDB.
type MongoStoreDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Shop        string             `bson:"shop"`
	AccessToken string             `bson:"accessToken"`
	UserID      string             `bson:"userId,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoStoreDoc) ToDomain() *domain.Store {
	return &domain.Store{
		ID:          d.ID.Hex(),
		Shop:        d.Shop,
		AccessToken: d.AccessToken,
		UserID:      d.UserID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoStoreDocFromDomain converts a domain entity to a MongoDB document.
func MongoStoreDocFromDomain(store *domain.Store) *MongoStoreDoc {
	doc := &MongoStoreDoc{
		Shop:        store.Shop,
		AccessToken: store.AccessToken,
		UserID:      store.UserID,
		CreatedAt:   store.CreatedAt,
		UpdatedAt:   store.UpdatedAt,
	}
	if store.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(store.ID); err == nil {
			doc.ID = objID
		}
	}
	return doc
}

// MongoUserDoc represents a dashboard operator in MongoDB. The _id is the
// identity provider's subject claim, not an ObjectID.
type MongoUserDoc struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email,omitempty"`
	Name      string    `bson:"name,omitempty"`
	AvatarURL string    `bson:"avatarUrl,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoUserDoc) ToDomain() *domain.User {
	return &domain.User{
		ID:        d.ID,
		Email:     d.Email,
		Name:      d.Name,
		AvatarURL: d.AvatarURL,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MongoUserDocFromDomain converts a domain entity to a MongoDB document.
func MongoUserDocFromDomain(user *domain.User) *MongoUserDoc {
	return &MongoUserDoc{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
