package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
)

type CartStore struct {
	coll *mongo.Collection
}

func NewCartStore(db *mongo.Database) *CartStore {
	return &CartStore{coll: db.Collection(cartsCollection)}
}

func (s *CartStore) FindByUser(ctx context.Context, user primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	if err := s.coll.FindOne(ctx, bson.M{"user": user}).Decode(&cart); err != nil {
		return nil, notFoundOr(err, "cart not found")
	}
	return &cart, nil
}

func (s *CartStore) Save(ctx context.Context, cart *models.Cart) error {
	now := time.Now()
	cart.UpdatedAt = now

	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
		cart.CreatedAt = now
		cart.Version = 1
		if _, err := s.coll.InsertOne(ctx, cart); err != nil {
			cart.ID = primitive.NilObjectID
			cart.Version = 0
			if mongo.IsDuplicateKeyError(err) {
				return apperr.E(apperr.Conflict, "cart was modified concurrently")
			}
			return err
		}
		return nil
	}

	expected := cart.Version
	cart.Version++
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": cart.ID, "version": expected}, cart)
	if err != nil {
		cart.Version = expected
		return err
	}
	if res.MatchedCount == 0 {
		cart.Version = expected
		return apperr.E(apperr.Conflict, "cart was modified concurrently")
	}
	return nil
}

func (s *CartStore) DeleteByUser(ctx context.Context, user primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"user": user})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.E(apperr.NotFound, "cart not found")
	}
	return nil
}
