package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository"
)

type OrderStore struct {
	coll *mongo.Collection
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{coll: db.Collection(ordersCollection)}
}

func (s *OrderStore) Insert(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, order)
	return err
}

func (s *OrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, notFoundOr(err, "order %s not found", id.Hex())
	}
	return &order, nil
}

func (s *OrderStore) Update(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = time.Now()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.E(apperr.NotFound, "order %s not found", order.ID.Hex())
	}
	return nil
}

func (s *OrderStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *OrderStore) ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.Order, error) {
	return s.List(ctx, repository.OrderFilter{User: &user})
}

func (s *OrderStore) List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Page.Limit > 0 {
		opts.SetSkip(filter.Page.Skip()).SetLimit(filter.Page.Limit)
	}

	cursor, err := s.coll.Find(ctx, orderQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderStore) Summary(ctx context.Context, filter repository.OrderFilter) (models.OrderSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: orderQuery(filter)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "totalAmount", Value: bson.D{{Key: "$sum", Value: "$totalPrice"}}},
		}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.OrderSummary{}, err
	}
	defer cursor.Close(ctx)

	var summary models.OrderSummary
	if cursor.Next(ctx) {
		if err := cursor.Decode(&summary); err != nil {
			return models.OrderSummary{}, err
		}
	}
	return summary, cursor.Err()
}

func (s *OrderStore) ClaimRestock(ctx context.Context, id primitive.ObjectID, item int) (bool, error) {
	field := fmt.Sprintf("orderItems.%d.restocked", item)
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, field: bson.M{"$ne": true}},
		bson.M{"$set": bson.M{field: true}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s *OrderStore) ReleaseRestock(ctx context.Context, id primitive.ObjectID, item int) error {
	field := fmt.Sprintf("orderItems.%d.restocked", item)
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{field: false}})
	return err
}

func orderQuery(filter repository.OrderFilter) bson.M {
	query := bson.M{}
	if filter.Status != nil {
		query["orderStatus"] = *filter.Status
	}
	if filter.User != nil {
		query["user"] = *filter.User
	}
	return query
}
