package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository"
)

type ProductStore struct {
	coll *mongo.Collection
}

func NewProductStore(db *mongo.Database) *ProductStore {
	return &ProductStore{coll: db.Collection(productsCollection)}
}

func (s *ProductStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, notFoundOr(err, "product %s not found", id.Hex())
	}
	product.Normalize()
	return &product, nil
}

func (s *ProductStore) Insert(ctx context.Context, product *models.Product) error {
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, product)
	return err
}

func (s *ProductStore) Update(ctx context.Context, product *models.Product) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.E(apperr.NotFound, "product %s not found", product.ID.Hex())
	}
	return nil
}

func (s *ProductStore) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{
			"isDeleted": true,
			"isActive":  false,
			"deletedAt": now,
			"updatedAt": now,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.E(apperr.NotFound, "product %s not found", id.Hex())
	}
	return nil
}

// DecrementStock runs as a single update pipeline so concurrent orders can
// never drive stock below zero.
func (s *ProductStore) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "stock", Value: bson.D{{Key: "$max", Value: bson.A{
				0,
				bson.D{{Key: "$subtract", Value: bson.A{"$stock", quantity}}},
			}}}},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.E(apperr.NotFound, "product %s not found", id.Hex())
	}
	return nil
}

func (s *ProductStore) IncrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"stock": quantity},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.E(apperr.NotFound, "product %s not found", id.Hex())
	}
	return nil
}

func (s *ProductStore) SetStock(ctx context.Context, id primitive.ObjectID, stock int) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"stock": stock, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.E(apperr.NotFound, "product %s not found", id.Hex())
	}
	return nil
}

func (s *ProductStore) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	query := productQuery(filter)

	total, err := s.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(productSort(filter.Sort))
	if filter.Page.Limit > 0 {
		opts.SetSkip(filter.Page.Skip()).SetLimit(filter.Page.Limit)
	}

	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	for i := range products {
		products[i].Normalize()
	}
	return products, total, nil
}

func (s *ProductStore) CountByCategory(ctx context.Context, category primitive.ObjectID) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{"category": category, "isDeleted": bson.M{"$ne": true}})
}

func (s *ProductStore) Stats(ctx context.Context) (models.ProductStats, error) {
	live := bson.M{"isDeleted": bson.M{"$ne": true}}
	with := func(extra bson.M) bson.M {
		q := bson.M{"isDeleted": bson.M{"$ne": true}}
		for k, v := range extra {
			q[k] = v
		}
		return q
	}

	var stats models.ProductStats
	counts := []struct {
		target *int64
		query  bson.M
	}{
		{&stats.Total, live},
		{&stats.Active, with(bson.M{"isActive": true})},
		{&stats.Inactive, with(bson.M{"isActive": false})},
		{&stats.OutOfStock, with(bson.M{"stock": 0})},
		{&stats.LowStock, with(bson.M{"stock": bson.M{"$gt": 0, "$lt": models.LowStockThreshold}})},
		{&stats.Featured, with(bson.M{"featured": true})},
	}
	for _, c := range counts {
		n, err := s.coll.CountDocuments(ctx, c.query)
		if err != nil {
			return models.ProductStats{}, err
		}
		*c.target = n
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: live}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: categoriesCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "category"},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "count", Value: 1},
			{Key: "name", Value: bson.D{{Key: "$ifNull", Value: bson.A{
				bson.D{{Key: "$arrayElemAt", Value: bson.A{"$category.name", 0}}},
				"Uncategorized",
			}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.ProductStats{}, err
	}
	defer cursor.Close(ctx)

	stats.ByCategory = make([]models.CategoryCount, 0)
	if err := cursor.All(ctx, &stats.ByCategory); err != nil {
		return models.ProductStats{}, err
	}
	return stats, nil
}

func productQuery(filter repository.ProductFilter) bson.M {
	query := bson.M{}
	if !filter.WithDeleted {
		query["isDeleted"] = bson.M{"$ne": true}
	}
	if filter.Category != nil {
		query["category"] = *filter.Category
	}
	if filter.Featured != nil {
		query["featured"] = *filter.Featured
	}
	if filter.IsActive != nil {
		query["isActive"] = *filter.IsActive
	}

	priceRange := bson.M{}
	if filter.MinPrice != nil {
		priceRange["$gte"] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		priceRange["$lte"] = *filter.MaxPrice
	}
	if len(priceRange) > 0 {
		query["price"] = priceRange
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		query["$or"] = bson.A{
			bson.M{"name": searchRegex(search)},
			bson.M{"description": searchRegex(search)},
		}
	}
	return query
}

func productSort(sort string) bson.D {
	switch sort {
	case "price-asc":
		return bson.D{{Key: "price", Value: 1}}
	case "price-desc":
		return bson.D{{Key: "price", Value: -1}}
	case "oldest":
		return bson.D{{Key: "createdAt", Value: 1}}
	case "name-asc":
		return bson.D{{Key: "name", Value: 1}}
	case "name-desc":
		return bson.D{{Key: "name", Value: -1}}
	case "stock-asc":
		return bson.D{{Key: "stock", Value: 1}}
	case "stock-desc":
		return bson.D{{Key: "stock", Value: -1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}
