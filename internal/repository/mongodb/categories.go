package mongodb

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository"
)

type CategoryStore struct {
	coll *mongo.Collection
}

func NewCategoryStore(db *mongo.Database) *CategoryStore {
	return &CategoryStore{coll: db.Collection(categoriesCollection)}
}

func (s *CategoryStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var category models.Category
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&category); err != nil {
		return nil, notFoundOr(err, "category %s not found", id.Hex())
	}
	return &category, nil
}

// ExistsByName compares names case-insensitively, matching the unique index collation.
func (s *CategoryStore) ExistsByName(ctx context.Context, name string, exclude *primitive.ObjectID) (bool, error) {
	query := bson.M{"name": name}
	if exclude != nil {
		query["_id"] = bson.M{"$ne": *exclude}
	}
	opts := options.Count().SetCollation(&options.Collation{Locale: "en", Strength: 2})
	count, err := s.coll.CountDocuments(ctx, query, opts)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *CategoryStore) Insert(ctx context.Context, category *models.Category) error {
	if category.ID.IsZero() {
		category.ID = primitive.NewObjectID()
	}
	if _, err := s.coll.InsertOne(ctx, category); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.E(apperr.Conflict, "category name already exists")
		}
		return err
	}
	return nil
}

func (s *CategoryStore) Update(ctx context.Context, category *models.Category) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": category.ID}, category)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.E(apperr.Conflict, "category name already exists")
		}
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.E(apperr.NotFound, "category %s not found", category.ID.Hex())
	}
	return nil
}

func (s *CategoryStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.E(apperr.NotFound, "category %s not found", id.Hex())
	}
	return nil
}

func (s *CategoryStore) CountChildren(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{"parentCategory": id})
}

func (s *CategoryStore) List(ctx context.Context, filter repository.CategoryFilter) ([]models.Category, error) {
	query := bson.M{}
	if filter.IsActive != nil {
		query["isActive"] = *filter.IsActive
	}
	switch {
	case filter.Parent != nil:
		query["parentCategory"] = *filter.Parent
	case filter.RootOnly:
		query["parentCategory"] = nil
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query["name"] = searchRegex(search)
	}

	cursor, err := s.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	categories := make([]models.Category, 0)
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}
