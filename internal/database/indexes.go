package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type collectionIndex struct {
	collection string
	model      mongo.IndexModel
}

var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

func indexSpecs() []collectionIndex {
	return []collectionIndex{
		{"products", mongo.IndexModel{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index().SetName("category_active"),
		}},
		{"products", mongo.IndexModel{
			Keys:    bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().SetName("name_description_text"),
		}},
		{"categories", mongo.IndexModel{
			Keys: bson.D{{Key: "name", Value: 1}},
			Options: options.Index().
				SetName("name_unique").
				SetUnique(true).
				SetCollation(caseInsensitive),
		}},
		{"categories", mongo.IndexModel{
			Keys:    bson.D{{Key: "parentCategory", Value: 1}},
			Options: options.Index().SetName("parentCategory_index"),
		}},
		{"carts", mongo.IndexModel{
			Keys:    bson.D{{Key: "user", Value: 1}},
			Options: options.Index().SetName("user_unique").SetUnique(true),
		}},
		{"orders", mongo.IndexModel{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("user_createdAt"),
		}},
		{"orders", mongo.IndexModel{
			Keys:    bson.D{{Key: "orderStatus", Value: 1}},
			Options: options.Index().SetName("orderStatus_index"),
		}},
		{"users", mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		}},
		{"refresh_tokens", mongo.IndexModel{
			Keys:    bson.D{{Key: "tokenHash", Value: 1}},
			Options: options.Index().SetName("tokenHash_unique").SetUnique(true),
		}},
		{"refresh_tokens", mongo.IndexModel{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetName("expiresAt_ttl").SetExpireAfterSeconds(0),
		}},
	}
}

// EnsureIndexes creates every index the stores rely on. It keeps going after a
// failure so one conflicting legacy index does not block the rest.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var errs []error
	for _, spec := range indexSpecs() {
		name := *spec.model.Options.Name
		if _, err := db.Collection(spec.collection).Indexes().CreateOne(ctx, spec.model); err != nil {
			logger.WarnContext(ctx, "index creation failed",
				"collection", spec.collection,
				"index", name,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s.%s: %w", spec.collection, name, err))
			continue
		}
		logger.DebugContext(ctx, "index ensured", "collection", spec.collection, "index", name)
	}
	return errors.Join(errs...)
}
