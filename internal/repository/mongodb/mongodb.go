package mongodb

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository"
)

const (
	productsCollection      = "products"
	categoriesCollection    = "categories"
	cartsCollection         = "carts"
	ordersCollection        = "orders"
	usersCollection         = "users"
	refreshTokensCollection = "refresh_tokens"
)

// Transactor runs units of work inside a MongoDB multi-document transaction.
// With transactions disabled (standalone servers) fn runs directly.
type Transactor struct {
	client  *mongo.Client
	enabled bool
}

func NewTransactor(client *mongo.Client, enabled bool) *Transactor {
	return &Transactor{client: client, enabled: enabled}
}

func (t *Transactor) Enabled() bool {
	return t.enabled
}

func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.E(apperr.NotFound, format, args...)
	}
	return err
}

func searchRegex(search string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
}

var (
	_ repository.Products      = (*ProductStore)(nil)
	_ repository.Categories    = (*CategoryStore)(nil)
	_ repository.Carts         = (*CartStore)(nil)
	_ repository.Orders        = (*OrderStore)(nil)
	_ repository.Users         = (*UserStore)(nil)
	_ repository.RefreshTokens = (*RefreshTokenStore)(nil)
	_ repository.Transactor    = (*Transactor)(nil)
)
