package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
)

// Products is the catalog store for products. Lookups return an apperr.NotFound
// error when the product does not exist.
type Products interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Insert(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	// DecrementStock lowers stock by quantity, never below zero.
	DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error
	IncrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error
	SetStock(ctx context.Context, id primitive.ObjectID, stock int) error
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	CountByCategory(ctx context.Context, category primitive.ObjectID) (int64, error)
	Stats(ctx context.Context) (models.ProductStats, error)
}

type Categories interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	ExistsByName(ctx context.Context, name string, exclude *primitive.ObjectID) (bool, error)
	Insert(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountChildren(ctx context.Context, id primitive.ObjectID) (int64, error)
	List(ctx context.Context, filter CategoryFilter) ([]models.Category, error)
}

// Carts persists at most one cart per user.
type Carts interface {
	FindByUser(ctx context.Context, user primitive.ObjectID) (*models.Cart, error)
	// Save writes the cart when its stored version still equals cart.Version,
	// then bumps the version. A mismatch is an apperr.Conflict.
	Save(ctx context.Context, cart *models.Cart) error
	DeleteByUser(ctx context.Context, user primitive.ObjectID) error
}

type Orders interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	Summary(ctx context.Context, filter OrderFilter) (models.OrderSummary, error)
	// ClaimRestock flips the restocked flag of one item and reports whether
	// this call was the one that flipped it.
	ClaimRestock(ctx context.Context, id primitive.ObjectID, item int) (bool, error)
	ReleaseRestock(ctx context.Context, id primitive.ObjectID, item int) error
}

type Users interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByRole(ctx context.Context, role string) (bool, error)
	Insert(ctx context.Context, user *models.User) error
}

type RefreshTokens interface {
	Insert(ctx context.Context, token *models.RefreshToken) error
	FindActiveByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) error
	RevokeByHash(ctx context.Context, hash string) (bool, error)
}

// Transactor runs fn as one unit of work. Stores called with the ctx handed
// to fn take part in the same transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Page struct {
	Page  int64
	Limit int64
}

func (p Page) Skip() int64 {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

type ProductFilter struct {
	Category    *primitive.ObjectID
	Featured    *bool
	IsActive    *bool
	MinPrice    *float64
	MaxPrice    *float64
	Search      string
	Sort        string
	WithDeleted bool
	Page        Page
}

type CategoryFilter struct {
	IsActive *bool
	Parent   *primitive.ObjectID
	RootOnly bool
	Search   string
}

type OrderFilter struct {
	Status *models.OrderStatus
	User   *primitive.ObjectID
	Page   Page
}
