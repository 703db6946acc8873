package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository"
)

// ProductInput carries the fields of a create or partial update. Nil means
// "not provided".
type ProductInput struct {
	Name            *string
	Description     *string
	Price           *float64
	DiscountedPrice *float64
	Category        *primitive.ObjectID
	Stock           *int
	Featured        *bool
	IsActive        *bool
	Images          []string
	ReplaceImages   bool
}

type StockUpdate struct {
	ProductID primitive.ObjectID `json:"productId"`
	Stock     int                `json:"stock"`
}

type StockUpdateFailure struct {
	ProductID primitive.ObjectID `json:"productId"`
	Error     string             `json:"error"`
}

type BulkStockResult struct {
	Updated int                  `json:"updated"`
	Failed  []StockUpdateFailure `json:"failed"`
}

type ProductService struct {
	products   repository.Products
	categories repository.Categories
	logger     *slog.Logger
}

func NewProductService(products repository.Products, categories repository.Categories, logger *slog.Logger) *ProductService {
	return &ProductService{
		products:   products,
		categories: categories,
		logger:     logger.With("component", "products"),
	}
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	name := ""
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	if name == "" {
		return nil, apperr.E(apperr.Required, "name required")
	}
	if in.Price == nil {
		return nil, apperr.E(apperr.Required, "price required")
	}
	if err := validatePrice(*in.Price); err != nil {
		return nil, err
	}
	discounted := 0.0
	if in.DiscountedPrice != nil {
		discounted = *in.DiscountedPrice
	}
	if err := validateDiscount(*in.Price, discounted); err != nil {
		return nil, err
	}
	if in.Stock == nil {
		return nil, apperr.E(apperr.Required, "stock required")
	}
	if *in.Stock < 0 {
		return nil, apperr.E(apperr.Invalid, "stock must be zero or greater")
	}
	if in.Category == nil {
		return nil, apperr.E(apperr.Required, "category required")
	}
	if err := s.ensureCategory(ctx, *in.Category); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &models.Product{
		Name:            name,
		Price:           *in.Price,
		DiscountedPrice: discounted,
		Category:        *in.Category,
		Stock:           *in.Stock,
		Images:          models.StringList(in.Images),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.Description != nil {
		product.Description = strings.TrimSpace(*in.Description)
	}
	if in.Featured != nil {
		product.Featured = *in.Featured
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}

	if err := s.products.Insert(ctx, product); err != nil {
		return nil, err
	}
	product.Normalize()
	s.logger.InfoContext(ctx, "product created", "productId", product.ID.Hex(), "name", product.Name)
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, id primitive.ObjectID, in ProductInput) (*models.Product, error) {
	product, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.E(apperr.Required, "name required")
		}
		product.Name = name
	}
	if in.Description != nil {
		product.Description = strings.TrimSpace(*in.Description)
	}

	prices, err := resolvePricing(
		pricing{Price: product.Price, DiscountedPrice: product.DiscountedPrice},
		pricingInput{Price: in.Price, DiscountedPrice: in.DiscountedPrice},
	)
	if err != nil {
		return nil, err
	}
	product.Price = prices.Price
	product.DiscountedPrice = prices.DiscountedPrice

	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, apperr.E(apperr.Invalid, "stock must be zero or greater")
		}
		product.Stock = *in.Stock
	}
	if in.Category != nil {
		if err := s.ensureCategory(ctx, *in.Category); err != nil {
			return nil, err
		}
		product.Category = *in.Category
	}
	if in.Featured != nil {
		product.Featured = *in.Featured
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	switch {
	case in.ReplaceImages:
		product.Images = models.StringList(in.Images)
	case len(in.Images) > 0:
		product.Images = append(product.Images, in.Images...)
	}

	product.UpdatedAt = time.Now()
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	product.Normalize()
	s.logger.InfoContext(ctx, "product updated", "productId", id.Hex())
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.products.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "product deleted", "productId", id.Hex())
	return nil
}

func (s *ProductService) SetStatus(ctx context.Context, id primitive.ObjectID, active bool) (*models.Product, error) {
	product, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	product.IsActive = active
	product.UpdatedAt = time.Now()
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "product status changed", "productId", id.Hex(), "isActive", active)
	return product, nil
}

// BulkUpdateStock applies every valid entry and reports the rest per product.
func (s *ProductService) BulkUpdateStock(ctx context.Context, updates []StockUpdate) (BulkStockResult, error) {
	if len(updates) == 0 {
		return BulkStockResult{}, apperr.E(apperr.Required, "updates required")
	}

	result := BulkStockResult{Failed: []StockUpdateFailure{}}
	for _, u := range updates {
		if u.Stock < 0 {
			result.Failed = append(result.Failed, StockUpdateFailure{ProductID: u.ProductID, Error: "stock must be zero or greater"})
			continue
		}
		if err := s.products.SetStock(ctx, u.ProductID, u.Stock); err != nil {
			if apperr.KindOf(err) == apperr.Internal {
				return result, err
			}
			result.Failed = append(result.Failed, StockUpdateFailure{ProductID: u.ProductID, Error: apperr.Message(err)})
			continue
		}
		result.Updated++
	}

	s.logger.InfoContext(ctx, "bulk stock update", "updated", result.Updated, "failed", len(result.Failed))
	return result, nil
}

// Get returns a product for admin views, deleted or not.
func (s *ProductService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return s.products.FindByID(ctx, id)
}

// GetPublic hides deleted and inactive products.
func (s *ProductService) GetPublic(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.IsDeleted || !product.IsActive {
		return nil, apperr.E(apperr.NotFound, "product %s not found", id.Hex())
	}
	return product, nil
}

func (s *ProductService) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	return s.products.List(ctx, filter)
}

func (s *ProductService) ListPublic(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	active := true
	filter.IsActive = &active
	filter.WithDeleted = false
	return s.products.List(ctx, filter)
}

func (s *ProductService) Stats(ctx context.Context) (models.ProductStats, error) {
	return s.products.Stats(ctx)
}

func (s *ProductService) get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.IsDeleted {
		return nil, apperr.E(apperr.NotFound, "product %s not found", id.Hex())
	}
	return product, nil
}

func (s *ProductService) ensureCategory(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return apperr.E(apperr.Invalid, "category %s not found", id.Hex())
		}
		return err
	}
	return nil
}
