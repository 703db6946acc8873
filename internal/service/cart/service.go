package cart

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/locker"
	"github.com/mukeshkumar44/e-commerce-backend/internal/metrics"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository"
	"github.com/mukeshkumar44/e-commerce-backend/internal/telemetry"
)

const lockTimeout = 5 * time.Second

// LockKey is shared with order creation so checkout and cart edits of one user
// never interleave.
func LockKey(user primitive.ObjectID) string {
	return locker.UserKey("cart", user.Hex())
}

type Service struct {
	products repository.Products
	carts    repository.Carts
	locks    locker.Locker
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewService(
	products repository.Products,
	carts repository.Carts,
	locks locker.Locker,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		products: products,
		carts:    carts,
		locks:    locks,
		metrics:  m,
		logger:   logger.With("component", "cart"),
	}
}

// GetCart never creates a cart; a user without one gets the empty projection.
func (s *Service) GetCart(ctx context.Context, user primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.carts.FindByUser(ctx, user)
	if apperr.IsKind(err, apperr.NotFound) {
		empty := models.EmptyCart(user)
		return &empty, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) AddItem(ctx context.Context, user, productID primitive.ObjectID, quantity int) (cart *models.Cart, err error) {
	ctx, span := telemetry.StartSpan(ctx, "cart.add_item")
	span.SetAttributes(
		attribute.String("user.id", user.Hex()),
		attribute.String("product.id", productID.Hex()),
		attribute.Int("quantity", quantity),
	)
	defer func() {
		s.metrics.RecordCartMutation(ctx, "add_item", err)
		telemetry.EndSpan(span, err)
	}()

	if quantity < 1 {
		return nil, apperr.E(apperr.InvalidQuantity, "quantity must be at least 1")
	}

	unlock, err := locker.Acquire(ctx, s.locks, LockKey(user), lockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.IsDeleted {
		return nil, apperr.E(apperr.NotFound, "product %s not found", productID.Hex())
	}
	if !product.IsActive {
		return nil, apperr.E(apperr.Inactive, "product %q is not available", product.Name)
	}

	cart, err = s.loadOrNew(ctx, user)
	if err != nil {
		return nil, err
	}

	idx := cart.FindProduct(productID)
	existing := 0
	if idx >= 0 {
		existing = cart.Items[idx].Quantity
	}
	if existing+quantity > product.Stock {
		return nil, apperr.E(apperr.InsufficientStock, "only %d items available in stock", product.Stock)
	}

	if idx >= 0 {
		cart.Items[idx].Quantity += quantity
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ID:       primitive.NewObjectID(),
			Product:  productID,
			Quantity: quantity,
			Price:    product.EffectivePrice(),
		})
	}

	cart.Recalculate()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		"userId", user.Hex(),
		"productId", productID.Hex(),
		"quantity", quantity,
		"totalAmount", cart.TotalAmount,
	)
	return cart, nil
}

func (s *Service) UpdateItem(ctx context.Context, user, itemID primitive.ObjectID, quantity int) (cart *models.Cart, err error) {
	ctx, span := telemetry.StartSpan(ctx, "cart.update_item")
	span.SetAttributes(attribute.String("user.id", user.Hex()), attribute.Int("quantity", quantity))
	defer func() {
		s.metrics.RecordCartMutation(ctx, "update_item", err)
		telemetry.EndSpan(span, err)
	}()

	if quantity < 1 {
		return nil, apperr.E(apperr.InvalidQuantity, "quantity must be at least 1")
	}

	unlock, err := locker.Acquire(ctx, s.locks, LockKey(user), lockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cart, err = s.carts.FindByUser(ctx, user)
	if err != nil {
		return nil, err
	}

	idx := cart.FindItem(itemID)
	if idx < 0 {
		return nil, apperr.E(apperr.NotFound, "item not found in cart")
	}

	product, err := s.products.FindByID(ctx, cart.Items[idx].Product)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, apperr.E(apperr.InsufficientStock, "only %d items available in stock", product.Stock)
	}

	cart.Items[idx].Quantity = quantity
	cart.Recalculate()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item updated",
		"userId", user.Hex(),
		"itemId", itemID.Hex(),
		"quantity", quantity,
	)
	return cart, nil
}

// RemoveItem deletes the cart outright when its last line goes, returning the
// empty projection.
func (s *Service) RemoveItem(ctx context.Context, user, itemID primitive.ObjectID) (cart *models.Cart, err error) {
	ctx, span := telemetry.StartSpan(ctx, "cart.remove_item")
	span.SetAttributes(attribute.String("user.id", user.Hex()))
	defer func() {
		s.metrics.RecordCartMutation(ctx, "remove_item", err)
		telemetry.EndSpan(span, err)
	}()

	unlock, err := locker.Acquire(ctx, s.locks, LockKey(user), lockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cart, err = s.carts.FindByUser(ctx, user)
	if err != nil {
		return nil, err
	}

	idx := cart.FindItem(itemID)
	if idx < 0 {
		return nil, apperr.E(apperr.NotFound, "item not found in cart")
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	if len(cart.Items) == 0 {
		if err := s.carts.DeleteByUser(ctx, user); err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "last cart item removed, cart deleted", "userId", user.Hex())
		empty := models.EmptyCart(user)
		return &empty, nil
	}

	cart.Recalculate()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "cart item removed", "userId", user.Hex(), "itemId", itemID.Hex())
	return cart, nil
}

func (s *Service) Clear(ctx context.Context, user primitive.ObjectID) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "cart.clear")
	defer func() {
		s.metrics.RecordCartMutation(ctx, "clear", err)
		telemetry.EndSpan(span, err)
	}()

	unlock, err := locker.Acquire(ctx, s.locks, LockKey(user), lockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.carts.DeleteByUser(ctx, user); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "cart cleared", "userId", user.Hex())
	return nil
}

func (s *Service) loadOrNew(ctx context.Context, user primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.carts.FindByUser(ctx, user)
	if apperr.IsKind(err, apperr.NotFound) {
		return &models.Cart{User: user, Items: []models.CartItem{}}, nil
	}
	return cart, err
}
