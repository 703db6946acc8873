package memory

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
	"github.com/mukeshkumar44/e-commerce-backend/internal/money"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository"
)

type CartStore struct{ s *Store }

func cloneCart(c models.Cart) models.Cart {
	c.Items = append([]models.CartItem{}, c.Items...)
	return c
}

func (r *CartStore) FindByUser(_ context.Context, user primitive.ObjectID) (*models.Cart, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cart, ok := r.s.carts[user]
	if !ok {
		return nil, apperr.E(apperr.NotFound, "cart not found")
	}
	cart = cloneCart(cart)
	return &cart, nil
}

func (r *CartStore) Save(_ context.Context, cart *models.Cart) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	stored, exists := r.s.carts[cart.User]
	switch {
	case cart.ID.IsZero() && exists:
		return apperr.E(apperr.Conflict, "cart was modified concurrently")
	case cart.ID.IsZero():
		cart.ID = primitive.NewObjectID()
		cart.CreatedAt = now
	case !exists || stored.Version != cart.Version:
		return apperr.E(apperr.Conflict, "cart was modified concurrently")
	}

	cart.Version++
	cart.UpdatedAt = now
	r.s.carts[cart.User] = cloneCart(*cart)
	return nil
}

func (r *CartStore) DeleteByUser(_ context.Context, user primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.carts[user]; !ok {
		return apperr.E(apperr.NotFound, "cart not found")
	}
	delete(r.s.carts, user)
	return nil
}

type OrderStore struct{ s *Store }

func cloneOrder(o models.Order) models.Order {
	o.OrderItems = append([]models.OrderItem{}, o.OrderItems...)
	if o.PaymentResult != nil {
		result := *o.PaymentResult
		o.PaymentResult = &result
	}
	return o
}

func (r *OrderStore) Insert(_ context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	r.s.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (r *OrderStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	order, ok := r.s.orders[id]
	if !ok {
		return nil, apperr.E(apperr.NotFound, "order %s not found", id.Hex())
	}
	order = cloneOrder(order)
	return &order, nil
}

func (r *OrderStore) Update(_ context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[order.ID]; !ok {
		return apperr.E(apperr.NotFound, "order %s not found", order.ID.Hex())
	}
	order.UpdatedAt = time.Now()
	r.s.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (r *OrderStore) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.orders, id)
	return nil
}

func (r *OrderStore) ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.Order, error) {
	return r.List(ctx, repository.OrderFilter{User: &user})
}

func (r *OrderStore) List(_ context.Context, filter repository.OrderFilter) ([]models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	orders := r.match(filter)
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return paginate(orders, filter.Page), nil
}

func (r *OrderStore) Summary(_ context.Context, filter repository.OrderFilter) (models.OrderSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	orders := r.match(filter)
	totals := make([]float64, 0, len(orders))
	for _, o := range orders {
		totals = append(totals, o.TotalPrice)
	}
	return models.OrderSummary{Count: int64(len(orders)), TotalAmount: money.Sum(totals...)}, nil
}

func (r *OrderStore) match(filter repository.OrderFilter) []models.Order {
	orders := make([]models.Order, 0)
	for _, o := range r.s.orders {
		if filter.Status != nil && o.OrderStatus != *filter.Status {
			continue
		}
		if filter.User != nil && o.User != *filter.User {
			continue
		}
		orders = append(orders, cloneOrder(o))
	}
	return orders
}

func (r *OrderStore) ClaimRestock(_ context.Context, id primitive.ObjectID, item int) (bool, error) {
	return r.setRestocked(id, item, true)
}

func (r *OrderStore) ReleaseRestock(_ context.Context, id primitive.ObjectID, item int) error {
	_, err := r.setRestocked(id, item, false)
	return err
}

func (r *OrderStore) setRestocked(id primitive.ObjectID, item int, value bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order, ok := r.s.orders[id]
	if !ok {
		return false, apperr.E(apperr.NotFound, "order %s not found", id.Hex())
	}
	if item < 0 || item >= len(order.OrderItems) || order.OrderItems[item].Restocked == value {
		return false, nil
	}
	order = cloneOrder(order)
	order.OrderItems[item].Restocked = value
	r.s.orders[id] = order
	return true, nil
}
