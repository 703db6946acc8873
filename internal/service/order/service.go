package order

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/locker"
	"github.com/mukeshkumar44/e-commerce-backend/internal/metrics"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
	"github.com/mukeshkumar44/e-commerce-backend/internal/money"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository"
	cartsvc "github.com/mukeshkumar44/e-commerce-backend/internal/service/cart"
	"github.com/mukeshkumar44/e-commerce-backend/internal/telemetry"
)

const (
	lockTimeout         = 5 * time.Second
	defaultCountry      = "India"
	defaultCancelReason = "Cancelled by user"
)

type Dependencies struct {
	Products repository.Products
	Orders   repository.Orders
	Carts    repository.Carts
	Tx       repository.Transactor
	Locks    locker.Locker
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

type Service struct {
	products repository.Products
	orders   repository.Orders
	carts    repository.Carts
	tx       repository.Transactor
	locks    locker.Locker
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewService(deps Dependencies) *Service {
	return &Service{
		products: deps.Products,
		orders:   deps.Orders,
		carts:    deps.Carts,
		tx:       deps.Tx,
		locks:    deps.Locks,
		metrics:  deps.Metrics,
		logger:   deps.Logger.With("component", "order"),
	}
}

type CreateOrderInput struct {
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
	ShippingPrice   float64
	TaxPrice        float64
	Notes           string
}

// RestockResult counts the items put back on the shelf by one restoration pass.
type RestockResult struct {
	Restocked int `json:"restocked"`
	Failed    int `json:"failed"`
	Pending   int `json:"pending"`
}

func orderLockKey(id primitive.ObjectID) string {
	return "order:" + id.Hex()
}

// atomic reports whether the transactor provides real rollback.
func (s *Service) atomic() bool {
	if t, ok := s.tx.(interface{ Enabled() bool }); ok {
		return t.Enabled()
	}
	return true
}

// CreateOrder converts the user's cart into a PENDING order, takes the ordered
// quantities out of stock and deletes the cart.
func (s *Service) CreateOrder(ctx context.Context, user primitive.ObjectID, in CreateOrderInput) (order *models.Order, err error) {
	started := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "order.create")
	span.SetAttributes(attribute.String("user.id", user.Hex()))
	defer func() {
		s.metrics.RecordOrderCreated(ctx, err, time.Since(started).Seconds())
		telemetry.EndSpan(span, err)
	}()

	method, ok := models.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return nil, apperr.E(apperr.Invalid, "unsupported payment method %q", in.PaymentMethod)
	}
	if err := validatePrice("shippingPrice", in.ShippingPrice); err != nil {
		return nil, err
	}
	if err := validatePrice("taxPrice", in.TaxPrice); err != nil {
		return nil, err
	}

	unlock, err := locker.Acquire(ctx, s.locks, cartsvc.LockKey(user), lockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cart, err := s.carts.FindByUser(ctx, user)
	if apperr.IsKind(err, apperr.NotFound) {
		return nil, apperr.E(apperr.EmptyCart, "cart is empty")
	}
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperr.E(apperr.EmptyCart, "cart is empty")
	}

	items, err := s.snapshot(ctx, cart)
	if err != nil {
		return nil, err
	}

	id := primitive.NewObjectID()
	now := time.Now()
	address := in.ShippingAddress
	if strings.TrimSpace(address.Country) == "" {
		address.Country = defaultCountry
	}
	order = &models.Order{
		ID:              id,
		OrderNumber:     models.OrderNumberFor(id),
		User:            user,
		OrderItems:      items,
		ShippingAddress: address,
		PaymentMethod:   method,
		ItemsPrice:      cart.TotalAmount,
		ShippingPrice:   in.ShippingPrice,
		TaxPrice:        in.TaxPrice,
		DiscountPrice:   cart.DiscountAmount,
		TotalPrice:      money.OrderTotal(cart.TotalAmount, in.ShippingPrice, in.TaxPrice, cart.DiscountAmount),
		OrderStatus:     models.StatusPending,
		Notes:           strings.TrimSpace(in.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if s.atomic() {
		err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
			return s.persistOrder(ctx, order, nil)
		})
	} else {
		var decremented []models.OrderItem
		if err = s.persistOrder(ctx, order, &decremented); err != nil {
			s.compensate(ctx, order, decremented)
		}
	}
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order created",
		"orderId", order.ID.Hex(),
		"orderNumber", order.OrderNumber,
		"userId", user.Hex(),
		"items", len(order.OrderItems),
		"totalPrice", order.TotalPrice,
	)
	return order, nil
}

func validatePrice(name string, v float64) error {
	if !money.Finite(v) || v < 0 {
		return apperr.E(apperr.Invalid, "%s must be a non-negative number", name)
	}
	return nil
}

// snapshot copies name and image from the live product; the unit price stays
// the one captured when the line entered the cart.
func (s *Service) snapshot(ctx context.Context, cart *models.Cart) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		product, err := s.products.FindByID(ctx, line.Product)
		if err != nil {
			return nil, err
		}
		items = append(items, models.OrderItem{
			Product:    line.Product,
			Name:       product.Name,
			Quantity:   line.Quantity,
			Price:      line.Price,
			Image:      product.PrimaryImage(),
			TotalPrice: money.LineTotal(line.Price, line.Quantity),
		})
	}
	return items, nil
}

// persistOrder inserts the order, decrements stock and deletes the cart. When
// decremented is non-nil it collects the items whose stock was already taken.
func (s *Service) persistOrder(ctx context.Context, order *models.Order, decremented *[]models.OrderItem) error {
	if err := s.orders.Insert(ctx, order); err != nil {
		return err
	}
	for _, item := range order.OrderItems {
		if err := s.products.DecrementStock(ctx, item.Product, item.Quantity); err != nil {
			return err
		}
		if decremented != nil {
			*decremented = append(*decremented, item)
		}
	}
	if err := s.carts.DeleteByUser(ctx, order.User); err != nil && !apperr.IsKind(err, apperr.NotFound) {
		return err
	}
	return nil
}

func (s *Service) compensate(ctx context.Context, order *models.Order, decremented []models.OrderItem) {
	for _, item := range decremented {
		if err := s.products.IncrementStock(ctx, item.Product, item.Quantity); err != nil {
			s.metrics.RecordRestockFailure(ctx)
			s.logger.ErrorContext(ctx, "failed to restore stock after aborted order",
				"orderId", order.ID.Hex(),
				"productId", item.Product.Hex(),
				"quantity", item.Quantity,
				"error", err,
			)
		}
	}
	if err := s.orders.Delete(ctx, order.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to remove aborted order", "orderId", order.ID.Hex(), "error", err)
	}
}

// UpdateStatus is the administrative transition. Entering CANCELLED or RETURNED
// puts every item back into stock.
func (s *Service) UpdateStatus(ctx context.Context, id primitive.ObjectID, rawStatus, reason string) (order *models.Order, err error) {
	ctx, span := telemetry.StartSpan(ctx, "order.update_status")
	span.SetAttributes(attribute.String("order.id", id.Hex()), attribute.String("order.status", rawStatus))
	defer func() { telemetry.EndSpan(span, err) }()

	status, ok := models.ParseOrderStatus(rawStatus)
	if !ok {
		return nil, apperr.E(apperr.Invalid, "unknown order status %q", rawStatus)
	}

	unlock, err := locker.Acquire(ctx, s.locks, orderLockKey(id), lockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err = s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, order, status, strings.TrimSpace(reason)); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) CancelOrder(ctx context.Context, actor models.Actor, id primitive.ObjectID, reason string) (order *models.Order, err error) {
	ctx, span := telemetry.StartSpan(ctx, "order.cancel")
	span.SetAttributes(attribute.String("order.id", id.Hex()), attribute.String("user.id", actor.UserID.Hex()))
	defer func() { telemetry.EndSpan(span, err) }()

	unlock, err := locker.Acquire(ctx, s.locks, orderLockKey(id), lockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err = s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(order.User) {
		return nil, apperr.E(apperr.Forbidden, "not allowed to cancel this order")
	}
	if !Cancellable(order.OrderStatus) {
		return nil, apperr.E(apperr.InvalidState, "order cannot be cancelled in status %s", order.OrderStatus)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultCancelReason
	}
	if err := s.transition(ctx, order, models.StatusCancelled, reason); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) transition(ctx context.Context, order *models.Order, to models.OrderStatus, reason string) error {
	from := order.OrderStatus
	if !CanTransition(from, to) {
		return apperr.E(apperr.InvalidState, "cannot move order from %s to %s", from, to)
	}

	now := time.Now()
	order.OrderStatus = to
	switch to {
	case models.StatusDelivered:
		if from != to {
			order.IsDelivered = true
			order.DeliveredAt = &now
		}
	case models.StatusCancelled:
		if reason != "" {
			order.CancelReason = reason
		}
	case models.StatusReturned:
		if reason != "" {
			order.ReturnReason = reason
		}
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	s.metrics.RecordStatusTransition(ctx, string(from), string(to))
	s.logger.InfoContext(ctx, "order status changed",
		"orderId", order.ID.Hex(),
		"from", from,
		"to", to,
	)

	if to.RestoresStock() {
		s.restoreStock(ctx, order)
	}
	return nil
}

// restoreStock claims every pending item before incrementing its product so a
// repeated pass never restores the same item twice. Failures are logged and
// left pending for ReconcileStock.
func (s *Service) restoreStock(ctx context.Context, order *models.Order) RestockResult {
	var result RestockResult
	for _, i := range order.PendingRestock() {
		item := order.OrderItems[i]
		log := s.logger.With("orderId", order.ID.Hex(), "productId", item.Product.Hex(), "quantity", item.Quantity)

		claimed, err := s.orders.ClaimRestock(ctx, order.ID, i)
		if err != nil {
			result.Failed++
			s.metrics.RecordRestockFailure(ctx)
			log.ErrorContext(ctx, "failed to claim item for restock", "error", err)
			continue
		}
		if !claimed {
			order.OrderItems[i].Restocked = true
			continue
		}

		if err := s.products.IncrementStock(ctx, item.Product, item.Quantity); err != nil {
			result.Failed++
			s.metrics.RecordRestockFailure(ctx)
			log.ErrorContext(ctx, "failed to restore stock", "error", err)
			if err := s.orders.ReleaseRestock(ctx, order.ID, i); err != nil {
				log.ErrorContext(ctx, "failed to release restock claim", "error", err)
			}
			continue
		}
		order.OrderItems[i].Restocked = true
		result.Restocked++
	}
	result.Pending = len(order.PendingRestock())
	return result
}

// ReconcileStock retries restoration for a cancelled or returned order.
func (s *Service) ReconcileStock(ctx context.Context, id primitive.ObjectID) (result RestockResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "order.reconcile_stock")
	span.SetAttributes(attribute.String("order.id", id.Hex()))
	defer func() { telemetry.EndSpan(span, err) }()

	unlock, err := locker.Acquire(ctx, s.locks, orderLockKey(id), lockTimeout)
	if err != nil {
		return result, err
	}
	defer unlock()

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return result, err
	}
	if !order.OrderStatus.RestoresStock() {
		return result, apperr.E(apperr.InvalidState, "order in status %s holds no stock to restore", order.OrderStatus)
	}

	result = s.restoreStock(ctx, order)
	s.logger.InfoContext(ctx, "stock reconciled",
		"orderId", id.Hex(),
		"restocked", result.Restocked,
		"failed", result.Failed,
	)
	return result, nil
}

// MarkPaid records a captured payment. A cash-on-delivery order that gets paid
// electronically switches to ONLINE.
func (s *Service) MarkPaid(ctx context.Context, id primitive.ObjectID, result models.PaymentResult) (order *models.Order, err error) {
	ctx, span := telemetry.StartSpan(ctx, "order.mark_paid")
	span.SetAttributes(attribute.String("order.id", id.Hex()))
	defer func() { telemetry.EndSpan(span, err) }()

	unlock, err := locker.Acquire(ctx, s.locks, orderLockKey(id), lockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err = s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.IsPaid {
		return nil, apperr.E(apperr.AlreadyPaid, "order %s is already paid", order.OrderNumber)
	}

	now := time.Now()
	if result.UpdateTime == "" {
		result.UpdateTime = now.UTC().Format(time.RFC3339)
	}
	order.IsPaid = true
	order.PaidAt = &now
	order.PaymentResult = &result
	if order.PaymentMethod == models.PaymentCOD {
		order.PaymentMethod = models.PaymentOnline
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "order marked paid", "orderId", id.Hex(), "paymentId", result.ID)
	return order, nil
}

// AddTracking stores the carrier tracking number. A PROCESSING order moves to
// SHIPPED with it.
func (s *Service) AddTracking(ctx context.Context, id primitive.ObjectID, trackingNumber string) (order *models.Order, err error) {
	ctx, span := telemetry.StartSpan(ctx, "order.add_tracking")
	span.SetAttributes(attribute.String("order.id", id.Hex()))
	defer func() { telemetry.EndSpan(span, err) }()

	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, apperr.E(apperr.Required, "tracking number is required")
	}

	unlock, err := locker.Acquire(ctx, s.locks, orderLockKey(id), lockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err = s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	order.TrackingNumber = trackingNumber

	if order.OrderStatus == models.StatusProcessing {
		err = s.transition(ctx, order, models.StatusShipped, "")
	} else {
		err = s.orders.Update(ctx, order)
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// SetPaymentIntent binds a gateway intent to the order so a callback can only
// pay the order it was created for.
func (s *Service) SetPaymentIntent(ctx context.Context, id primitive.ObjectID, intentID string) error {
	unlock, err := locker.Acquire(ctx, s.locks, orderLockKey(id), lockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if order.IsPaid {
		return apperr.E(apperr.AlreadyPaid, "order %s is already paid", order.OrderNumber)
	}
	order.PaymentIntentID = intentID
	return s.orders.Update(ctx, order)
}

func (s *Service) GetOrder(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(order.User) {
		return nil, apperr.E(apperr.Forbidden, "not allowed to view this order")
	}
	return order, nil
}

func (s *Service) ListMine(ctx context.Context, user primitive.ObjectID) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, user)
}

// ListAll returns one page of orders plus count and revenue over the whole filter.
func (s *Service) ListAll(ctx context.Context, filter repository.OrderFilter) ([]models.Order, models.OrderSummary, error) {
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, models.OrderSummary{}, err
	}
	summary, err := s.orders.Summary(ctx, filter)
	if err != nil {
		return nil, models.OrderSummary{}, err
	}
	return orders, summary, nil
}
