package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/metrics"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
	"github.com/mukeshkumar44/e-commerce-backend/internal/money"
	"github.com/mukeshkumar44/e-commerce-backend/internal/telemetry"
)

// Intent is a gateway-side pending payment the client completes at checkout.
type Intent struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Gateway creates payment intents. Amounts are in minor units.
type Gateway interface {
	CreateOrderIntent(ctx context.Context, amount int64, currency, receipt string) (Intent, error)
}

// Orders is the part of the order engine payments drive.
type Orders interface {
	GetOrder(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Order, error)
	SetPaymentIntent(ctx context.Context, id primitive.ObjectID, intentID string) error
	MarkPaid(ctx context.Context, id primitive.ObjectID, result models.PaymentResult) (*models.Order, error)
}

type Service struct {
	gateway  Gateway
	orders   Orders
	secret   []byte
	currency string
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewService builds the payment component. A nil gateway leaves intents
// unavailable while callbacks can still be verified.
func NewService(gateway Gateway, orders Orders, secret, currency string, m *metrics.Metrics, logger *slog.Logger) *Service {
	if currency == "" {
		currency = "INR"
	}
	return &Service{
		gateway:  gateway,
		orders:   orders,
		secret:   []byte(secret),
		currency: currency,
		metrics:  m,
		logger:   logger.With("component", "payment"),
	}
}

func (s *Service) CreateIntent(ctx context.Context, actor models.Actor, orderID primitive.ObjectID) (intent Intent, err error) {
	ctx, span := telemetry.StartSpan(ctx, "payment.create_intent")
	span.SetAttributes(attribute.String("order.id", orderID.Hex()))
	defer func() { telemetry.EndSpan(span, err) }()

	if s.gateway == nil {
		return Intent{}, apperr.E(apperr.Unavailable, "online payments are not configured")
	}

	order, err := s.orders.GetOrder(ctx, actor, orderID)
	if err != nil {
		return Intent{}, err
	}
	if order.IsPaid {
		return Intent{}, apperr.E(apperr.AlreadyPaid, "order %s is already paid", order.OrderNumber)
	}

	intent, err = s.gateway.CreateOrderIntent(ctx, money.ToMinorUnits(order.TotalPrice), s.currency, order.ID.Hex())
	if err != nil {
		return Intent{}, err
	}
	if err := s.orders.SetPaymentIntent(ctx, order.ID, intent.ID); err != nil {
		return Intent{}, err
	}

	s.logger.InfoContext(ctx, "payment intent created",
		"orderId", order.ID.Hex(),
		"intentId", intent.ID,
		"amount", intent.Amount,
		"currency", intent.Currency,
	)
	return intent, nil
}

type Callback struct {
	OrderIntentID string
	PaymentID     string
	Signature     string
	OrderID       primitive.ObjectID
}

// Sign computes the hex HMAC-SHA256 the gateway attaches to a capture callback.
func Sign(secret []byte, intentID, paymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(intentID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCallback checks the capture signature and marks the order paid. The
// order is never touched unless the signature matches and the intent is the
// one issued for that order.
func (s *Service) VerifyCallback(ctx context.Context, actor models.Actor, cb Callback) (order *models.Order, err error) {
	ctx, span := telemetry.StartSpan(ctx, "payment.verify_callback")
	span.SetAttributes(attribute.String("order.id", cb.OrderID.Hex()))
	defer func() {
		s.metrics.RecordPaymentVerification(ctx, err)
		telemetry.EndSpan(span, err)
	}()

	if cb.OrderIntentID == "" || cb.PaymentID == "" || cb.Signature == "" {
		return nil, apperr.E(apperr.Required, "payment intent id, payment id and signature are required")
	}

	expected := Sign(s.secret, cb.OrderIntentID, cb.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(cb.Signature))) {
		s.logger.WarnContext(ctx, "payment signature mismatch", "orderId", cb.OrderID.Hex(), "intentId", cb.OrderIntentID)
		return nil, apperr.E(apperr.InvalidSignature, "payment verification failed")
	}

	order, err = s.orders.GetOrder(ctx, actor, cb.OrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentIntentID != cb.OrderIntentID {
		s.logger.WarnContext(ctx, "payment intent does not belong to order", "orderId", cb.OrderID.Hex(), "intentId", cb.OrderIntentID)
		return nil, apperr.E(apperr.InvalidSignature, "payment verification failed")
	}

	order, err = s.orders.MarkPaid(ctx, order.ID, models.PaymentResult{
		ID:           cb.PaymentID,
		Status:       "completed",
		EmailAddress: actor.Email,
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "payment verified", "orderId", order.ID.Hex(), "paymentId", cb.PaymentID)
	return order, nil
}
