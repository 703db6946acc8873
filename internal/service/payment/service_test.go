package payment

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/locker"
	"github.com/mukeshkumar44/e-commerce-backend/internal/metrics"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository/memory"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/order"
)

const secret = "test_secret"

type fakeGateway struct {
	calls   int
	amount  int64
	receipt string
	err     error
}

func (g *fakeGateway) CreateOrderIntent(_ context.Context, amount int64, currency, receipt string) (Intent, error) {
	g.calls++
	if g.err != nil {
		return Intent{}, g.err
	}
	g.amount = amount
	g.receipt = receipt
	return Intent{ID: "order_" + receipt[len(receipt)-6:], Amount: amount, Currency: currency}, nil
}

type fixture struct {
	store   *memory.Store
	orders  *order.Service
	gateway *fakeGateway
	svc     *Service
	owner   models.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orders := order.NewService(order.Dependencies{
		Products: store.Products(),
		Orders:   store.Orders(),
		Carts:    store.Carts(),
		Tx:       memory.Transactor{},
		Locks:    locker.NewLocal(),
		Metrics:  metrics.Noop(),
		Logger:   logger,
	})
	gateway := &fakeGateway{}
	return &fixture{
		store:   store,
		orders:  orders,
		gateway: gateway,
		svc:     NewService(gateway, orders, secret, "", metrics.Noop(), logger),
		owner:   models.Actor{UserID: primitive.NewObjectID(), Email: "buyer@example.com", Role: models.RoleUser},
	}
}

func (f *fixture) order(t *testing.T, total float64) *models.Order {
	t.Helper()
	o := &models.Order{
		User:          f.owner.UserID,
		PaymentMethod: models.PaymentCOD,
		OrderStatus:   models.StatusPending,
		TotalPrice:    total,
	}
	require.NoError(t, f.store.Orders().Insert(context.Background(), o))
	o.OrderNumber = models.OrderNumberFor(o.ID)
	return o
}

func TestCreateIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.order(t, 330.555)

	intent, err := f.svc.CreateIntent(ctx, f.owner, o.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 33056, intent.Amount)
	assert.Equal(t, "INR", intent.Currency)
	assert.Equal(t, o.ID.Hex(), f.gateway.receipt)

	stored, err := f.store.Orders().FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, intent.ID, stored.PaymentIntentID)
}

func TestCreateIntentFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.order(t, 100)

	stranger := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleUser}
	_, err := f.svc.CreateIntent(ctx, stranger, o.ID)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	_, err = f.orders.MarkPaid(ctx, o.ID, models.PaymentResult{ID: "cash"})
	require.NoError(t, err)
	_, err = f.svc.CreateIntent(ctx, f.owner, o.ID)
	assert.Equal(t, apperr.AlreadyPaid, apperr.KindOf(err))
	assert.Zero(t, f.gateway.calls)

	f.gateway.err = apperr.E(apperr.Unavailable, "gateway down")
	other := f.order(t, 10)
	_, err = f.svc.CreateIntent(ctx, f.owner, other.ID)
	assert.Equal(t, apperr.Unavailable, apperr.KindOf(err))
}

func TestCreateIntentWithoutGateway(t *testing.T) {
	f := newFixture(t)
	svc := NewService(nil, f.orders, secret, "INR", metrics.Noop(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.CreateIntent(context.Background(), f.owner, f.order(t, 10).ID)
	assert.Equal(t, apperr.Unavailable, apperr.KindOf(err))
}

func TestVerifyCallbackMarksOrderPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.order(t, 250)

	intent, err := f.svc.CreateIntent(ctx, f.owner, o.ID)
	require.NoError(t, err)

	paid, err := f.svc.VerifyCallback(ctx, f.owner, Callback{
		OrderIntentID: intent.ID,
		PaymentID:     "pay_29QQoUBi66xm2f",
		Signature:     Sign([]byte(secret), intent.ID, "pay_29QQoUBi66xm2f"),
		OrderID:       o.ID,
	})
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.Equal(t, models.PaymentOnline, paid.PaymentMethod)
	require.NotNil(t, paid.PaymentResult)
	assert.Equal(t, "pay_29QQoUBi66xm2f", paid.PaymentResult.ID)
	assert.Equal(t, "buyer@example.com", paid.PaymentResult.EmailAddress)
}

func TestVerifyCallbackRejectsForeignIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paidFor := f.order(t, 10)
	target := f.order(t, 5000)

	intent, err := f.svc.CreateIntent(ctx, f.owner, paidFor.ID)
	require.NoError(t, err)

	_, err = f.svc.VerifyCallback(ctx, f.owner, Callback{
		OrderIntentID: intent.ID,
		PaymentID:     "pay_1",
		Signature:     Sign([]byte(secret), intent.ID, "pay_1"),
		OrderID:       target.ID,
	})
	assert.Equal(t, apperr.InvalidSignature, apperr.KindOf(err))

	stored, err := f.store.Orders().FindByID(ctx, target.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPaid)
}

func TestVerifyCallbackMissingOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.VerifyCallback(context.Background(), f.owner, Callback{
		OrderIntentID: "order_x",
		PaymentID:     "pay_x",
		Signature:     Sign([]byte(secret), "order_x", "pay_x"),
		OrderID:       primitive.NewObjectID(),
	})
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestVerifyCallbackRequiresFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.VerifyCallback(context.Background(), f.owner, Callback{OrderID: primitive.NewObjectID()})
	assert.Equal(t, apperr.Required, apperr.KindOf(err))
}

func TestSignKnownVector(t *testing.T) {
	assert.Equal(t,
		"1be534a6fbd18885e7b6aae8ee3c4f14ee0774e907bb5a77739bf02092c0f143",
		Sign([]byte(secret), "order_IluGWxBm9U8zJ8", "pay_29QQoUBi66xm2f"),
	)
}

func TestVerifyCallbackAcceptsUppercaseSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.order(t, 20)
	intent, err := f.svc.CreateIntent(ctx, f.owner, o.ID)
	require.NoError(t, err)

	_, err = f.svc.VerifyCallback(ctx, f.owner, Callback{
		OrderIntentID: intent.ID,
		PaymentID:     "pay_2",
		Signature:     strings.ToUpper(Sign([]byte(secret), intent.ID, "pay_2")),
		OrderID:       o.ID,
	})
	require.NoError(t, err)
}

func TestTamperedSignatureNeverPaysProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	f := newFixture(t)
	ctx := context.Background()
	o := f.order(t, 99)
	intent, err := f.svc.CreateIntent(ctx, f.owner, o.ID)
	require.NoError(t, err)
	valid := Sign([]byte(secret), intent.ID, "pay_1")

	properties.Property("any signature but the valid one fails and leaves the order unpaid", prop.ForAll(
		func(pos int, flip byte) bool {
			tampered := []byte(valid)
			i := pos % len(tampered)
			tampered[i] = "0123456789abcdef"[(int(flip)+1+indexOf(tampered[i]))%16]

			_, err := f.svc.VerifyCallback(ctx, f.owner, Callback{
				OrderIntentID: intent.ID,
				PaymentID:     "pay_1",
				Signature:     string(tampered),
				OrderID:       o.ID,
			})
			if apperr.KindOf(err) != apperr.InvalidSignature {
				return false
			}
			stored, err := f.store.Orders().FindByID(ctx, o.ID)
			return err == nil && !stored.IsPaid && stored.PaymentResult == nil
		},
		gen.IntRange(0, 63),
		gen.UInt8Range(0, 14),
	))

	properties.TestingRun(t)
}

func indexOf(c byte) int {
	if c >= 'a' {
		return int(c-'a') + 10
	}
	return int(c - '0')
}
