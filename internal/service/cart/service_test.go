package cart

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/locker"
	"github.com/mukeshkumar44/e-commerce-backend/internal/metrics"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository/memory"
)

type fixture struct {
	svc   *Service
	store *memory.Store
	user  primitive.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		svc:   NewService(store.Products(), store.Carts(), locker.NewLocal(), metrics.Noop(), logger),
		store: store,
		user:  primitive.NewObjectID(),
	}
}

func (f *fixture) product(t *testing.T, price, discounted float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:            "Product",
		Price:           price,
		DiscountedPrice: discounted,
		Stock:           stock,
		IsActive:        true,
	}
	require.NoError(t, f.store.Products().Insert(context.Background(), p))
	return p
}

func TestAddItemCreatesCartAndMergesQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 100, 0, 5)

	cart, err := f.svc.AddItem(ctx, f.user, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 200.0, cart.TotalAmount)
	assert.Equal(t, 2, cart.TotalItems)

	cart, err = f.svc.AddItem(ctx, f.user, p.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 300.0, cart.Items[0].TotalPrice)
	assert.Equal(t, 300.0, cart.FinalAmount)
}

func TestAddItemCapturesEffectivePrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 100, 80, 5)

	cart, err := f.svc.AddItem(ctx, f.user, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 80.0, cart.Items[0].Price)

	p.DiscountedPrice = 0
	p.Price = 150
	require.NoError(t, f.store.Products().Update(ctx, p))

	cart, err = f.svc.AddItem(ctx, f.user, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 80.0, cart.Items[0].Price)
	assert.Equal(t, 160.0, cart.TotalAmount)
}

func TestAddItemFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inactive := f.product(t, 10, 0, 5)
	inactive.IsActive = false
	require.NoError(t, f.store.Products().Update(ctx, inactive))

	tests := []struct {
		name     string
		product  primitive.ObjectID
		quantity int
		want     apperr.Kind
	}{
		{"missing product", primitive.NewObjectID(), 1, apperr.NotFound},
		{"inactive product", inactive.ID, 1, apperr.Inactive},
		{"zero quantity", inactive.ID, 0, apperr.InvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AddItem(ctx, f.user, tt.product, tt.quantity)
			assert.Equal(t, tt.want, apperr.KindOf(err))
		})
	}
}

func TestAddItemBeyondStockLeavesCartUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 100, 0, 5)

	_, err := f.svc.AddItem(ctx, f.user, p.ID, 4)
	require.NoError(t, err)
	before, err := f.svc.GetCart(ctx, f.user)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, f.user, p.ID, 2)
	assert.Equal(t, apperr.InsufficientStock, apperr.KindOf(err))

	after, err := f.svc.GetCart(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 100, 0, 5)

	cart, err := f.svc.AddItem(ctx, f.user, p.ID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = f.svc.UpdateItem(ctx, f.user, itemID, 3)
	require.NoError(t, err)
	assert.Equal(t, 300.0, cart.TotalAmount)

	_, err = f.svc.UpdateItem(ctx, f.user, itemID, 6)
	assert.Equal(t, apperr.InsufficientStock, apperr.KindOf(err))

	_, err = f.svc.UpdateItem(ctx, f.user, itemID, 0)
	assert.Equal(t, apperr.InvalidQuantity, apperr.KindOf(err))

	_, err = f.svc.UpdateItem(ctx, f.user, primitive.NewObjectID(), 1)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	_, err = f.svc.UpdateItem(ctx, primitive.NewObjectID(), itemID, 1)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestRemoveLastItemDeletesCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, 100, 0, 5)
	b := f.product(t, 50, 0, 5)

	_, err := f.svc.AddItem(ctx, f.user, a.ID, 1)
	require.NoError(t, err)
	cart, err := f.svc.AddItem(ctx, f.user, b.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)

	cart, err = f.svc.RemoveItem(ctx, f.user, cart.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, cart.TotalAmount)

	cart, err = f.svc.RemoveItem(ctx, f.user, cart.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = f.store.Carts().FindByUser(ctx, f.user)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	got, err := f.svc.GetCart(ctx, f.user)
	require.NoError(t, err)
	assert.Zero(t, got.TotalAmount)
	assert.Zero(t, got.FinalAmount)
	assert.Zero(t, got.TotalItems)
	assert.Empty(t, got.Items)
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 10, 0, 5)

	assert.Equal(t, apperr.NotFound, apperr.KindOf(f.svc.Clear(ctx, f.user)))

	_, err := f.svc.AddItem(ctx, f.user, p.ID, 1)
	require.NoError(t, err)
	require.NoError(t, f.svc.Clear(ctx, f.user))

	_, err = f.store.Carts().FindByUser(ctx, f.user)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

type cartOp struct {
	Kind     int
	Product  int
	Quantity int
}

func genCartOp() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 2),
		gen.IntRange(0, 2),
		gen.IntRange(0, 6),
	).Map(func(v []interface{}) cartOp {
		return cartOp{Kind: v[0].(int), Product: v[1].(int), Quantity: v[2].(int)}
	})
}

func TestCartInvariantsUnderRandomOperations(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("totals always match line items", prop.ForAll(
		func(ops []cartOp) bool {
			f := newFixture(t)
			ctx := context.Background()
			products := []*models.Product{
				f.product(t, 19.99, 0, 10),
				f.product(t, 100, 74.5, 4),
				f.product(t, 0.1, 0, 30),
			}

			for _, op := range ops {
				current, err := f.svc.GetCart(ctx, f.user)
				if err != nil {
					return false
				}
				switch op.Kind {
				case 0:
					_, _ = f.svc.AddItem(ctx, f.user, products[op.Product].ID, op.Quantity)
				case 1:
					if len(current.Items) > 0 {
						item := current.Items[op.Product%len(current.Items)]
						_, _ = f.svc.UpdateItem(ctx, f.user, item.ID, op.Quantity)
					}
				case 2:
					if len(current.Items) > 0 {
						item := current.Items[op.Product%len(current.Items)]
						_, _ = f.svc.RemoveItem(ctx, f.user, item.ID)
					}
				}

				cart, err := f.svc.GetCart(ctx, f.user)
				if err != nil || !totalsConsistent(cart) {
					return false
				}
				for _, p := range products {
					if quantityOf(cart, p.ID) > p.Stock {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(20, genCartOp()),
	))

	properties.TestingRun(t)
}

func totalsConsistent(cart *models.Cart) bool {
	total := decimal.Zero
	items := 0
	for _, item := range cart.Items {
		if item.Quantity < 1 {
			return false
		}
		total = total.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
		items += item.Quantity
	}
	return cart.TotalAmount == total.InexactFloat64() &&
		cart.FinalAmount == total.Sub(decimal.NewFromFloat(cart.DiscountAmount)).InexactFloat64() &&
		cart.TotalItems == items
}

func quantityOf(cart *models.Cart, product primitive.ObjectID) int {
	for _, item := range cart.Items {
		if item.Product == product {
			return item.Quantity
		}
	}
	return 0
}
