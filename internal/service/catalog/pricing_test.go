package catalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
)

func ptr[T any](v T) *T { return &v }

func TestValidateDiscount(t *testing.T) {
	assert.NoError(t, validateDiscount(100, 0))
	assert.NoError(t, validateDiscount(100, 75))

	for _, discounted := range []float64{100, 120, -1, math.NaN()} {
		err := validateDiscount(100, discounted)
		assert.Equal(t, apperr.Invalid, apperr.KindOf(err), "discountedPrice=%v", discounted)
	}
}

func TestResolvePricing(t *testing.T) {
	existing := pricing{Price: 100, DiscountedPrice: 80}

	got, err := resolvePricing(existing, pricingInput{Price: ptr(120.0)})
	require.NoError(t, err)
	assert.Equal(t, pricing{Price: 120, DiscountedPrice: 80}, got)

	got, err = resolvePricing(existing, pricingInput{DiscountedPrice: ptr(0.0)})
	require.NoError(t, err)
	assert.Equal(t, pricing{Price: 100}, got)

	_, err = resolvePricing(existing, pricingInput{Price: ptr(70.0)})
	assert.Equal(t, apperr.Invalid, apperr.KindOf(err))

	_, err = resolvePricing(existing, pricingInput{Price: ptr(0.0)})
	assert.Equal(t, apperr.Invalid, apperr.KindOf(err))

	got, err = resolvePricing(existing, pricingInput{Price: ptr(70.0), DiscountedPrice: ptr(60.0)})
	require.NoError(t, err)
	assert.Equal(t, pricing{Price: 70, DiscountedPrice: 60}, got)
}
