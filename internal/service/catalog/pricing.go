package catalog

import (
	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/money"
)

type pricingInput struct {
	Price           *float64
	DiscountedPrice *float64
}

type pricing struct {
	Price           float64
	DiscountedPrice float64
}

func validatePrice(price float64) error {
	if !money.Finite(price) || price <= 0 {
		return apperr.E(apperr.Invalid, "price must be greater than 0")
	}
	return nil
}

// validateDiscount accepts 0 (no discount) or a value strictly below price.
func validateDiscount(price, discounted float64) error {
	if discounted == 0 {
		return nil
	}
	if !money.Finite(discounted) || discounted < 0 {
		return apperr.E(apperr.Invalid, "discountedPrice must be zero or greater")
	}
	if discounted >= price {
		return apperr.E(apperr.Invalid, "discountedPrice must be less than price")
	}
	return nil
}

// resolvePricing merges a partial update into the stored prices and validates
// the result as a whole, so lowering the price below an existing discount fails.
func resolvePricing(existing pricing, in pricingInput) (pricing, error) {
	result := existing
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return pricing{}, err
		}
		result.Price = *in.Price
	}
	if in.DiscountedPrice != nil {
		result.DiscountedPrice = *in.DiscountedPrice
	}
	if err := validateDiscount(result.Price, result.DiscountedPrice); err != nil {
		return pricing{}, err
	}
	return result, nil
}
