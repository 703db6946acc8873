package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mukeshkumar44/e-commerce-backend/internal/money"
)

// CartItem is one line of a cart. Price is captured when the line is added.
type CartItem struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Product    primitive.ObjectID `bson:"product" json:"product"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	Price      float64            `bson:"price" json:"price"`
	TotalPrice float64            `bson:"totalPrice" json:"totalPrice"`
}

// Cart is the single live cart of a user. An empty cart is never stored.
type Cart struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	User           primitive.ObjectID `bson:"user" json:"user"`
	Items          []CartItem         `bson:"items" json:"items"`
	TotalItems     int                `bson:"totalItems" json:"totalItems"`
	TotalAmount    float64            `bson:"totalAmount" json:"totalAmount"`
	DiscountAmount float64            `bson:"discountAmount" json:"discountAmount"`
	FinalAmount    float64            `bson:"finalAmount" json:"finalAmount"`
	Version        int64              `bson:"version" json:"-"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt,omitzero"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt,omitzero"`
}

// EmptyCart is the read-only projection returned when a user has no cart.
func EmptyCart(user primitive.ObjectID) Cart {
	return Cart{User: user, Items: []CartItem{}}
}

func (c *Cart) FindItem(id primitive.ObjectID) int {
	for i, item := range c.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) FindProduct(product primitive.ObjectID) int {
	for i, item := range c.Items {
		if item.Product == product {
			return i
		}
	}
	return -1
}

// CartTotals holds the derived amounts of a cart.
type CartTotals struct {
	TotalItems     int
	TotalAmount    float64
	DiscountAmount float64
	FinalAmount    float64
}

// ComputeCartTotals derives every cart amount from the line items alone.
// A discount that is not a finite, non-negative number counts as zero.
func ComputeCartTotals(items []CartItem, discount float64) CartTotals {
	if !money.Finite(discount) || discount < 0 {
		discount = 0
	}

	totals := CartTotals{DiscountAmount: discount}
	lines := make([]float64, 0, len(items))
	for _, item := range items {
		totals.TotalItems += item.Quantity
		lines = append(lines, money.LineTotal(item.Price, item.Quantity))
	}
	totals.TotalAmount = money.Sum(lines...)

	totals.FinalAmount = money.Sub(totals.TotalAmount, discount)
	if !money.Finite(totals.FinalAmount) {
		totals.FinalAmount = totals.TotalAmount
	}
	return totals
}

// Recalculate refreshes line totals and cart totals in place.
func (c *Cart) Recalculate() {
	for i := range c.Items {
		c.Items[i].TotalPrice = money.LineTotal(c.Items[i].Price, c.Items[i].Quantity)
	}
	totals := ComputeCartTotals(c.Items, c.DiscountAmount)
	c.TotalItems = totals.TotalItems
	c.TotalAmount = totals.TotalAmount
	c.DiscountAmount = totals.DiscountAmount
	c.FinalAmount = totals.FinalAmount
}
