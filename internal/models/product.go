package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LowStockThreshold marks products that need restocking in admin stats.
const LowStockThreshold = 10

type Product struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description" json:"description"`
	Price           float64            `bson:"price" json:"price"`
	DiscountedPrice float64            `bson:"discountedPrice" json:"discountedPrice"`
	Category        primitive.ObjectID `bson:"category" json:"category"`
	Stock           int                `bson:"stock" json:"stock"`
	InStock         bool               `bson:"-" json:"inStock"`
	Images          StringList         `bson:"images" json:"images"`
	Ratings         float64            `bson:"ratings" json:"ratings"`
	Featured        bool               `bson:"featured" json:"featured"`
	IsActive        bool               `bson:"isActive" json:"isActive"`
	IsDeleted       bool               `bson:"isDeleted" json:"isDeleted,omitempty"`
	DeletedAt       *time.Time         `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// EffectivePrice is the unit price a buyer pays right now.
func (p Product) EffectivePrice() float64 {
	if p.DiscountedPrice > 0 {
		return p.DiscountedPrice
	}
	return p.Price
}

func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Normalize fills derived fields after a document is decoded.
func (p *Product) Normalize() {
	if p.Images == nil {
		p.Images = StringList{}
	}
	p.InStock = p.Stock > 0
}

// ProductStats summarises the catalog for the admin dashboard.
type ProductStats struct {
	Total      int64           `json:"totalProducts"`
	Active     int64           `json:"activeProducts"`
	Inactive   int64           `json:"inactiveProducts"`
	OutOfStock int64           `json:"outOfStockProducts"`
	LowStock   int64           `json:"lowStockProducts"`
	Featured   int64           `json:"featuredProducts"`
	ByCategory []CategoryCount `json:"productsByCategory"`
}

type CategoryCount struct {
	CategoryID primitive.ObjectID `bson:"_id" json:"categoryId"`
	Name       string             `bson:"name" json:"name"`
	Count      int64              `bson:"count" json:"count"`
}
