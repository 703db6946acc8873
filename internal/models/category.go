package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name           string              `bson:"name" json:"name"`
	Description    string              `bson:"description,omitempty" json:"description,omitempty"`
	Image          string              `bson:"image,omitempty" json:"image,omitempty"`
	IsActive       bool                `bson:"isActive" json:"isActive"`
	ParentCategory *primitive.ObjectID `bson:"parentCategory,omitempty" json:"parentCategory"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// CategoryNode is one entry of the category tree response.
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}
