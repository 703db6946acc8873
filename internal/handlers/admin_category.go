package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mukeshkumar44/e-commerce-backend/internal/service/catalog"
)

// nullableID tells an absent field apart from an explicit null.
type nullableID struct {
	Set   bool
	Value *string
}

func (n *nullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	n.Value = &value
	return nil
}

type CategoryRequest struct {
	Name           *string    `json:"name"`
	Description    *string    `json:"description"`
	Image          *string    `json:"image"`
	IsActive       *bool      `json:"isActive"`
	ParentCategory nullableID `json:"parentCategory"`
}

func (r CategoryRequest) input() (catalog.CategoryInput, error) {
	in := catalog.CategoryInput{
		Name:        r.Name,
		Description: r.Description,
		Image:       r.Image,
		IsActive:    r.IsActive,
	}
	if r.ParentCategory.Set {
		if r.ParentCategory.Value == nil || *r.ParentCategory.Value == "" {
			in.ClearParent = true
			return in, nil
		}
		id, err := parseObjectID(*r.ParentCategory.Value, "parentCategory")
		if err != nil {
			return catalog.CategoryInput{}, err
		}
		in.Parent = &id
	}
	return in, nil
}

func CreateCategory(categories *catalog.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/categories"
		defer handlePanic(c, route)

		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		in, err := req.input()
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		category, err := categories.Create(c.Request.Context(), in)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusCreated, category)
	}
}

func UpdateCategory(categories *catalog.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/categories/:id"
		defer handlePanic(c, route)

		id, err := paramID(c, "id")
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		in, err := req.input()
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		category, err := categories.Update(c.Request.Context(), id, in)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, category)
	}
}

func DeleteCategory(categories *catalog.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/categories/:id"
		defer handlePanic(c, route)

		id, err := paramID(c, "id")
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		if err := categories.Delete(c.Request.Context(), id); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "category deleted"})
	}
}
