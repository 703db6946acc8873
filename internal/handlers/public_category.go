package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mukeshkumar44/e-commerce-backend/internal/repository"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/catalog"
)

func GetCategories(categories *catalog.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/categories"
		defer handlePanic(c, route)

		isActive, err := queryBool(c, "isActive")
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		filter := repository.CategoryFilter{
			IsActive: isActive,
			Search:   strings.TrimSpace(c.Query("search")),
		}
		if c.Query("parent") == "root" {
			filter.RootOnly = true
		} else if filter.Parent, err = queryObjectID(c, "parent"); err != nil {
			respondWithError(c, route, err)
			return
		}

		list, err := categories.List(c.Request.Context(), filter)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "data": list})
	}
}

func GetCategoryTree(categories *catalog.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/categories/tree"
		defer handlePanic(c, route)

		tree, err := categories.Tree(c.Request.Context())
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, tree)
	}
}

func GetCategory(categories *catalog.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/categories/:id"
		defer handlePanic(c, route)

		id, err := paramID(c, "id")
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		category, err := categories.Get(c.Request.Context(), id)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, category)
	}
}
