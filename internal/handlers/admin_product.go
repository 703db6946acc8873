package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mukeshkumar44/e-commerce-backend/internal/service/catalog"
	"github.com/mukeshkumar44/e-commerce-backend/internal/storage"
)

type productStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

type bulkStockRequest struct {
	Updates []catalog.StockUpdate `json:"updates" binding:"required"`
}

func GetAllProducts(products *catalog.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/products"
		defer handlePanic(c, route)

		filter, err := productFilterFromQuery(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		if filter.IsActive, err = queryBool(c, "isActive"); err != nil {
			respondWithError(c, route, err)
			return
		}
		deleted, err := queryBool(c, "includeDeleted")
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		filter.WithDeleted = deleted != nil && *deleted

		list, total, err := products.List(c.Request.Context(), filter)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": list, "pagination": pagination(filter.Page, total)})
	}
}

func GetProductAdmin(products *catalog.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/products/:id"
		defer handlePanic(c, route)

		id, err := paramID(c, "id")
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		product, err := products.Get(c.Request.Context(), id)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, product)
	}
}

func CreateProduct(products *catalog.ProductService, images storage.Images) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/products"
		defer handlePanic(c, route)

		form, err := parseProductRequest(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		ctx := c.Request.Context()
		saved, err := storeImages(ctx, images, &form)
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		product, err := products.Create(ctx, form.input)
		if err != nil {
			discardImages(ctx, images, saved)
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusCreated, product)
	}
}

func UpdateProduct(products *catalog.ProductService, images storage.Images) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/products/:id"
		defer handlePanic(c, route)

		id, err := paramID(c, "id")
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		form, err := parseProductRequest(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		ctx := c.Request.Context()
		saved, err := storeImages(ctx, images, &form)
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		product, err := products.Update(ctx, id, form.input)
		if err != nil {
			discardImages(ctx, images, saved)
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, product)
	}
}

func DeleteProduct(products *catalog.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/admin/products/:id"
		defer handlePanic(c, route)

		id, err := paramID(c, "id")
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		if err := products.Delete(c.Request.Context(), id); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "product deleted"})
	}
}

func SetProductStatus(products *catalog.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/admin/products/:id/status"
		defer handlePanic(c, route)

		id, err := paramID(c, "id")
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		var req productStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		product, err := products.SetStatus(c.Request.Context(), id, *req.IsActive)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, product)
	}
}

func BulkUpdateStock(products *catalog.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/products/stock"
		defer handlePanic(c, route)

		var req bulkStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		result, err := products.BulkUpdateStock(c.Request.Context(), req.Updates)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, result)
	}
}

func GetProductStats(products *catalog.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/products/stats"
		defer handlePanic(c, route)

		stats, err := products.Stats(c.Request.Context())
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, stats)
	}
}
