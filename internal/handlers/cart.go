package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mukeshkumar44/e-commerce-backend/internal/service/cart"
)

const defaultAddQuantity = 1

type addCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func GetCart(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/cart"
		defer handlePanic(c, route)

		actor, err := currentActor(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		current, err := carts.GetCart(c.Request.Context(), actor.UserID)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, current)
	}
}

func AddCartItem(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/cart/items"
		defer handlePanic(c, route)

		actor, err := currentActor(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		var req addCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		productID, err := parseObjectID(req.ProductID, "productId")
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		quantity := defaultAddQuantity
		if req.Quantity != nil {
			quantity = *req.Quantity
		}

		updated, err := carts.AddItem(c.Request.Context(), actor.UserID, productID, quantity)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, updated)
	}
}

func UpdateCartItem(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/cart/items/:itemId"
		defer handlePanic(c, route)

		actor, err := currentActor(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		itemID, err := paramID(c, "itemId")
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		var req updateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		updated, err := carts.UpdateItem(c.Request.Context(), actor.UserID, itemID, *req.Quantity)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, updated)
	}
}

func RemoveCartItem(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/cart/items/:itemId"
		defer handlePanic(c, route)

		actor, err := currentActor(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		itemID, err := paramID(c, "itemId")
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		updated, err := carts.RemoveItem(c.Request.Context(), actor.UserID, itemID)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, updated)
	}
}

func ClearCart(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/cart"
		defer handlePanic(c, route)

		actor, err := currentActor(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		if err := carts.Clear(c.Request.Context(), actor.UserID); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "cart cleared"})
	}
}
