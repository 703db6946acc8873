package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/order"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/payment"
)

/* =========================
   REQUEST DTOs
========================= */

type createOrderRequest struct {
	ShippingAddress models.ShippingAddress `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ShippingPrice   float64                `json:"shippingPrice"`
	TaxPrice        float64                `json:"taxPrice"`
	Notes           string                 `json:"notes"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type verifyPaymentRequest struct {
	OrderID           string `json:"orderId" binding:"required"`
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

/* =========================
   ORDERS
========================= */

func CreateOrder(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders"
		defer handlePanic(c, route)

		actor, err := currentActor(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		created, err := orders.CreateOrder(c.Request.Context(), actor.UserID, order.CreateOrderInput{
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
			ShippingPrice:   req.ShippingPrice,
			TaxPrice:        req.TaxPrice,
			Notes:           strings.TrimSpace(req.Notes),
		})
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusCreated, created)
	}
}

func ListMyOrders(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/mine"
		defer handlePanic(c, route)

		actor, err := currentActor(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		list, err := orders.ListMine(c.Request.Context(), actor.UserID)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "data": list})
	}
}

func GetOrder(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/:id"
		defer handlePanic(c, route)

		actor, err := currentActor(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		id, err := paramID(c, "id")
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		found, err := orders.GetOrder(c.Request.Context(), actor, id)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, found)
	}
}

func CancelOrder(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/orders/:id/cancel"
		defer handlePanic(c, route)

		actor, err := currentActor(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		id, err := paramID(c, "id")
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		var req cancelOrderRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondValidationError(c, err)
				return
			}
		}

		cancelled, err := orders.CancelOrder(c.Request.Context(), actor, id, req.Reason)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, cancelled)
	}
}

/* =========================
   PAYMENT
========================= */

func CreatePaymentIntent(payments *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders/:id/payment-intent"
		defer handlePanic(c, route)

		actor, err := currentActor(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		id, err := paramID(c, "id")
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		intent, err := payments.CreateIntent(c.Request.Context(), actor, id)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, gin.H{
			"razorpayOrderId": intent.ID,
			"amount":          intent.Amount,
			"currency":        intent.Currency,
		})
	}
}

func VerifyPayment(payments *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders/verify-payment"
		defer handlePanic(c, route)

		actor, err := currentActor(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		var req verifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		orderID, err := parseObjectID(req.OrderID, "orderId")
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		paid, err := payments.VerifyCallback(c.Request.Context(), actor, payment.Callback{
			OrderIntentID: req.RazorpayOrderID,
			PaymentID:     req.RazorpayPaymentID,
			Signature:     req.RazorpaySignature,
			OrderID:       orderID,
		})
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, paid)
	}
}
