package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/order"
)

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type markPaidRequest struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

type trackingRequest struct {
	TrackingNumber string `json:"trackingNumber" binding:"required"`
}

func ListOrders(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/orders"
		defer handlePanic(c, route)

		page, err := pageFromQuery(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		filter := repository.OrderFilter{Page: page}
		if raw := strings.TrimSpace(c.Query("status")); raw != "" {
			status, ok := models.ParseOrderStatus(raw)
			if !ok {
				respondWithError(c, route, apperr.E(apperr.Invalid, "unknown order status %q", raw))
				return
			}
			filter.Status = &status
		}

		list, summary, err := orders.ListAll(c.Request.Context(), filter)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"data":        list,
			"count":       summary.Count,
			"totalAmount": summary.TotalAmount,
			"pagination":  pagination(page, summary.Count),
		})
	}
}

func UpdateOrderStatus(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/orders/:id/status"
		defer handlePanic(c, route)

		id, err := paramID(c, "id")
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		updated, err := orders.UpdateStatus(c.Request.Context(), id, req.Status, req.Reason)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, updated)
	}
}

func MarkOrderPaid(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/orders/:id/pay"
		defer handlePanic(c, route)

		id, err := paramID(c, "id")
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		var req markPaidRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondValidationError(c, err)
				return
			}
		}
		if req.Status == "" {
			req.Status = "completed"
		}

		paid, err := orders.MarkPaid(c.Request.Context(), id, models.PaymentResult{
			ID:           req.ID,
			Status:       req.Status,
			UpdateTime:   req.UpdateTime,
			EmailAddress: req.EmailAddress,
		})
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, paid)
	}
}

func AddOrderTracking(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/orders/:id/tracking"
		defer handlePanic(c, route)

		id, err := paramID(c, "id")
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		var req trackingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		updated, err := orders.AddTracking(c.Request.Context(), id, req.TrackingNumber)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, updated)
	}
}

func ReconcileOrderStock(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/orders/:id/restock"
		defer handlePanic(c, route)

		id, err := paramID(c, "id")
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		result, err := orders.ReconcileStock(c.Request.Context(), id)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, result)
	}
}
