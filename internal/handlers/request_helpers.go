package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/middleware"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		slog.ErrorContext(c.Request.Context(), "panic recovered", "route", route, "panic", r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   apperr.Internal,
			"message": "internal server error",
		})
	}
}

// respondWithError maps err to its HTTP status. Causes of unexpected errors
// are logged and never sent to the client.
func respondWithError(c *gin.Context, route string, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "route", route, "status", status, "error", err)
	} else {
		slog.DebugContext(c.Request.Context(), "request rejected", "route", route, "status", status, "error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   kind,
		"message": apperr.Message(err),
	})
}

func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			case "min", "gt", "gte":
				details = append(details, fmt.Sprintf("%s must be at least %s", field, fieldError.Param()))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   apperr.Invalid,
			"message": "validation failed",
			"details": details,
		})
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   apperr.Invalid,
		"message": "invalid body",
	})
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func parseObjectID(raw, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, apperr.E(apperr.Invalid, "invalid %s", field)
	}
	return id, nil
}

// paramID reads the :id style path parameter name.
func paramID(c *gin.Context, name string) (primitive.ObjectID, error) {
	return parseObjectID(c.Param(name), name)
}

func currentActor(c *gin.Context) (models.Actor, error) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return models.Actor{}, apperr.E(apperr.Unauthorized, "unauthorized")
	}
	return actor, nil
}
