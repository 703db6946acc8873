package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func parsePaginationParams(pageStr, limitStr string) (repository.Page, error) {
	page := int64(1)
	limit := int64(defaultPageLimit)

	if pageStr != "" {
		p, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || p < 1 {
			return repository.Page{}, apperr.E(apperr.Invalid, "page must be a positive integer")
		}
		page = p
	}

	if limitStr != "" {
		l, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || l < 1 {
			return repository.Page{}, apperr.E(apperr.Invalid, "limit must be a positive integer")
		}
		limit = min(l, maxPageLimit)
	}

	return repository.Page{Page: page, Limit: limit}, nil
}

func pageFromQuery(c *gin.Context) (repository.Page, error) {
	return parsePaginationParams(c.Query("page"), c.Query("limit"))
}

func pagination(page repository.Page, total int64) gin.H {
	pages := int64(0)
	if page.Limit > 0 {
		pages = (total + page.Limit - 1) / page.Limit
	}
	return gin.H{"page": page.Page, "limit": page.Limit, "total": total, "pages": pages}
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	value, err := parseBoolValue(raw)
	if err != nil {
		return nil, apperr.E(apperr.Invalid, "%s must be a boolean", key)
	}
	return &value, nil
}

func queryFloat(c *gin.Context, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperr.E(apperr.Invalid, "%s must be a number", key)
	}
	return &value, nil
}

func queryObjectID(c *gin.Context, key string) (*primitive.ObjectID, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	id, err := parseObjectID(raw, key)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
