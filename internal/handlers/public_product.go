package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/catalog"
)

var productSorts = map[string]bool{
	"":           true,
	"price-asc":  true,
	"price-desc": true,
	"newest":     true,
	"oldest":     true,
	"name-asc":   true,
	"name-desc":  true,
	"stock-asc":  true,
	"stock-desc": true,
}

// productFilterFromQuery reads the filters shared by the public and admin listings.
func productFilterFromQuery(c *gin.Context) (repository.ProductFilter, error) {
	page, err := pageFromQuery(c)
	if err != nil {
		return repository.ProductFilter{}, err
	}
	filter := repository.ProductFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Sort:   strings.TrimSpace(c.Query("sort")),
		Page:   page,
	}
	if !productSorts[filter.Sort] {
		return repository.ProductFilter{}, apperr.E(apperr.Invalid, "unknown sort %q", filter.Sort)
	}
	if filter.Category, err = queryObjectID(c, "category"); err != nil {
		return repository.ProductFilter{}, err
	}
	if filter.Featured, err = queryBool(c, "featured"); err != nil {
		return repository.ProductFilter{}, err
	}
	if filter.MinPrice, err = queryFloat(c, "minPrice"); err != nil {
		return repository.ProductFilter{}, err
	}
	if filter.MaxPrice, err = queryFloat(c, "maxPrice"); err != nil {
		return repository.ProductFilter{}, err
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return repository.ProductFilter{}, apperr.E(apperr.Invalid, "minPrice must not exceed maxPrice")
	}
	return filter, nil
}

func GetProducts(products *catalog.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		filter, err := productFilterFromQuery(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		list, total, err := products.ListPublic(c.Request.Context(), filter)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": list, "pagination": pagination(filter.Page, total)})
	}
}

func GetProduct(products *catalog.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"
		defer handlePanic(c, route)

		id, err := paramID(c, "id")
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		product, err := products.GetPublic(c.Request.Context(), id)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, product)
	}
}
