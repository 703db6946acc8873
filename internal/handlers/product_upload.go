package handlers

import (
	"context"
	"log/slog"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/catalog"
	"github.com/mukeshkumar44/e-commerce-backend/internal/storage"
)

const (
	maxMultipartMemory = 32 << 20
	productImageFolder = "products"
)

type productJSONRequest struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	Price           *float64 `json:"price"`
	DiscountedPrice *float64 `json:"discountedPrice"`
	Category        *string  `json:"category"`
	Stock           *int     `json:"stock"`
	Featured        *bool    `json:"featured"`
	IsActive        *bool    `json:"isActive"`
	Images          []string `json:"images"`
	ReplaceImages   bool     `json:"replaceImages"`
}

// productForm is a parsed create or update request. Files are stored only
// after every field parsed cleanly.
type productForm struct {
	input catalog.ProductInput
	files []*multipart.FileHeader
}

func parseProductRequest(c *gin.Context) (productForm, error) {
	if c.ContentType() == binding.MIMEJSON {
		return parseJSONProductRequest(c)
	}
	return parseMultipartProductRequest(c)
}

func parseJSONProductRequest(c *gin.Context) (productForm, error) {
	var req productJSONRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return productForm{}, apperr.Wrap(apperr.Invalid, err, "invalid body")
	}

	form := productForm{input: catalog.ProductInput{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DiscountedPrice: req.DiscountedPrice,
		Stock:           req.Stock,
		Featured:        req.Featured,
		IsActive:        req.IsActive,
		Images:          req.Images,
		ReplaceImages:   req.ReplaceImages,
	}}
	if req.Category != nil {
		id, err := parseObjectID(*req.Category, "category")
		if err != nil {
			return productForm{}, err
		}
		form.input.Category = &id
	}
	return form, nil
}

func parseMultipartProductRequest(c *gin.Context) (productForm, error) {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		return productForm{}, apperr.Wrap(apperr.Invalid, err, "invalid multipart form")
	}

	form := productForm{}
	in := &form.input

	// ---- STRING FIELDS ----

	if value, ok := lastPostForm(c, "name"); ok {
		in.Name = &value
	}
	if value, ok := lastPostForm(c, "description"); ok {
		in.Description = &value
	}
	if value, ok := lastPostForm(c, "category"); ok {
		id, err := parseObjectID(value, "category")
		if err != nil {
			return productForm{}, err
		}
		in.Category = &id
	}

	// ---- NUMBER FIELDS ----

	numbers := []struct {
		field  string
		target **float64
	}{{"price", &in.Price}, {"discountedPrice", &in.DiscountedPrice}}
	for _, n := range numbers {
		if value, ok := lastPostForm(c, n.field); ok {
			parsed, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return productForm{}, apperr.E(apperr.Invalid, "%s must be a number", n.field)
			}
			*n.target = &parsed
		}
	}

	if value, ok := lastPostForm(c, "stock"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return productForm{}, apperr.E(apperr.Invalid, "stock must be an integer")
		}
		in.Stock = &parsed
	}

	// ---- BOOL FIELDS ----

	flags := []struct {
		field  string
		target **bool
	}{{"featured", &in.Featured}, {"isActive", &in.IsActive}}
	for _, f := range flags {
		if value, ok := lastPostForm(c, f.field); ok {
			parsed, err := parseBoolValue(value)
			if err != nil {
				return productForm{}, apperr.E(apperr.Invalid, "%s must be a boolean", f.field)
			}
			*f.target = &parsed
		}
	}
	if value, ok := lastPostForm(c, "replaceImages"); ok {
		parsed, err := parseBoolValue(value)
		if err != nil {
			return productForm{}, apperr.E(apperr.Invalid, "replaceImages must be a boolean")
		}
		in.ReplaceImages = parsed
	}

	// ---- IMAGES ----

	for _, url := range c.PostFormArray("imageUrls") {
		if url = strings.TrimSpace(url); url != "" {
			in.Images = append(in.Images, url)
		}
	}
	if c.Request.MultipartForm != nil {
		form.files = c.Request.MultipartForm.File["images"]
	}

	return form, nil
}

// lastPostForm returns the last value sent for key, so a checkbox that posts
// a hidden "false" before its "true" reads as true.
func lastPostForm(c *gin.Context, key string) (string, bool) {
	values, ok := c.GetPostFormArray(key)
	if !ok || len(values) == 0 {
		return "", false
	}
	return strings.TrimSpace(values[len(values)-1]), true
}

// storeImages saves every uploaded file and appends its URL to the input. On
// failure the files already written are removed again.
func storeImages(ctx context.Context, images storage.Images, form *productForm) ([]string, error) {
	if len(form.files) == 0 {
		return nil, nil
	}
	if images == nil {
		return nil, apperr.E(apperr.Unavailable, "image storage is not configured")
	}

	saved := make([]string, 0, len(form.files))
	for _, header := range form.files {
		url, err := saveImage(ctx, images, header)
		if err != nil {
			discardImages(ctx, images, saved)
			return nil, err
		}
		saved = append(saved, url)
	}
	form.input.Images = append(form.input.Images, saved...)
	return saved, nil
}

func saveImage(ctx context.Context, images storage.Images, header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	return images.Save(ctx, productImageFolder, storage.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
	})
}

func discardImages(ctx context.Context, images storage.Images, urls []string) {
	for _, url := range urls {
		if err := images.Delete(ctx, url); err != nil {
			slog.WarnContext(ctx, "failed to remove uploaded image", "url", url, "error", err)
		}
	}
}

func parseBoolValue(value string) (bool, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "on" {
		return true, nil
	}
	return strconv.ParseBool(value)
}
