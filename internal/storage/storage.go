package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/config"
)

const MaxImageSize = 5 << 20

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// Upload is one image received from a client.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// Images persists product and category images and hands back the URL that
// gets stored on the document.
type Images interface {
	Save(ctx context.Context, folder string, upload Upload) (string, error)
	Delete(ctx context.Context, url string) error
}

// New picks the backend named by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Images, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		return NewLocal(cfg.UploadDir, cfg.PublicBaseURL, logger), nil
	case "s3":
		return NewS3(ctx, S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   cfg.S3Prefix,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// prepare checks the upload and reads it fully. The result is capped at
// MaxImageSize so a lying Size header cannot push more through.
func prepare(upload Upload, folder string) (key string, contentType string, data []byte, err error) {
	extension := strings.ToLower(filepath.Ext(upload.Filename))
	if extension == "" {
		return "", "", nil, apperr.E(apperr.Invalid, "image file extension is required")
	}
	contentType, ok := allowedExtensions[extension]
	if !ok {
		return "", "", nil, apperr.E(apperr.Invalid, "unsupported image type: %s", extension)
	}
	if upload.Size > MaxImageSize {
		return "", "", nil, apperr.E(apperr.Invalid, "image file too large (max 5MB)")
	}

	data, err = io.ReadAll(io.LimitReader(upload.Body, MaxImageSize+1))
	if err != nil {
		return "", "", nil, err
	}
	if len(data) > MaxImageSize {
		return "", "", nil, apperr.E(apperr.Invalid, "image file too large (max 5MB)")
	}
	if len(data) == 0 {
		return "", "", nil, apperr.E(apperr.Invalid, "image file is empty")
	}

	folder = strings.Trim(path.Clean("/"+filepath.ToSlash(folder)), "/")
	key = primitive.NewObjectID().Hex() + extension
	if folder != "" {
		key = folder + "/" + key
	}
	return key, contentType, data, nil
}
