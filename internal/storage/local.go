package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local writes images under a directory that the router serves statically.
type Local struct {
	root    string
	baseURL string
	logger  *slog.Logger
}

func NewLocal(root, baseURL string, logger *slog.Logger) *Local {
	return &Local{
		root:    filepath.Clean(root),
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With("component", "storage", "driver", "local"),
	}
}

func (l *Local) Root() string {
	return l.root
}

// BaseURL is the path prefix the saved images are served under.
func (l *Local) BaseURL() string {
	return l.baseURL
}

func (l *Local) Save(ctx context.Context, folder string, upload Upload) (string, error) {
	key, _, data, err := prepare(upload, folder)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		l.logger.ErrorContext(ctx, "failed to create upload directory", "path", filepath.Dir(fullPath), "error", err)
		return "", err
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		l.logger.ErrorContext(ctx, "failed to save upload", "path", fullPath, "error", err)
		return "", err
	}

	l.logger.DebugContext(ctx, "image saved", "filename", upload.Filename, "path", fullPath)
	return l.baseURL + "/" + key, nil
}

// Delete removes a previously saved image. URLs outside the upload root are
// refused and missing files are not an error.
func (l *Local) Delete(_ context.Context, url string) error {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return nil
	}
	if !strings.HasPrefix(trimmed, l.baseURL+"/") {
		return fmt.Errorf("refusing to delete non-upload path: %s", url)
	}

	cleanRel := strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(trimmed, l.baseURL+"/")), "/")
	target := filepath.Clean(filepath.Join(l.root, filepath.FromSlash(cleanRel)))
	if target == l.root || !strings.HasPrefix(target, l.root+string(os.PathSeparator)) {
		return fmt.Errorf("refusing to delete path outside upload root: %s", url)
	}

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
