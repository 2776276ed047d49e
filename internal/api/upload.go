package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/Fi44er/tradewallet/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// saveImage stores the uploaded jpeg or png under dir and returns its path
// relative to the upload root. A missing optional file yields "".
func (s *Server) saveImage(c *gin.Context, field, dir, prefix string, required bool) (string, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) && !required {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s image is required", service.ErrInvalidInput, field)
	}
	if fh.Size > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%w: %s must be at most %d bytes", service.ErrInvalidInput, field, s.cfg.MaxUploadBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	head := make([]byte, 512)
	n, _ := f.Read(head)
	f.Close()

	ext, ok := imageExt[http.DetectContentType(head[:n])]
	if !ok {
		return "", fmt.Errorf("%w: %s must be a jpeg or png image", service.ErrInvalidInput, field)
	}

	name := fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), ext)
	target := filepath.Join(s.cfg.UploadDir, dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	if err := c.SaveUploadedFile(fh, filepath.Join(target, name)); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return path.Join(dir, name), nil
}

// discardUpload removes a file stored by saveImage whose request failed.
func (s *Server) discardUpload(rel string) {
	if rel == "" {
		return
	}
	if err := os.Remove(filepath.Join(s.cfg.UploadDir, filepath.FromSlash(rel))); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warnf("Failed to remove upload %s: %v", rel, err)
	}
}
