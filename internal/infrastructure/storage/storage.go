// Package storage holds the object stores behind menu item photos.
package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	catalogapp "github.com/foodontracks/backend/internal/application/catalog"
)

const defaultPresignTTL = 15 * time.Minute

// ErrInvalidKey is returned for keys that are empty, absolute or climb out
// of their prefix
var ErrInvalidKey = errors.New("invalid storage key")

var (
	_ catalogapp.ImageStorage = (*S3Storage)(nil)
	_ catalogapp.ImageStorage = (*PlaceholderStorage)(nil)
)

func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

func ttlOr(ttl, fallback time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return fallback
}

func checkUpload(upload catalogapp.ImageObject) error {
	if upload.ContentType == "" {
		return errors.New("upload content type is required")
	}
	if upload.Size <= 0 {
		return errors.New("upload size must be positive")
	}
	return nil
}
