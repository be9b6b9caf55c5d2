package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/foodontracks/backend/internal/domain/catalog"
	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ImageStorage is the object store holding menu item photos. Clients
// upload and fetch the bytes directly using presigned URLs.
type ImageStorage interface {
	// PresignUpload returns a PUT URL that only accepts an object of the
	// given content type and exact size
	PresignUpload(ctx context.Context, key string, upload ImageObject, ttl time.Duration) (PresignedURL, error)
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (PresignedURL, error)
	Delete(ctx context.Context, key string) error
}

// ImageObject describes the file a client is about to upload
type ImageObject struct {
	ContentType string
	Size        int64
}

// PresignedURL is a time limited link to one object. Headers must be sent
// unchanged with the request or the signature will not match.
type PresignedURL struct {
	URL       string
	ExpiresAt time.Time
	Headers   map[string]string
}

// AllowedImageTypes maps the accepted content types to file extensions
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Image error codes
var (
	ErrImageStorageDisabled = shared.NewDomainError("STORAGE_UNAVAILABLE", "Image storage is not configured")
	ErrImageTypeNotAllowed  = shared.NewDomainError("INVALID_CONTENT_TYPE", "Only JPEG, PNG, WebP and GIF images are accepted")
	ErrImageTooLarge        = shared.NewDomainError("FILE_TOO_LARGE", "Image exceeds the maximum upload size")
)

// ImageConfig bounds image uploads
type ImageConfig struct {
	MaxUploadSize int64
	UploadExpiry  time.Duration
	// DownloadExpiry is the lifetime of image URLs embedded in menu responses
	DownloadExpiry time.Duration
}

// DefaultImageConfig returns 5 MiB uploads with 15 minute upload URLs
// and one hour download URLs.
func DefaultImageConfig() ImageConfig {
	return ImageConfig{
		MaxUploadSize:  5 << 20,
		UploadExpiry:   15 * time.Minute,
		DownloadExpiry: time.Hour,
	}
}

func (c ImageConfig) withDefaults() ImageConfig {
	d := DefaultImageConfig()
	if c.MaxUploadSize <= 0 {
		c.MaxUploadSize = d.MaxUploadSize
	}
	if c.UploadExpiry <= 0 {
		c.UploadExpiry = d.UploadExpiry
	}
	if c.DownloadExpiry <= 0 {
		c.DownloadExpiry = d.DownloadExpiry
	}
	return c
}

// RequestImageUpload validates the upload and returns a presigned URL. The
// item points at the new key immediately; the previous photo is removed.
func (s *MenuService) RequestImageUpload(ctx context.Context, actor identity.Actor, id uuid.UUID, req ImageUploadRequest) (*ImageUploadResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "RequestImageUpload",
		attribute.String("menu_item.id", id.String()),
		attribute.String("image.content_type", req.ContentType),
		attribute.Int64("image.size", req.FileSize),
	)
	defer span.End()

	if s.images == nil {
		return nil, ErrImageStorageDisabled
	}
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	ext, ok := AllowedImageTypes[contentType]
	if !ok {
		return nil, ErrImageTypeNotAllowed
	}
	if req.FileSize <= 0 {
		return nil, shared.NewValidationError("File size must be positive")
	}
	if req.FileSize > s.imageConfig.MaxUploadSize {
		return nil, shared.NewDomainError(ErrImageTooLarge.Code,
			fmt.Sprintf("Image exceeds the maximum upload size of %d bytes", s.imageConfig.MaxUploadSize))
	}

	item, err := s.findManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	key := imageStorageKey(item, ext)
	upload, err := s.images.PresignUpload(ctx, key, ImageObject{ContentType: contentType, Size: req.FileSize}, s.imageConfig.UploadExpiry)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to presign image upload",
			zap.String("menu_item_id", id.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	previous := item.ImageKey
	item.SetImageKey(key)
	if err := s.items.Update(ctx, item); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.invalidate(ctx, item.RestaurantID)
	if previous != "" && previous != key {
		s.deleteImage(ctx, previous)
	}

	s.logger.Info("Image upload URL issued",
		zap.String("menu_item_id", id.String()),
		zap.String("storage_key", key),
		zap.Int64("file_size", req.FileSize),
	)
	return &ImageUploadResponse{
		MenuItemID:  item.ID,
		UploadURL:   upload.URL,
		Method:      http.MethodPut,
		Headers:     upload.Headers,
		StorageKey:  key,
		ContentType: contentType,
		ExpiresAt:   upload.ExpiresAt,
	}, nil
}

// imageStorageKey returns restaurants/{rid}/menu-items/{id}/{uuid}{ext}
func imageStorageKey(item *catalog.MenuItem, ext string) string {
	return fmt.Sprintf("restaurants/%s/menu-items/%s/%s%s", item.RestaurantID, item.ID, uuid.New(), ext)
}

// toResponse converts item and attaches a presigned download URL when the
// item has a photo. Presign failures only drop the URL.
func (s *MenuService) toResponse(ctx context.Context, item *catalog.MenuItem) MenuItemResponse {
	resp := ToMenuItemResponse(item)
	if s.images == nil || item.ImageKey == "" {
		return resp
	}
	download, err := s.images.PresignDownload(ctx, item.ImageKey, s.imageConfig.DownloadExpiry)
	if err != nil {
		s.logger.Warn("Failed to presign image download",
			zap.String("menu_item_id", item.ID.String()),
			zap.Error(err),
		)
		return resp
	}
	resp.ImageURL = download.URL
	resp.ImageExpires = &download.ExpiresAt
	return resp
}

func (s *MenuService) deleteImage(ctx context.Context, key string) {
	if s.images == nil || key == "" {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete menu item image",
			zap.String("storage_key", key),
			zap.Error(err),
		)
	}
}
