package storage

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	catalogapp "github.com/foodontracks/backend/internal/application/catalog"
)

// DefaultPlaceholderHost is where placeholder URLs point
const DefaultPlaceholderHost = "https://images.foodontracks.local"

// PlaceholderStorage stands in for S3 when storage is disabled. Nothing is
// signed or stored; the URLs only have the right shape so the photo flow
// can be driven end to end in development.
type PlaceholderStorage struct {
	base *url.URL
	now  func() time.Time
}

// NewPlaceholderStorage points URLs at baseURL, or DefaultPlaceholderHost
// when it is empty or unparsable
func NewPlaceholderStorage(baseURL string) *PlaceholderStorage {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if baseURL == "" || err != nil || u.Host == "" {
		u, _ = url.Parse(DefaultPlaceholderHost)
	}
	return &PlaceholderStorage{base: u, now: time.Now}
}

func (p *PlaceholderStorage) PresignUpload(_ context.Context, key string, upload catalogapp.ImageObject, ttl time.Duration) (catalogapp.PresignedURL, error) {
	if err := checkKey(key); err != nil {
		return catalogapp.PresignedURL{}, err
	}
	if err := checkUpload(upload); err != nil {
		return catalogapp.PresignedURL{}, err
	}
	expires := p.now().Add(ttlOr(ttl, defaultPresignTTL))
	return catalogapp.PresignedURL{
		URL:       p.link("upload", key, expires),
		ExpiresAt: expires,
		Headers: map[string]string{
			"Content-Type":   upload.ContentType,
			"Content-Length": strconv.FormatInt(upload.Size, 10),
		},
	}, nil
}

func (p *PlaceholderStorage) PresignDownload(_ context.Context, key string, ttl time.Duration) (catalogapp.PresignedURL, error) {
	if err := checkKey(key); err != nil {
		return catalogapp.PresignedURL{}, err
	}
	expires := p.now().Add(ttlOr(ttl, defaultPresignTTL))
	return catalogapp.PresignedURL{URL: p.link("download", key, expires), ExpiresAt: expires}, nil
}

// Delete accepts any valid key
func (p *PlaceholderStorage) Delete(_ context.Context, key string) error {
	return checkKey(key)
}

func (p *PlaceholderStorage) link(action, key string, expires time.Time) string {
	u := *p.base
	u.Path = u.Path + "/" + action + "/" + key
	u.RawQuery = url.Values{"expires": {strconv.FormatInt(expires.Unix(), 10)}}.Encode()
	return u.String()
}
