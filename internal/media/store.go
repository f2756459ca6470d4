// Package media stores dish photos.
package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"menu-app-go/internal/config"
)

type Store interface {
	// Put writes data under key and returns the public URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete removes the object behind a URL returned by Put. URLs the store
	// does not serve are ignored.
	Delete(ctx context.Context, url string) error
}

// NewStore picks the backend named by MEDIA_BACKEND.
func NewStore(ctx context.Context, cfg config.MediaConfig) (Store, error) {
	switch cfg.Backend {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "local", "":
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported MEDIA_BACKEND %q", cfg.Backend)
	}
}

type Photos struct {
	store  Store
	prefix string
	now    func() time.Time
}

func NewPhotos(store Store, prefix string) *Photos {
	if prefix == "" {
		prefix = "photos"
	}
	return &Photos{store: store, prefix: prefix, now: time.Now}
}

// SaveDishPhoto processes raw upload bytes and stores the result.
func (p *Photos) SaveDishPhoto(ctx context.Context, dishID int64, data []byte) (string, error) {
	processed, err := Process(data)
	if err != nil {
		return "", err
	}
	key := path.Join(p.prefix, fmt.Sprintf("dish-%d-%d.jpg", dishID, p.now().UnixNano()))
	return p.store.Put(ctx, key, processed.Data, processed.MIME)
}

// DeleteDishPhoto removes a photo stored by SaveDishPhoto.
func (p *Photos) DeleteDishPhoto(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	return p.store.Delete(ctx, url)
}

// keyFromURL maps a URL under baseURL back to its object key.
func keyFromURL(baseURL, url string) (string, bool) {
	key, ok := strings.CutPrefix(url, baseURL+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}
