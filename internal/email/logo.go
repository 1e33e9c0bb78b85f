package email

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
)

// LogoCache resolves the marketing logo URL from the media library and keeps
// it for a bounded TTL. It replaces a module-level cached URL: the TTL is
// injected and the cache can be invalidated when the asset is replaced.
type LogoCache struct {
	cld      *cloudinary.Cloudinary
	publicID string
	ttl      time.Duration

	mu        sync.Mutex
	url       string
	fetchedAt time.Time

	now func() time.Time
}

func NewLogoCache(cld *cloudinary.Cloudinary, publicID string, ttl time.Duration) *LogoCache {
	return &LogoCache{
		cld:      cld,
		publicID: publicID,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (lc *LogoCache) Get(ctx context.Context) (string, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	now := lc.now()
	if lc.url != "" && now.Sub(lc.fetchedAt) < lc.ttl {
		return lc.url, nil
	}

	img, err := lc.cld.Image(lc.publicID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve logo asset: %v", err)
	}
	url, err := img.String()
	if err != nil {
		return "", fmt.Errorf("failed to build logo URL: %v", err)
	}

	lc.url = url
	lc.fetchedAt = now
	return url, nil
}

// Invalidate drops the cached URL so the next Get re-resolves the asset.
func (lc *LogoCache) Invalidate() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.url = ""
	lc.fetchedAt = time.Time{}
}
