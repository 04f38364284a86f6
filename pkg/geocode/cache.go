package geocode

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Cache stores geocode outcomes by key.
type Cache interface {
	// Get returns the cached result and true on a hit.
	Get(ctx context.Context, key string) (*Result, bool, error)
	Put(ctx context.Context, key string, result *Result) error
}

// CacheKey returns SHA-256 hex of the normalized address.
func CacheKey(address string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(address)), " ")
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// WithCache wraps next so that cached outcomes skip the request. Matches and
// ZERO_RESULTS answers are stored; transient provider failures (quota, denied
// key) are not. Cache errors are logged and never fail a lookup.
func WithCache(next Client, c Cache) Client {
	return &cachedClient{next: next, cache: c}
}

type cachedClient struct {
	next  Client
	cache Cache
}

func (c *cachedClient) Geocode(ctx context.Context, address string) (*Result, error) {
	key := CacheKey(address)
	log := zap.L().With(zap.String("address", address))

	cached, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		log.Warn("geocode cache read failed", zap.Error(err))
	} else if ok {
		log.Debug("geocode cache hit", zap.Bool("matched", cached.Matched))
		cached.Source = "cache"
		return cached, nil
	}

	result, err := c.next.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	if result.Matched || result.Status == StatusZeroResults {
		if err := c.cache.Put(ctx, key, result); err != nil {
			log.Warn("geocode cache write failed", zap.Error(err))
		}
	}
	return result, nil
}

// Validate always reaches the provider.
func (c *cachedClient) Validate(ctx context.Context) error {
	return c.next.Validate(ctx)
}
