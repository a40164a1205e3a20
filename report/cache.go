package report

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const pdfKeyPrefix = "quotation:pdf:"

// PDFCache keeps rendered PDFs in Redis. A nil cache stores nothing.
type PDFCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPDFCache instantiates the cache helper.
func NewPDFCache(client *redis.Client, ttl time.Duration) *PDFCache {
	return &PDFCache{client: client, ttl: ttl}
}

// Get returns the cached PDF for key. The boolean is false on a miss.
func (c *PDFCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, pdfKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// Set stores pdf under key for the configured TTL.
func (c *PDFCache) Set(ctx context.Context, key string, pdf []byte) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, pdfKeyPrefix+key, pdf, c.ttl).Err()
}

// Ping reports whether Redis is reachable.
func (c *PDFCache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}
