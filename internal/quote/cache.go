package quote

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores finished cart quotes in Redis keyed by a digest of the
// canonical request. A nil Cache or nil client disables caching.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a quote cache with the given TTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// CartKey derives a stable cache key for a cart request. Item order and
// country casing do not affect the key, so equivalent carts share one entry.
func (c *Cache) CartKey(req CartRequest) string {
	items := make([]CartItem, len(req.Items))
	copy(items, req.Items)
	sort.Slice(items, func(i, j int) bool {
		if items[i].PartID != items[j].PartID {
			return items[i].PartID < items[j].PartID
		}
		return items[i].Quantity < items[j].Quantity
	})
	canonical, err := json.Marshal(CartRequest{
		Items:              items,
		DestinationCountry: normalizeCountry(req.DestinationCountry),
	})
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(canonical)
	return fmt.Sprintf("quote:cart:%s", hex.EncodeToString(sum[:]))
}

// GetJSON unmarshals a cached payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" || c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
