package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rikshawmart/rikshawmart-backend/internal/metrics"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "rikshawmart"

// Collections cached by the loaders
const (
	CollectionPlans    = "plans"
	CollectionPayments = "payments"
)

// Connect parses a redis:// URL and checks the server answers
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: parse url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	return client, nil
}

// Cache is a versioned read-through JSON cache. Each collection has its own
// version counter; bumping it orphans every key built from the old version.
// A nil Cache, or one without a client, always calls the loader.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New instantiates the cache helper
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func versionKey(collection string) string {
	return keyPrefix + ":" + collection + ":version"
}

// Version returns the current version of a collection; missing means 0
func (c *Cache) Version(ctx context.Context, collection string) (int64, error) {
	ver, err := c.client.Get(ctx, versionKey(collection)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return ver, err
}

// BuildKey composes a versioned key for a collection
func (c *Cache) BuildKey(ctx context.Context, collection string, parts ...string) (string, error) {
	ver, err := c.Version(ctx, collection)
	if err != nil {
		return "", err
	}
	all := append([]string{keyPrefix, collection}, parts...)
	return fmt.Sprintf("%s:v%d", strings.Join(all, ":"), ver), nil
}

// FetchJSON loads the cached value into dest, or runs loader and stores its result.
// Redis failures degrade to the loader; loader errors are returned untouched.
func (c *Cache) FetchJSON(ctx context.Context, collection string, parts []string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if c == nil || c.client == nil {
		return loadInto(ctx, dest, loader)
	}

	key, err := c.BuildKey(ctx, collection, parts...)
	if err != nil {
		c.degraded(collection, err)
		return loadInto(ctx, dest, loader)
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(payload, dest); jsonErr == nil {
			metrics.LoaderCache.WithLabelValues(collection, "hit").Inc()
			return nil
		}
	case !errors.Is(err, redis.Nil):
		c.degraded(collection, err)
		return loadInto(ctx, dest, loader)
	}

	metrics.LoaderCache.WithLabelValues(collection, "miss").Inc()
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("collection", collection).Msg("Failed to store loader result in cache")
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates every cached entry of the given collections
func (c *Cache) Bump(ctx context.Context, collections ...string) {
	if c == nil || c.client == nil {
		return
	}
	for _, collection := range collections {
		if err := c.client.Incr(ctx, versionKey(collection)).Err(); err != nil {
			log.Error().Err(err).Str("collection", collection).Msg("Failed to invalidate loader cache")
		}
	}
}

func (c *Cache) degraded(collection string, err error) {
	metrics.LoaderCache.WithLabelValues(collection, "error").Inc()
	log.Warn().Err(err).Str("collection", collection).Msg("Loader cache unavailable, reading through")
}

func loadInto(ctx context.Context, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
