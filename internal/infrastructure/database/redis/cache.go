package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molstandardizer/pkg/errors"
	dto "github.com/turtacn/molstandardizer/pkg/types/molecule"
)

// ErrSerializationFailed wraps encode/decode failures of cached results.
var ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "cached result serialization failed")

const (
	defaultPrefix = "molstd:"
	defaultTTL    = 24 * time.Hour
)

// ResultCache stores standardization results keyed by request digest.
// Concurrent lookups of the same digest share one round trip.
type ResultCache struct {
	client *Client
	logger logging.Logger
	prefix string
	ttl    time.Duration
	group  singleflight.Group
}

// CacheOption configures a ResultCache.
type CacheOption func(*ResultCache)

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) CacheOption {
	return func(c *ResultCache) { c.prefix = prefix }
}

// WithTTL sets the nominal expiry of cached results.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *ResultCache) { c.ttl = ttl }
}

// NewResultCache creates a result cache backed by client.  The prefix and
// TTL default to the client's configuration.
func NewResultCache(client *Client, log logging.Logger, opts ...CacheOption) *ResultCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &ResultCache{
		client: client,
		logger: log,
		prefix: client.cfg.KeyPrefix,
		ttl:    client.cfg.DefaultTTL,
	}
	if c.prefix == "" {
		c.prefix = defaultPrefix
	}
	if c.ttl <= 0 {
		c.ttl = defaultTTL
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ResultCache) key(digest string) string {
	return c.prefix + "result:" + digest
}

// jitterTTL spreads expiry by +/- 10% so a bulk load does not expire at once.
func (c *ResultCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

// Get returns the cached result for digest.  A miss is (nil, false, nil).
// Every caller receives its own copy.
func (c *ResultCache) Get(ctx context.Context, digest string) (*dto.StandardizeResult, bool, error) {
	v, err, _ := c.group.Do(digest, func() (interface{}, error) {
		data, err := c.client.Get(ctx, c.key(digest)).Bytes()
		if err == redis.Nil {
			return []byte(nil), nil
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCacheError, "reading cached result")
		}
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	data := v.([]byte)
	if data == nil {
		return nil, false, nil
	}

	var res dto.StandardizeResult
	if err := json.Unmarshal(data, &res); err != nil {
		c.logger.Warn("dropping undecodable cached result", logging.String("digest", digest), logging.Err(err))
		return nil, false, errors.Wrap(err, errors.ErrCodeSerialization, ErrSerializationFailed.Message)
	}
	return &res, true, nil
}

// Set stores result under digest.
func (c *ResultCache) Set(ctx context.Context, digest string, result *dto.StandardizeResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, ErrSerializationFailed.Message)
	}
	if err := c.client.Set(ctx, c.key(digest), data, c.jitterTTL(c.ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "writing cached result")
	}
	return nil
}
