package risk

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores assessments keyed by model fingerprint and profile.
type Cache interface {
	Get(ctx context.Context, key string) (Assessment, bool, error)
	Set(ctx context.Context, key string, a Assessment, ttl time.Duration) error
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache wraps an existing client. Keys are written under prefix.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "risk:"
	}
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (Assessment, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Assessment{}, false, nil
	}
	if err != nil {
		return Assessment{}, false, err
	}
	var a Assessment
	if err := json.Unmarshal(raw, &a); err != nil {
		return Assessment{}, false, err
	}
	return a, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, a Assessment, ttl time.Duration) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}

func cacheKey(fingerprint string, p ApplicantProfile) string {
	parts := []string{
		fingerprint,
		strconv.Itoa(int(p.HomeOwnership)),
		strconv.FormatFloat(p.LoanAmount, 'g', -1, 64),
		strconv.FormatFloat(p.CreditScore, 'g', -1, 64),
		strconv.FormatFloat(p.AnnualIncome, 'g', -1, 64),
		strconv.FormatFloat(p.MonthlyDebt, 'g', -1, 64),
		strconv.FormatFloat(p.YearsInJob, 'g', -1, 64),
	}
	return strings.Join(parts, ":")
}
