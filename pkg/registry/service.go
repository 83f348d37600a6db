package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/veritrack/platform/pkg/common/logger"
)

var (
	ErrDeviceNotFound    = errors.New("device not found")
	ErrDeviceNotEligible = errors.New("device not eligible for ingestion")
	ErrCacheMiss         = errors.New("cache miss")
)

// Store is the persistence surface the lookup service needs. Device writes
// other than last_seen_at belong to the administration service.
type Store interface {
	FindByEUI(ctx context.Context, eui string) (*Device, error)
	TouchLastSeen(ctx context.Context, deviceID string, at time.Time) error
}

// KV is a read-through cache for device lookups.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type Service struct {
	store    Store
	cache    KV
	cacheTTL time.Duration
}

// NewService builds a lookup service. cache may be nil, in which case every
// resolve hits storage.
func NewService(store Store, cache KV, cacheTTL time.Duration) *Service {
	return &Service{store: store, cache: cache, cacheTTL: cacheTTL}
}

// Resolve maps a hardware EUI to its registered device.
func (s *Service) Resolve(ctx context.Context, eui string) (*Device, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey(eui)); err == nil {
			var dev Device
			if err := json.Unmarshal([]byte(raw), &dev); err == nil {
				return &dev, nil
			}
		}
	}

	dev, err := s.store.FindByEUI(ctx, eui)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(dev); err == nil {
			if err := s.cache.Set(ctx, cacheKey(eui), string(raw), s.cacheTTL); err != nil {
				logger.Log.WithError(err).Warn("failed to cache device lookup")
			}
		}
	}

	return dev, nil
}

// ResolveEligible resolves the device and enforces the ingestion eligibility
// rules: the device must exist, be active, and have an assigned subject.
func (s *Service) ResolveEligible(ctx context.Context, eui string) (*Device, error) {
	dev, err := s.Resolve(ctx, eui)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			return nil, fmt.Errorf("device %s: %w", eui, ErrDeviceNotEligible)
		}
		return nil, err
	}
	if dev.State != StateActive {
		return nil, fmt.Errorf("device %s is %s: %w", eui, dev.State, ErrDeviceNotEligible)
	}
	if !dev.Assigned() {
		return nil, fmt.Errorf("device %s has no assigned subject: %w", eui, ErrDeviceNotEligible)
	}
	return dev, nil
}

func (s *Service) TouchLastSeen(ctx context.Context, deviceID string, at time.Time) error {
	return s.store.TouchLastSeen(ctx, deviceID, at)
}

func cacheKey(eui string) string {
	return "device:eui:" + eui
}

// RedisKV adapts a redis client to the KV interface.
type RedisKV struct {
	client *redis.Client
}

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

func (r *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}
