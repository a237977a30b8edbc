package snapshot

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	gserrors "github.com/vnykmshr/gosched/pkg/common/errors"
	"github.com/vnykmshr/gosched/pkg/common/validation"
	"github.com/vnykmshr/gosched/pkg/metrics"
)

// RedisConfig holds configuration for a RedisSink.
type RedisConfig struct {
	// Redis client used for publishing.
	Redis redis.UniversalClient

	// KeyPrefix namespaces the keys; defaults to "gosched".
	KeyPrefix string

	// InstanceID distinguishes processes sharing a Redis. Defaults to
	// hostname-pid.
	InstanceID string

	// KeyTTL is how long a snapshot outlives its last publish; defaults to 1 minute.
	KeyTTL time.Duration

	// RedisTimeout bounds each publish; defaults to 500ms.
	RedisTimeout time.Duration
}

// RedisSink writes each snapshot to the hash <prefix>:<instance>:<pool> and
// records the pool in the set <prefix>:<instance>:pools. Keys expire when
// the process stops publishing.
type RedisSink struct {
	config RedisConfig
}

// NewRedisSink creates a RedisSink. It does not contact Redis.
func NewRedisSink(config RedisConfig) (*RedisSink, error) {
	if config.Redis == nil {
		return nil, validation.ValidateNotNil(module, "Redis", nil)
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = metrics.DefaultNamespace
	}
	if config.InstanceID == "" {
		hostname, _ := os.Hostname()
		config.InstanceID = fmt.Sprintf("%s-%d", hostname, os.Getpid())
	}
	if config.KeyTTL == 0 {
		config.KeyTTL = time.Minute
	}
	if config.RedisTimeout == 0 {
		config.RedisTimeout = 500 * time.Millisecond
	}
	if err := validation.ValidateNotEmpty(module, "KeyPrefix", strings.TrimSpace(config.KeyPrefix)); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotEmpty(module, "InstanceID", strings.TrimSpace(config.InstanceID)); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositiveDuration(module, "KeyTTL", config.KeyTTL); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositiveDuration(module, "RedisTimeout", config.RedisTimeout); err != nil {
		return nil, err
	}
	return &RedisSink{config: config}, nil
}

// Key returns the hash key holding pool's snapshot.
func (s *RedisSink) Key(pool string) string {
	return s.config.KeyPrefix + ":" + s.config.InstanceID + ":" + pool
}

// PoolsKey returns the key of the set of published pool names.
func (s *RedisSink) PoolsKey() string {
	return s.config.KeyPrefix + ":" + s.config.InstanceID + ":pools"
}

// Publish implements Sink with a single pipelined round trip.
func (s *RedisSink) Publish(ctx context.Context, pool string, stats metrics.PoolStats) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.RedisTimeout)
	defer cancel()

	key := s.Key(pool)
	pipe := s.config.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"kind":        stats.Kind,
		"workers":     stats.Workers,
		"max_workers": stats.MaxWorkers,
		"idle":        stats.Idle,
		"queued":      stats.Queued,
		"enqueued":    stats.Enqueued,
		"executed":    stats.Executed,
		"stolen":      stats.Stolen,
		"panicked":    stats.Panicked,
		"spawned":     stats.Spawned,
		"retired":     stats.Retired,
		"closed":      stats.Closed,
		"updated_at":  time.Now().UnixMilli(),
	})
	pipe.Expire(ctx, key, s.config.KeyTTL)
	pipe.SAdd(ctx, s.PoolsKey(), pool)
	pipe.Expire(ctx, s.PoolsKey(), s.config.KeyTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return gserrors.NewOperationError(module, "RedisPublish", err)
	}
	return nil
}
