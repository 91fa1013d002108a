package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/redis/go-redis/v9"

	"github.com/lac-hong-legacy/devscope/model"
)

var ErrQuotaStoreUnavailable = errors.New("quota store unavailable")

// QuotaStore consumes points from a fixed window counter. ok is false when
// taking points would exceed limit, in which case nothing is consumed.
type QuotaStore interface {
	ConsumeWindow(ctx context.Context, key string, points, limit int64, window time.Duration) (bucket model.QuotaBucket, ok bool, err error)
}

// consumeScript checks and increments in one step so concurrent callers on
// the same key can never push the counter past the limit. The first
// increment of a window starts its TTL; the TTL is never extended.
var consumeScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local points = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local window = tonumber(ARGV[3])
if current + points > limit then
	return {0, current, redis.call("PTTL", KEYS[1])}
end
local total = redis.call("INCRBY", KEYS[1], points)
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], window)
	ttl = window
end
return {1, total, ttl}
`)

type RedisService struct {
	appContext.DefaultService
	redis *redis.Client

	addr     string
	password string
	db       int
}

const REDIS_SVC = "redis_svc"

func (svc RedisService) Id() string {
	return REDIS_SVC
}

func (svc *RedisService) Configure(ctx *appContext.Context) error {
	cfg := ctx.Service(CONFIG_SVC).(*ConfigService).Config()
	svc.addr = cfg.RedisAddr
	svc.password = cfg.RedisPassword
	svc.db = cfg.RedisDB
	svc.initRedisClient()
	return svc.DefaultService.Configure(ctx)
}

func (svc *RedisService) Start() error {
	if svc.redis != nil {
		ctx := context.Background()
		_, err := svc.redis.Ping(ctx).Result()
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
	}
	return nil
}

func (svc *RedisService) Shutdown() {
	if svc.redis != nil {
		_ = svc.redis.Close()
	}
}

func (svc *RedisService) initRedisClient() {
	svc.redis = redis.NewClient(&redis.Options{
		Addr:     svc.addr,
		Password: svc.password,
		DB:       svc.db,
	})
}

// NewRedisService wraps an existing client, outside of the service context.
func NewRedisService(client *redis.Client) *RedisService {
	return &RedisService{redis: client}
}

func (svc *RedisService) GetClient() *redis.Client {
	return svc.redis
}

func (svc *RedisService) ConsumeWindow(ctx context.Context, key string, points, limit int64, window time.Duration) (model.QuotaBucket, bool, error) {
	if svc.redis == nil {
		return model.QuotaBucket{}, false, fmt.Errorf("%w: redis client not initialized", ErrQuotaStoreUnavailable)
	}

	res, err := consumeScript.Run(ctx, svc.redis, []string{key}, points, limit, window.Milliseconds()).Int64Slice()
	if err != nil {
		return model.QuotaBucket{}, false, fmt.Errorf("%w: %v", ErrQuotaStoreUnavailable, err)
	}
	if len(res) != 3 {
		return model.QuotaBucket{}, false, fmt.Errorf("%w: unexpected script reply %v", ErrQuotaStoreUnavailable, res)
	}

	bucket := model.QuotaBucket{
		Key:            key,
		PointsConsumed: res[1],
		WindowDuration: window,
	}
	if ttl := time.Duration(res[2]) * time.Millisecond; ttl > 0 {
		bucket.WindowStartedAt = time.Now().Add(ttl - window)
	} else {
		bucket.WindowStartedAt = time.Now()
	}
	return bucket, res[0] == 1, nil
}
