package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rushhourgame/railnet/internal/data/edges"
	"github.com/rushhourgame/railnet/internal/platform/logger"
)

type Config struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Generation keys outlive the entries they guard; an expired one reads as 0, which only
// makes a racing fill skip.
const generationTTL = 24 * time.Hour

// fillScript sets KEYS[i] when its generation key KEYS[i+1] still holds the generation the
// reader saw. ARGV[1] is the TTL in milliseconds, then one (generation, value) pair per key.
var fillScript = goredis.NewScript(`
local ttl = tonumber(ARGV[1])
local n = 0
for i = 1, #KEYS, 2 do
  local j = (i + 1) / 2
  local gen = redis.call('GET', KEYS[i + 1]) or '0'
  if gen == ARGV[2 * j] then
    redis.call('SET', KEYS[i], ARGV[2 * j + 1], 'PX', ttl)
    n = n + 1
  end
end
return n
`)

func generationKey(key string) string { return key + ":gen" }

// EdgeCache backs the edge resolver with Redis string keys carrying a TTL. Evictions bump a
// companion generation key so that fills racing an eviction are dropped.
type EdgeCache struct {
	log *logger.Logger
	rdb goredis.UniversalClient
	ttl time.Duration
}

var _ edges.Cache = (*EdgeCache)(nil)

// NewEdgeCache dials and pings Redis. It returns nil, nil when no address is configured.
func NewEdgeCache(log *logger.Logger, cfg Config) (*EdgeCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewEdgeCacheFromClient(log, rdb, cfg.TTL), nil
}

func NewEdgeCacheFromClient(log *logger.Logger, rdb goredis.UniversalClient, ttl time.Duration) *EdgeCache {
	if ttl <= 0 {
		ttl = edges.DefaultTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &EdgeCache{
		log: log.With("service", "RedisEdgeCache"),
		rdb: rdb,
		ttl: ttl,
	}
}

func (c *EdgeCache) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	if c == nil || c.rdb == nil {
		return nil, fmt.Errorf("redis edge cache not initialized")
	}
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		out[keys[i]] = []byte(s)
	}
	return out, nil
}

func (c *EdgeCache) Generations(ctx context.Context, keys []string) (map[string]int64, error) {
	if c == nil || c.rdb == nil {
		return nil, fmt.Errorf("redis edge cache not initialized")
	}
	out := make(map[string]int64, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	genKeys := make([]string, len(keys))
	for i, k := range keys {
		genKeys[i] = generationKey(k)
	}
	vals, err := c.rdb.MGet(ctx, genKeys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		out[keys[i]] = 0
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("generation %s: %w", genKeys[i], err)
		}
		out[keys[i]] = n
	}
	return out, nil
}

func (c *EdgeCache) Fill(ctx context.Context, items map[string][]byte, gens map[string]int64) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis edge cache not initialized")
	}
	keys := make([]string, 0, 2*len(items))
	args := make([]any, 0, 1+2*len(items))
	args = append(args, c.ttl.Milliseconds())
	for k, v := range items {
		gen, ok := gens[k]
		if !ok {
			continue
		}
		keys = append(keys, k, generationKey(k))
		args = append(args, strconv.FormatInt(gen, 10), v)
	}
	if len(keys) == 0 {
		return nil
	}
	n, err := fillScript.Run(ctx, c.rdb, keys, args...).Int64()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return err
	}
	if skipped := len(keys)/2 - int(n); skipped > 0 {
		c.log.Debug("edge cache fill skipped evicted keys", "skipped", skipped)
	}
	return nil
}

func (c *EdgeCache) Delete(ctx context.Context, keys []string) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis edge cache not initialized")
	}
	if len(keys) == 0 {
		return nil
	}
	pipe := c.rdb.TxPipeline()
	del := pipe.Del(ctx, keys...)
	for _, k := range keys {
		gk := generationKey(k)
		pipe.Incr(ctx, gk)
		pipe.Expire(ctx, gk, generationTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	c.log.Debug("edge cache evicted", "keys", len(keys), "deleted", del.Val())
	return nil
}

func (c *EdgeCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	err := c.rdb.Close()
	c.rdb = nil
	return err
}
