package cookies

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/and161185/nullscape-admin/internal/errs"
)

// Redis shares cookies between hosts through a redis key per cookie.
// Expiring cookies are stored with a matching TTL.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedis returns a redis-backed store; keys are "<prefix>:<name>".
func NewRedis(rdb redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "nsadmin:cookie"
	}
	return &Redis{rdb: rdb, prefix: prefix, now: time.Now}
}

func (r *Redis) key(name string) string { return r.prefix + ":" + name }

func (r *Redis) Get(ctx context.Context, name string) (string, error) {
	v, err := r.rdb.Get(ctx, r.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", errs.ErrNoToken
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, c Cookie) error {
	var ttl time.Duration
	if !c.Expires.IsZero() {
		ttl = c.Expires.Sub(r.now())
		if ttl <= 0 {
			return r.rdb.Del(ctx, r.key(c.Name)).Err()
		}
	}
	return r.rdb.Set(ctx, r.key(c.Name), c.Value, ttl).Err()
}

func (r *Redis) Remove(ctx context.Context, name string) error {
	return r.rdb.Del(ctx, r.key(name)).Err()
}
