// Package lock provides Redis-backed leases so only one replica runs a
// background job at a time.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/nicolaananda/barber-pos-sub000/internal/ports"
)

type Redis struct {
	Client *redis.Client
	locker *redislock.Client
}

// NewRedis connects to addr and pings it once.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Redis{Client: client, locker: redislock.New(client)}, nil
}

func (r *Redis) Obtain(ctx context.Context, key string, ttl time.Duration) (ports.Lease, error) {
	l, err := r.locker.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ports.ErrLockNotObtained
	}
	if err != nil {
		return nil, err
	}
	return lease{l}, nil
}

func (r *Redis) Health(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.Client.Close()
}

type lease struct {
	l *redislock.Lock
}

func (l lease) Release(ctx context.Context) error {
	err := l.l.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}
