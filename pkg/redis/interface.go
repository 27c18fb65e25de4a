package redis

import (
	"context"
	"time"

	v9 "github.com/redis/go-redis/v9"
)

// Client defines the interface for a Redis client.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=redis_mock
type Client interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error
	Reconnect(ctx context.Context) bool

	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error

	HGet(ctx context.Context, key, field string) (string, error)
	HIncrByFloat(ctx context.Context, key, field string, incr float64) (float64, error)

	// TxPipelined queues the commands issued inside fn and executes them in a
	// single MULTI/EXEC block.
	TxPipelined(ctx context.Context, fn func(v9.Pipeliner) error) ([]v9.Cmder, error)

	XAdd(ctx context.Context, args *v9.XAddArgs) (string, error)
	XLen(ctx context.Context, stream string) (int64, error)
	XRevRangeN(ctx context.Context, stream, start, stop string, count int64) ([]v9.XMessage, error)
}
