package cache

import (
	"context"
	"time"
)

// KV is the byte-level interface over the external key-value store. Get
// returns found=false on a plain miss; an error means the store itself could
// not be reached. Set stores the value with the given TTL, after which the
// store expires the entry autonomously. Implementations must preserve bytes
// exactly.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by backends that can report reachability.
// Used by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}
