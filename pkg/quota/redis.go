package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCounterTTL is how long a Redis counter outlives its day. The
// window itself is 24 hours; the extra headroom keeps recent counters
// readable for audit before Redis reclaims them.
const DefaultCounterTTL = 72 * time.Hour

// admitScript performs the conditional increment server-side. Lua scripts
// execute atomically in Redis, so the INCR and the limit check cannot
// interleave with another caller. An over-limit increment is rolled back
// inside the same script, leaving the stored count untouched.
var admitScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 and tonumber(ARGV[2]) > 0 then
	redis.call('EXPIRE', KEYS[1], ARGV[2])
end
if count > tonumber(ARGV[1]) then
	redis.call('DECR', KEYS[1])
	return -1
end
return count
`)

// RedisLedger implements Ledger on a Redis counter per (key, day).
// Unlike the SQLite ledger, past counters are eventually reclaimed by
// their TTL rather than retained indefinitely.
type RedisLedger struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisLedger creates a ledger on the given Redis client. The client
// remains owned by the caller. A non-positive ttl falls back to
// DefaultCounterTTL.
func NewRedisLedger(rdb *redis.Client, ttl time.Duration) *RedisLedger {
	if ttl <= 0 {
		ttl = DefaultCounterTTL
	}
	return &RedisLedger{rdb: rdb, ttl: ttl}
}

// counterName returns the Redis key for a (keyID, day) counter.
func counterName(keyID string, day Day) string {
	return fmt.Sprintf("keygate:quota:%s:%s", keyID, day)
}

// CheckAndIncrement atomically increments the (keyID, day) counter if the
// resulting count stays within limit.
func (l *RedisLedger) CheckAndIncrement(ctx context.Context, keyID string, day Day, limit int64) (decision *Decision, err error) {
	start := time.Now()
	defer func() { observeCheck("redis", decision, err, start) }()

	if limit < 1 {
		return &Decision{Admitted: false, Count: 0}, nil
	}

	result, err := admitScript.Run(ctx, l.rdb,
		[]string{counterName(keyID, day)},
		limit, int64(l.ttl.Seconds()),
	).Int64()
	if err != nil {
		return nil, NewStoreError("redis", "check_and_increment", err)
	}

	if result < 0 {
		return &Decision{Admitted: false, Count: limit}, nil
	}
	return &Decision{Admitted: true, Count: result}, nil
}

// Count returns the stored counter value for (keyID, day).
func (l *RedisLedger) Count(ctx context.Context, keyID string, day Day) (int64, error) {
	count, err := l.rdb.Get(ctx, counterName(keyID, day)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, NewStoreError("redis", "count", err)
	}
	return count, nil
}
