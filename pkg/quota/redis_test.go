package quota

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
)

// newTestRedisLedger connects to the Redis instance named by
// KEYGATE_TEST_REDIS_ADDR, or skips the test when unset.
func newTestRedisLedger(t *testing.T) *RedisLedger {
	t.Helper()

	addr := os.Getenv("KEYGATE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("KEYGATE_TEST_REDIS_ADDR not set, skipping Redis ledger tests")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("failed to ping redis at %s: %v", addr, err)
	}
	t.Cleanup(func() { rdb.Close() })

	return NewRedisLedger(rdb, 0)
}

func TestRedisLedger_Sequential(t *testing.T) {
	ledger := newTestRedisLedger(t)
	ctx := context.Background()
	day := Day("2026-02-01")
	keyID := "redis-test-seq"

	defer ledger.rdb.Del(ctx, counterName(keyID, day))

	first, err := ledger.CheckAndIncrement(ctx, keyID, day, 2)
	if err != nil {
		t.Fatalf("first check failed: %v", err)
	}
	if !first.Admitted || first.Count != 1 {
		t.Errorf("Expected admitted with count 1, got %+v", first)
	}

	second, err := ledger.CheckAndIncrement(ctx, keyID, day, 2)
	if err != nil {
		t.Fatalf("second check failed: %v", err)
	}
	if !second.Admitted || second.Count != 2 {
		t.Errorf("Expected admitted with count 2, got %+v", second)
	}

	third, err := ledger.CheckAndIncrement(ctx, keyID, day, 2)
	if err != nil {
		t.Fatalf("third check failed: %v", err)
	}
	if third.Admitted {
		t.Error("Expected third request to be denied")
	}

	count, err := ledger.Count(ctx, keyID, day)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected stored count 2, got %d", count)
	}
}

func TestRedisLedger_Concurrent(t *testing.T) {
	const limit = 20
	const extra = 5

	ledger := newTestRedisLedger(t)
	ctx := context.Background()
	day := Day("2026-02-02")
	keyID := "redis-test-concurrent"

	defer ledger.rdb.Del(ctx, counterName(keyID, day))

	var wg sync.WaitGroup
	results := make(chan bool, limit+extra)

	for i := 0; i < limit+extra; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := ledger.CheckAndIncrement(ctx, keyID, day, limit)
			if err != nil {
				t.Errorf("CheckAndIncrement failed: %v", err)
				return
			}
			results <- decision.Admitted
		}()
	}
	wg.Wait()
	close(results)

	admitted := 0
	for ok := range results {
		if ok {
			admitted++
		}
	}
	if admitted != limit {
		t.Errorf("Expected exactly %d admitted, got %d", limit, admitted)
	}

	count, err := ledger.Count(ctx, keyID, day)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != int64(admitted) {
		t.Errorf("Stored count %d does not match admitted %d", count, admitted)
	}
}
