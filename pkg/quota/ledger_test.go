package quota

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"keygate-hq/keygate/pkg/store"
)

// ledgerBackends returns every ledger implementation that can run without
// external services. The Redis ledger has its own env-guarded test.
func ledgerBackends(t *testing.T) map[string]Ledger {
	t.Helper()

	path := filepath.Join(t.TempDir(), "quota.db")
	db, err := store.Open(path, 5*time.Second)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sqliteLedger, err := NewSQLiteLedger(db)
	if err != nil {
		t.Fatalf("NewSQLiteLedger failed: %v", err)
	}

	return map[string]Ledger{
		"memory": NewMemoryLedger(),
		"sqlite": sqliteLedger,
	}
}

func TestCheckAndIncrement_Sequential(t *testing.T) {
	for name, ledger := range ledgerBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			day := Day("2026-01-10")

			// dailyLimit = 2: two admissions, then denial.
			first, err := ledger.CheckAndIncrement(ctx, "key-1", day, 2)
			if err != nil {
				t.Fatalf("first check failed: %v", err)
			}
			if !first.Admitted || first.Count != 1 {
				t.Errorf("Expected admitted with count 1, got %+v", first)
			}

			second, err := ledger.CheckAndIncrement(ctx, "key-1", day, 2)
			if err != nil {
				t.Fatalf("second check failed: %v", err)
			}
			if !second.Admitted || second.Count != 2 {
				t.Errorf("Expected admitted with count 2, got %+v", second)
			}

			third, err := ledger.CheckAndIncrement(ctx, "key-1", day, 2)
			if err != nil {
				t.Fatalf("third check failed: %v", err)
			}
			if third.Admitted {
				t.Error("Expected third request to be denied")
			}

			count, err := ledger.Count(ctx, "key-1", day)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if count != 2 {
				t.Errorf("Expected stored count 2, got %d", count)
			}
		})
	}
}

func TestCheckAndIncrement_ConcurrentNeverOvershoots(t *testing.T) {
	const limit = 50
	const extra = 5

	for name, ledger := range ledgerBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			day := Day("2026-01-11")

			var wg sync.WaitGroup
			results := make(chan bool, limit+extra)
			errs := make(chan error, limit+extra)

			for i := 0; i < limit+extra; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					decision, err := ledger.CheckAndIncrement(ctx, "key-hot", day, limit)
					if err != nil {
						errs <- err
						return
					}
					results <- decision.Admitted
				}()
			}
			wg.Wait()
			close(results)
			close(errs)

			for err := range errs {
				t.Fatalf("CheckAndIncrement failed: %v", err)
			}

			admitted, denied := 0, 0
			for ok := range results {
				if ok {
					admitted++
				} else {
					denied++
				}
			}

			if admitted != limit {
				t.Errorf("Expected exactly %d admitted, got %d", limit, admitted)
			}
			if denied != extra {
				t.Errorf("Expected exactly %d denied, got %d", extra, denied)
			}

			// No lost and no phantom increments: the stored count must
			// equal the number of admitted results.
			count, err := ledger.Count(ctx, "key-hot", day)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if count != int64(admitted) {
				t.Errorf("Stored count %d does not match admitted %d", count, admitted)
			}
		})
	}
}

func TestCheckAndIncrement_FirstRequestOfDayRace(t *testing.T) {
	// Two concurrent first-requests-of-the-day: exactly one counter is
	// created and both calls land on the atomic increment path.
	for name, ledger := range ledgerBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			day := Day("2026-01-12")

			var wg sync.WaitGroup
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := ledger.CheckAndIncrement(ctx, "key-new", day, 10); err != nil {
						t.Errorf("CheckAndIncrement failed: %v", err)
					}
				}()
			}
			wg.Wait()

			count, err := ledger.Count(ctx, "key-new", day)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if count != 2 {
				t.Errorf("Expected count 2 after racing first requests, got %d", count)
			}
		})
	}
}

func TestCheckAndIncrement_WindowsAreIndependent(t *testing.T) {
	for name, ledger := range ledgerBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			dayOne := Day("2026-01-13")
			dayTwo := Day("2026-01-14")

			if _, err := ledger.CheckAndIncrement(ctx, "key-1", dayOne, 1); err != nil {
				t.Fatalf("CheckAndIncrement failed: %v", err)
			}

			// Day one is exhausted; day two starts fresh and must not
			// touch day one's counter.
			denied, err := ledger.CheckAndIncrement(ctx, "key-1", dayOne, 1)
			if err != nil {
				t.Fatalf("CheckAndIncrement failed: %v", err)
			}
			if denied.Admitted {
				t.Error("Expected day-one request to be denied")
			}

			fresh, err := ledger.CheckAndIncrement(ctx, "key-1", dayTwo, 1)
			if err != nil {
				t.Fatalf("CheckAndIncrement failed: %v", err)
			}
			if !fresh.Admitted {
				t.Error("Expected day-two request to be admitted")
			}

			countOne, err := ledger.Count(ctx, "key-1", dayOne)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if countOne != 1 {
				t.Errorf("Day-one counter was mutated by day-two traffic: %d", countOne)
			}
		})
	}
}

func TestCheckAndIncrement_NonPositiveLimit(t *testing.T) {
	for name, ledger := range ledgerBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			day := Day("2026-01-15")

			for _, limit := range []int64{0, -3} {
				decision, err := ledger.CheckAndIncrement(ctx, "key-1", day, limit)
				if err != nil {
					t.Fatalf("CheckAndIncrement with limit %d failed: %v", limit, err)
				}
				if decision.Admitted {
					t.Errorf("Expected denial for limit %d", limit)
				}
				if decision.Count != 0 {
					t.Errorf("Expected count 0 for untouched counter with limit %d, got %d", limit, decision.Count)
				}
			}

			count, err := ledger.Count(ctx, "key-1", day)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if count != 0 {
				t.Errorf("Expected untouched counter, got %d", count)
			}
		})
	}
}
