/*
Package quota implements the per-key, per-day request ledger.

CheckAndIncrement is the single contended operation in the system. The
naive read-then-write sequence (load count, compare, store count+1) admits
more than the limit under concurrency: two requests can both observe
count < limit and both increment. Every ledger in this package makes the
check and the increment a single indivisible step instead:

  - SQLiteLedger executes one conditional upsert against the authoritative
    store ("increment only if the resulting count stays within the limit")
    and learns from the statement itself whether the increment happened.
  - RedisLedger runs an atomic Lua script server-side.
  - MemoryLedger serializes on a mutex; it exists for tests and ephemeral
    runs.

For any set of concurrent calls against the same (key, day), the number of
Admitted results never exceeds the limit, and the stored count after all
calls settle equals exactly the number of Admitted results.

The quota window is the calendar day at UTC midnight, so every instance
derives the same window regardless of local clocks. Counters are created
lazily on the first request of a day; creation is idempotent under races.
Counters for past days are never mutated again.

Storage failures surface as *StoreError. Callers must treat them as deny
(fail-closed), never as admit.
*/
package quota
