package quota

import "context"

// Decision is the outcome of a single check-and-increment call.
type Decision struct {
	// Admitted reports whether the request was counted against the quota.
	Admitted bool

	// Count is the counter value after this call when Admitted is true.
	// When Admitted is false the counter was not modified and Count is
	// the limit that was hit (best effort; backends that cannot read the
	// rejected value cheaply report the limit), or zero when a
	// non-positive limit denied the call before the store was consulted.
	Count int64
}

// Ledger is the per-(key, day) request counter with atomic
// check-and-increment semantics.
//
// Implementations must guarantee that for any sequence of concurrent calls
// against the same (keyID, day), at most limit calls return Admitted, and
// that the stored count equals the number of Admitted results once all
// calls settle. A call that fails with an error must leave the counter
// unchanged.
type Ledger interface {
	// CheckAndIncrement atomically increments the (keyID, day) counter if
	// and only if the resulting count would not exceed limit. It returns
	// whether the increment happened. Storage failures are reported as
	// *StoreError; callers must treat them as deny.
	CheckAndIncrement(ctx context.Context, keyID string, day Day, limit int64) (*Decision, error)

	// Count returns the current counter value for (keyID, day), or zero
	// if the counter has never received traffic.
	Count(ctx context.Context, keyID string, day Day) (int64, error)
}
