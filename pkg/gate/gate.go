package gate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"keygate-hq/keygate/pkg/credential"
	"keygate-hq/keygate/pkg/quota"
	"keygate-hq/keygate/pkg/registry"
)

// DefaultCheckTimeout bounds the quota check. On timeout the request is
// denied, never admitted.
const DefaultCheckTimeout = 3 * time.Second

// Config contains configuration for the admission gate.
type Config struct {
	// CheckTimeout bounds the atomic quota check against the counter
	// store. Default: DefaultCheckTimeout.
	CheckTimeout time.Duration

	// Clock supplies the current time for quota window derivation.
	// Default: time.Now. Overridable for tests.
	Clock func() time.Time
}

// Gate orchestrates the credential hasher, key registry, and quota ledger
// into one admission decision per request.
type Gate struct {
	registry     *registry.Registry
	ledger       quota.Ledger
	checkTimeout time.Duration
	clock        func() time.Time
	logger       *slog.Logger
}

// New creates an admission gate. cfg may be nil for defaults.
func New(reg *registry.Registry, ledger quota.Ledger, cfg *Config) *Gate {
	g := &Gate{
		registry:     reg,
		ledger:       ledger,
		checkTimeout: DefaultCheckTimeout,
		clock:        time.Now,
		logger:       slog.Default().With("component", "gate"),
	}
	if cfg != nil {
		if cfg.CheckTimeout > 0 {
			g.checkTimeout = cfg.CheckTimeout
		}
		if cfg.Clock != nil {
			g.clock = cfg.Clock
		}
	}
	return g
}

// Admit computes the admission decision for a raw credential. The decision
// is terminal: no state is revisited and no step is retried. Any registry
// or ledger failure denies the request.
func (g *Gate) Admit(ctx context.Context, rawCredential string) *Decision {
	decision := g.admit(ctx, rawCredential)
	decisionsTotal.WithLabelValues(string(decision.Reason)).Inc()
	return decision
}

func (g *Gate) admit(ctx context.Context, rawCredential string) *Decision {
	fingerprint, err := credential.Fingerprint(rawCredential)
	if err != nil {
		return &Decision{
			Admitted: false,
			Status:   http.StatusUnauthorized,
			Reason:   ReasonCredentialMissing,
		}
	}

	identity, err := g.registry.Resolve(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, registry.ErrKeyNotFound) {
			g.logger.Warn("admission denied: unknown fingerprint")
		} else {
			// Registry store failure: deny rather than surface a 5xx.
			g.logger.Error("admission denied: registry lookup failed", "error", err)
		}
		return &Decision{
			Admitted: false,
			Status:   http.StatusForbidden,
			Reason:   ReasonCredentialInvalid,
		}
	}

	if !identity.Active {
		g.logger.Warn("admission denied: key disabled",
			"key_id", identity.KeyID,
			"client_id", identity.ClientID,
		)
		return &Decision{
			Admitted: false,
			Status:   http.StatusForbidden,
			Reason:   ReasonCredentialInvalid,
		}
	}

	// The quota check must run to completion and persist its increment
	// even if the caller disconnects: a half-applied check would break
	// the count-equals-admissions invariant. The check is therefore
	// detached from the caller's cancellation and bounded only by the
	// gate's own timeout.
	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.checkTimeout)
	defer cancel()

	day := quota.DayOf(g.clock())
	result, err := g.ledger.CheckAndIncrement(checkCtx, identity.KeyID, day, identity.DailyLimit)
	if err != nil {
		// Fail closed. An unconfirmed increment is indistinguishable from
		// an exhausted quota, and retrying here would change the check's
		// semantics.
		g.logger.Error("admission denied: quota check failed",
			"key_id", identity.KeyID,
			"day", day,
			"error", err,
		)
		return &Decision{
			Admitted: false,
			Status:   http.StatusTooManyRequests,
			Reason:   ReasonQuotaExceeded,
		}
	}

	if !result.Admitted {
		g.logger.Info("admission denied: quota exceeded",
			"key_id", identity.KeyID,
			"client_id", identity.ClientID,
			"day", day,
			"daily_limit", identity.DailyLimit,
		)
		return &Decision{
			Admitted: false,
			Status:   http.StatusTooManyRequests,
			Reason:   ReasonQuotaExceeded,
		}
	}

	g.logger.Debug("request admitted",
		"key_id", identity.KeyID,
		"client_id", identity.ClientID,
		"day", day,
		"count", result.Count,
	)

	return &Decision{
		Admitted: true,
		Status:   http.StatusOK,
		Reason:   ReasonAdmitted,
		Identity: identity,
	}
}
