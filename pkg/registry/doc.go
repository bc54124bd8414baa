/*
Package registry is the authoritative record of API keys: which client owns
each key, its daily request limit, and whether it is still active.

Keys are stored by fingerprint only (see package credential); the raw key
is returned exactly once at provisioning time. Disabling a key is
irreversible and takes effect on the next admission check.

# Usage

	reg := registry.NewRegistry(registry.NewSQLiteStore(db))

	client, _ := reg.ProvisionClient(ctx, "Acme", "ops@acme.test")
	identity, rawKey, _ := reg.ProvisionKey(ctx, client.ID, 1000)
	// rawKey goes back to the caller; only the fingerprint persists

	identity, err := reg.Resolve(ctx, fingerprint)

Provisioning is deliberately not idempotent: calling ProvisionKey twice for
the same client mints two distinct keys, each with its own quota.
*/
package registry
