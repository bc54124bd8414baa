/*
Package gate computes the single pass/deny admission decision for each
inbound request: credential extraction, fingerprint resolution, and the
atomic quota check, in that order.

The decision machine per request is

	START → CREDENTIAL_EXTRACTED → IDENTITY_RESOLVED → QUOTA_CHECKED → {ADMITTED | DENIED}

with no retries and no revisiting of terminal states. Denials map to:

	401 credential_missing — no credential presented
	403 credential_invalid — unknown fingerprint or disabled key
	429 quota_exceeded     — daily limit reached

The gate fails closed: a registry or ledger storage failure (including a
check timeout) produces a deny, never an admit and never a 5xx. Retrying
a quota check would change its semantics, so a failed store call is a
terminal denial.

On admission the resolved key identity is attached to the request context
(see IdentityFromContext) so downstream handlers can record usage.
*/
package gate
