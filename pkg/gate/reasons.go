package gate

import "keygate-hq/keygate/pkg/registry"

// Reason classifies an admission decision for callers and logs.
type Reason string

const (
	// ReasonAdmitted marks a successful admission.
	ReasonAdmitted Reason = "admitted"

	// ReasonCredentialMissing means no credential was presented.
	ReasonCredentialMissing Reason = "credential_missing"

	// ReasonCredentialInvalid means the fingerprint is unknown or the key
	// has been disabled. The two cases are indistinguishable to callers.
	ReasonCredentialInvalid Reason = "credential_invalid"

	// ReasonQuotaExceeded means the key's daily limit is exhausted, or the
	// counter store could not confirm capacity (fail-closed).
	ReasonQuotaExceeded Reason = "quota_exceeded"
)

// Decision is the outcome of one admission check. It is computed exactly
// once per request.
type Decision struct {
	// Admitted reports whether the request may proceed.
	Admitted bool

	// Status is the HTTP status to surface: 200 on admission, otherwise
	// 401, 403, or 429 depending on Reason.
	Status int

	// Reason classifies the outcome.
	Reason Reason

	// Identity is the resolved key, set only when Admitted is true.
	Identity *registry.KeyIdentity
}
