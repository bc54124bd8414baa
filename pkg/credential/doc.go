/*
Package credential provides the one-way transform between raw API keys and
their stored fingerprints, plus generation of fresh raw keys.

Raw keys are handed to the caller exactly once at provisioning time. Only
the fingerprint is ever persisted, so a database leak does not expose
usable credentials.

# Usage

	raw, err := credential.GenerateRaw()
	// hand raw to the client, store only the fingerprint
	fp, err := credential.Fingerprint(raw)

Fingerprint is deterministic: the same raw key always produces the same
fingerprint, which is what makes lookup by fingerprint possible.
*/
package credential
