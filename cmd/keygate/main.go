// Keygate is an API gatekeeper for protected HTTP services.
//
// It authenticates requests by API key fingerprint, enforces per-key daily
// request quotas atomically, and records usage for per-client reporting:
//   - API keys are stored only as SHA-256 fingerprints
//   - Quota accounting is race-free under concurrent requests
//   - Denials fail closed when the counter store is unavailable
//
// Usage:
//
//	# Start server with default configuration
//	keygate run
//
//	# Start with custom configuration file
//	keygate run --config /path/to/config.yaml
//
//	# Provision a client and an API key
//	keygate clients create --name "Acme" --email ops@acme.test
//	keygate keys create --client <client-id> --daily-limit 1000
//
//	# Report per-endpoint usage for a client
//	keygate usage <client-id>
package main

func main() {
	Execute()
}
