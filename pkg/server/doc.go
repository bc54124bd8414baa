/*
Package server provides the HTTP surface of keygate.

The server exposes three route groups:

  - Protected data plane routes guarded by the admission gate. Every
    admitted request is recorded for usage reporting.
  - Admin routes for provisioning clients and API keys, disabling keys,
    and querying usage. Admin routes are throttled per remote IP.
  - Operational routes: /healthz for liveness and /metrics for Prometheus.

Shutdown is graceful: in-flight requests drain within the configured
timeout before the listener closes.
*/
package server
