/*
Package usage records admitted requests for audit and reporting.

Records are append-only facts: key, owning client, endpoint, response
status, timestamp. They are written asynchronously by a background worker
so that a slow or failing audit store can never block or reverse an
already-admitted request; write failures are logged and swallowed.

Reporting is per client: SummarizeByClient returns request counts per
endpoint, the query behind the usage report endpoint and CLI command.

Retention is enforced by a Pruner, optionally on a cron schedule.
*/
package usage
