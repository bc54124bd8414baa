/*
Package config loads, validates, and defaults the keygate configuration.

Configuration is YAML with environment variable overrides. Variables follow
the naming convention KEYGATE_SECTION_FIELD (e.g. KEYGATE_SERVER_LISTEN_ADDRESS)
and always take precedence over file values.

The loading sequence is:

 1. Parse YAML from file
 2. Apply default values
 3. Apply environment variable overrides
 4. Validate the final configuration

A Watcher can additionally follow the config file at runtime and apply
log-level changes without a restart.
*/
package config
