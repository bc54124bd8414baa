package cli

import "fmt"

// ConfigError reports an invalid or unloadable keygate configuration.
type ConfigError struct {
	// Field is the config path that failed ("quota.backend"). Empty when
	// the file as a whole could not be loaded.
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %s", e.Message)
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// CommandError wraps a failure from a keygate subcommand with the command
// name for the top-level error report.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("keygate %s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}
