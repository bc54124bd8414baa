/*
Package cli provides command-line utilities for the keygate command.

It includes output formatters (text and JSON), error types that carry the
failing command or config field, and signal handling helpers for graceful
shutdown:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}
*/
package cli
