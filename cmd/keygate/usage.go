package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"keygate-hq/keygate/pkg/cli"
	"keygate-hq/keygate/pkg/config"
	"keygate-hq/keygate/pkg/usage"
)

var usageCmd = &cobra.Command{
	Use:   "usage <client-id>",
	Short: "Report per-endpoint usage for a client",
	Long: `Report per-endpoint request counts for a client, read from the
usage database.

Examples:
  # Text report
  keygate usage 3f8a...

  # JSON report
  keygate usage 3f8a... --output json`,
	Args: cobra.ExactArgs(1),
	RunE: reportUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)
}

func reportUsage(cmd *cobra.Command, args []string) error {
	clientID := args[0]

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	if cfg.Usage.Disabled {
		return fmt.Errorf("usage recording is disabled in the configuration")
	}

	storage, err := usage.NewSQLiteStorage(&usage.SQLiteConfig{
		Path:        cfg.Usage.Path,
		WALMode:     true,
		BusyTimeout: cfg.Store.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to open usage storage: %w", err)
	}
	defer storage.Close()

	summaries, err := storage.SummarizeByClient(cmd.Context(), clientID)
	if err != nil {
		return cli.NewCommandError("usage", err)
	}

	if outputFormat == string(cli.FormatJSON) {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, map[string]any{
			"client_id": clientID,
			"usage":     summaries,
		})
	}

	if len(summaries) == 0 {
		fmt.Println("No usage recorded for this client")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENDPOINT\tREQUESTS")
	var total int64
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\n", s.Endpoint, s.Requests)
		total += s.Requests
	}
	fmt.Fprintf(w, "TOTAL\t%d\n", total)
	return w.Flush()
}
