package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"keygate-hq/keygate/pkg/cli"
	"keygate-hq/keygate/pkg/credential"
)

var keysFlags struct {
	clientID   string
	dailyLimit int64
	apiKey     string
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
	Long: `Provision, disable, and list API keys.

The raw key is printed exactly once at provisioning time. Only its SHA-256
fingerprint is stored; a lost key cannot be recovered, only replaced.

Examples:
  # Provision a key with a daily quota of 1000 requests
  keygate keys create --client <client-id> --daily-limit 1000

  # Disable a key
  keygate keys disable --key <raw-api-key>

  # List a client's keys
  keygate keys list --client <client-id>`,
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Provision a new API key",
	RunE:  createKey,
}

var keysDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable an API key",
	Long: `Disable an API key. The change takes effect on the next admission
check; the key's quota counters are left untouched.`,
	RunE: disableKey,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a client's API keys",
	RunE:  listKeys,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysCreateCmd, keysDisableCmd, keysListCmd)

	keysCreateCmd.Flags().StringVar(&keysFlags.clientID, "client", "", "owning client ID (required)")
	keysCreateCmd.Flags().Int64Var(&keysFlags.dailyLimit, "daily-limit", 0, "daily request quota (required, positive)")
	_ = keysCreateCmd.MarkFlagRequired("client")
	_ = keysCreateCmd.MarkFlagRequired("daily-limit")

	keysDisableCmd.Flags().StringVar(&keysFlags.apiKey, "key", "", "raw API key to disable (required)")
	_ = keysDisableCmd.MarkFlagRequired("key")

	keysListCmd.Flags().StringVar(&keysFlags.clientID, "client", "", "owning client ID (required)")
	_ = keysListCmd.MarkFlagRequired("client")
}

func createKey(cmd *cobra.Command, args []string) error {
	reg, closeStore, err := openRegistry()
	if err != nil {
		return err
	}
	defer closeStore()

	key, raw, err := reg.ProvisionKey(cmd.Context(), keysFlags.clientID, keysFlags.dailyLimit)
	if err != nil {
		return cli.NewCommandError("keys create", err)
	}

	if outputFormat == string(cli.FormatJSON) {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, map[string]any{
			"key_id":      key.KeyID,
			"client_id":   key.ClientID,
			"api_key":     raw,
			"daily_limit": key.DailyLimit,
		})
	}

	fmt.Printf("✓ API key provisioned\n")
	fmt.Printf("Key ID:      %s\n", key.KeyID)
	fmt.Printf("Client ID:   %s\n", key.ClientID)
	fmt.Printf("Daily limit: %d\n", key.DailyLimit)
	fmt.Println()
	fmt.Printf("API key: %s\n", raw)
	fmt.Println()
	fmt.Println("⚠️  This key is shown once and cannot be recovered. Store it securely.")
	return nil
}

func disableKey(cmd *cobra.Command, args []string) error {
	reg, closeStore, err := openRegistry()
	if err != nil {
		return err
	}
	defer closeStore()

	fingerprint, err := credential.Fingerprint(keysFlags.apiKey)
	if err != nil {
		return cli.NewCommandError("keys disable", err)
	}

	key, err := reg.DisableKey(cmd.Context(), fingerprint)
	if err != nil {
		return cli.NewCommandError("keys disable", err)
	}

	if outputFormat == string(cli.FormatJSON) {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, map[string]any{
			"key_id":   key.KeyID,
			"disabled": true,
		})
	}

	fmt.Printf("✓ Key %s disabled\n", key.KeyID)
	return nil
}

func listKeys(cmd *cobra.Command, args []string) error {
	reg, closeStore, err := openRegistry()
	if err != nil {
		return err
	}
	defer closeStore()

	keys, err := reg.ListKeys(cmd.Context(), keysFlags.clientID)
	if err != nil {
		return cli.NewCommandError("keys list", err)
	}

	if outputFormat == string(cli.FormatJSON) {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, keys)
	}

	if len(keys) == 0 {
		fmt.Println("No keys provisioned for this client")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY ID\tDAILY LIMIT\tACTIVE\tCREATED")
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%d\t%t\t%s\n", k.KeyID, k.DailyLimit, k.Active, k.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
