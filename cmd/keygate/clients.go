package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"keygate-hq/keygate/pkg/cli"
	"keygate-hq/keygate/pkg/config"
	"keygate-hq/keygate/pkg/registry"
	"keygate-hq/keygate/pkg/store"
)

var clientsFlags struct {
	name  string
	email string
}

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage clients",
	Long: `Provision and list clients.

A client is the owner of one or more API keys. Clients are administered
directly against the key store; the server does not need to be running.

Examples:
  # Provision a client
  keygate clients create --name "Acme" --email ops@acme.test

  # List all clients
  keygate clients list`,
}

var clientsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Provision a new client",
	RunE:  createClient,
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all clients",
	RunE:  listClients,
}

func init() {
	rootCmd.AddCommand(clientsCmd)
	clientsCmd.AddCommand(clientsCreateCmd, clientsListCmd)

	clientsCreateCmd.Flags().StringVar(&clientsFlags.name, "name", "", "client name (required)")
	clientsCreateCmd.Flags().StringVar(&clientsFlags.email, "email", "", "client contact email (required)")
	_ = clientsCreateCmd.MarkFlagRequired("name")
	_ = clientsCreateCmd.MarkFlagRequired("email")
}

// openRegistry opens the configured key store for offline administration.
// The returned close function must be called when done.
func openRegistry() (*registry.Registry, func(), error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	db, err := store.Open(cfg.Store.Path, cfg.Store.BusyTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open key store: %w", err)
	}

	registryStore, err := registry.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to initialize key registry: %w", err)
	}

	return registry.NewRegistry(registryStore), func() { db.Close() }, nil
}

func createClient(cmd *cobra.Command, args []string) error {
	reg, closeStore, err := openRegistry()
	if err != nil {
		return err
	}
	defer closeStore()

	client, err := reg.ProvisionClient(cmd.Context(), clientsFlags.name, clientsFlags.email)
	if err != nil {
		return cli.NewCommandError("clients create", err)
	}

	if outputFormat == string(cli.FormatJSON) {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, client)
	}

	fmt.Printf("✓ Client provisioned\n")
	fmt.Printf("ID:    %s\n", client.ID)
	fmt.Printf("Name:  %s\n", client.Name)
	fmt.Printf("Email: %s\n", client.Email)
	return nil
}

func listClients(cmd *cobra.Command, args []string) error {
	reg, closeStore, err := openRegistry()
	if err != nil {
		return err
	}
	defer closeStore()

	clients, err := reg.ListClients(cmd.Context())
	if err != nil {
		return cli.NewCommandError("clients list", err)
	}

	if outputFormat == string(cli.FormatJSON) {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, clients)
	}

	if len(clients) == 0 {
		fmt.Println("No clients provisioned")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCREATED")
	for _, c := range clients {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
