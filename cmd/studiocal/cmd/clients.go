package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clientsCmd = &cobra.Command{
	Use:     "clients",
	Aliases: []string{"client"},
	Short:   "List bookable clients",
	Long:    `List the CRM clients a booking can be linked to.`,
	RunE:    runClients,
}

func init() {
	rootCmd.AddCommand(clientsCmd)
}

func runClients(cmd *cobra.Command, args []string) error {
	clients, err := api.ListClients(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list clients: %w", err)
	}

	fmt.Println("Clients:")
	fmt.Println("─────────────────────────────────────────────────")

	for _, c := range clients {
		fmt.Printf("\n  • %s\n", c.Name)
		fmt.Printf("    ID: %s\n", c.ID)
	}

	fmt.Println()
	fmt.Printf("Total: %d clients\n", len(clients))
	fmt.Println("\nTip: Use 'studiocal -c \"client name\"' to filter bookings by client")

	return nil
}
