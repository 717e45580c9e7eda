package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/avenwick/studiocal/internal/tui"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the interactive calendar",
	Long:  `Launch an interactive weekly calendar for browsing and editing bookings.`,
	RunE:  runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	m := tui.NewModel(tui.Deps{
		Store:   api,
		Clients: api,
		Tasks:   api,
		Session: api,
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running calendar: %w", err)
	}

	return nil
}
