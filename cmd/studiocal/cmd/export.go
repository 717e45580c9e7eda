package cmd

import (
	"fmt"
	"os"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/avenwick/studiocal/internal/core"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export bookings to iCalendar",
	Long: `Export the selected window of bookings as an iCalendar (.ics) file.

The window is controlled by the same --days/--from/--to flags as the
listing; --output writes to a file instead of stdout.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	window, err := requestedWindow(time.Now())
	if err != nil {
		return err
	}

	events, err := api.FetchEvents(cmd.Context(), window)
	if err != nil {
		return fmt.Errorf("failed to fetch bookings: %w", err)
	}
	if clientFilter := viper.GetString("client"); clientFilter != "" {
		events = filterByClient(events, clientFilter)
	}

	cal := buildCalendar(events)
	serialized := cal.Serialize()

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		fmt.Print(serialized)
		return nil
	}

	if err := os.WriteFile(output, []byte(serialized), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d bookings to %s\n", len(events), output)
	return nil
}

func buildCalendar(events []core.Event) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//studiocal//EN")

	now := time.Now()
	for _, ev := range events {
		entry := cal.AddEvent(ev.ID + "@studiocal")
		entry.SetDtStampTime(now)
		if ev.CreatedAt != nil {
			entry.SetCreatedTime(*ev.CreatedAt)
		}
		if ev.UpdatedAt != nil {
			entry.SetModifiedAt(*ev.UpdatedAt)
		}

		if ev.AllDay {
			entry.SetAllDayStartAt(ev.StartAt)
			entry.SetAllDayEndAt(ev.EndAt)
		} else {
			entry.SetStartAt(ev.StartAt)
			entry.SetEndAt(ev.EndAt)
		}

		entry.SetSummary(ev.Title)
		if ev.Description != "" {
			entry.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			entry.SetLocation(ev.Location)
		}
		if ev.ClientName != "" {
			entry.SetProperty(ics.ComponentProperty(ics.PropertyCategories), ev.ClientName)
		}
	}

	return cal
}
