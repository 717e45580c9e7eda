package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/avenwick/studiocal/internal/adapter/crm"
	"github.com/avenwick/studiocal/internal/core"
)

var (
	cfgFile string
	profile string
	api     *crm.Adapter
)

var rootCmd = &cobra.Command{
	Use:   "studiocal",
	Short: "A terminal booking calendar for recording studios",
	Long: `studiocal is a terminal client for the studio booking calendar.

It lists upcoming bookings, launches an interactive weekly view where
bookings can be created, moved, resized and deleted, and exports your
schedule to iCalendar.`,
	PersistentPreRunE: initAdapter,
	RunE:              listBookings,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (inherited by all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/studiocal/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "config profile to use (e.g., studio-a, studio-b)")
	rootCmd.PersistentFlags().String("base-url", "", "CRM base URL")
	rootCmd.PersistentFlags().String("token", "", "CRM API token")

	// Window flags
	rootCmd.PersistentFlags().IntP("days", "d", 7, "Number of days to list (ignored if --from/--to specified)")
	rootCmd.PersistentFlags().String("from", "", "Start date (YYYY-MM-DD, 'today', 'tomorrow', 'monday', etc.)")
	rootCmd.PersistentFlags().String("to", "", "End date (YYYY-MM-DD, 'today', 'tomorrow', 'monday', etc.)")
	rootCmd.PersistentFlags().StringP("client", "c", "", "Only show bookings for this client (name substring)")
	rootCmd.PersistentFlags().Bool("mine", false, "Only show bookings you own")

	viper.BindPFlag("base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	viper.BindPFlag("api_token", rootCmd.PersistentFlags().Lookup("token"))
	viper.BindPFlag("days", rootCmd.PersistentFlags().Lookup("days"))
	viper.BindPFlag("from", rootCmd.PersistentFlags().Lookup("from"))
	viper.BindPFlag("to", rootCmd.PersistentFlags().Lookup("to"))
	viper.BindPFlag("client", rootCmd.PersistentFlags().Lookup("client"))
	viper.BindPFlag("mine", rootCmd.PersistentFlags().Lookup("mine"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "studiocal")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("STUDIOCAL")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("days", 7)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	applyProfile()
}

// applyProfile merges profile-specific settings over defaults
func applyProfile() {
	activeProfile := profile
	if activeProfile == "" {
		activeProfile = viper.GetString("default_profile")
	}
	if activeProfile == "" {
		return
	}

	profileKey := "profiles." + activeProfile
	if !viper.IsSet(profileKey) {
		fmt.Fprintf(os.Stderr, "Warning: profile '%s' not found in config\n", activeProfile)
		return
	}

	fmt.Fprintf(os.Stderr, "Using profile: %s\n", activeProfile)

	settings := []string{
		"base_url",
		"api_token",
		"days",
		"from",
		"to",
		"client",
		"mine",
	}

	displaySettings := []string{
		"display.client",
		"display.location",
		"display.owner",
		"display.notes",
		"display.id",
	}

	// Override each setting if present in profile,
	// but only if the user hasn't explicitly set it via CLI flag.
	for _, key := range settings {
		profileSettingKey := profileKey + "." + key
		if viper.IsSet(profileSettingKey) && !isFlagExplicitlySet(key) {
			viper.Set(key, viper.Get(profileSettingKey))
		}
	}

	for _, key := range displaySettings {
		profileSettingKey := profileKey + "." + key
		if viper.IsSet(profileSettingKey) {
			viper.Set(key, viper.Get(profileSettingKey))
		}
	}
}

func isFlagExplicitlySet(viperKey string) bool {
	flagName := strings.ReplaceAll(viperKey, "_", "-")
	f := rootCmd.PersistentFlags().Lookup(flagName)

	return f != nil && f.Changed
}

func initAdapter(cmd *cobra.Command, args []string) error {
	// Skip adapter init for commands that don't need it
	if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "profile" ||
		cmd.Parent() != nil && cmd.Parent().Name() == "profile" {
		return nil
	}

	baseURL := viper.GetString("base_url")
	if baseURL == "" {
		return fmt.Errorf("base_url not configured\n\nSet it in the config file, with --base-url, or via STUDIOCAL_BASE_URL")
	}

	api = crm.New(baseURL, viper.GetString("api_token"))
	return nil
}

// requestedWindow resolves --from/--to/--days into a fetch window.
func requestedWindow(now time.Time) (core.Range, error) {
	fromStr := viper.GetString("from")
	toStr := viper.GetString("to")
	days := viper.GetInt("days")

	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if fromStr != "" {
		var err error
		start, err = parseDate(fromStr, now)
		if err != nil {
			return core.Range{}, err
		}
	}

	var end time.Time
	if toStr != "" {
		var err error
		end, err = parseDate(toStr, now)
		if err != nil {
			return core.Range{}, err
		}
		// --to names the last included day
		end = end.AddDate(0, 0, 1)
	} else {
		end = start.AddDate(0, 0, days)
	}

	if !start.Before(end) {
		return core.Range{}, fmt.Errorf("empty date range: %s is not before %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return core.Range{Start: start, End: end}, nil
}

func listBookings(cmd *cobra.Command, args []string) error {
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
	if viper.GetBool("mine") {
		user, err := api.CurrentUser(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to resolve current user: %w", err)
		}
		events = filterByOwner(events, user.ID)
	}

	fmt.Printf("Bookings from %s to %s:\n",
		window.Start.Format("Jan 2"),
		window.End.AddDate(0, 0, -1).Format("Jan 2"))
	fmt.Println("─────────────────────────────────────────────────")

	if len(events) == 0 {
		fmt.Println("No bookings found.")
		return nil
	}

	opts := DisplayOptionsFromConfig()
	lastDay := ""
	for _, event := range events {
		day := event.StartAt.Format("Monday, Jan 2")
		if day != lastDay {
			fmt.Printf("\n%s\n", day)
			lastDay = day
		}
		DisplayEvent(event, opts)
	}

	fmt.Println("\n─────────────────────────────────────────────────")
	fmt.Printf("Total: %d bookings\n", len(events))

	return nil
}

func filterByClient(events []core.Event, filter string) []core.Event {
	needle := strings.ToLower(strings.TrimSpace(filter))
	var out []core.Event
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.ClientName), needle) {
			out = append(out, ev)
		}
	}
	return out
}

func filterByOwner(events []core.Event, ownerID string) []core.Event {
	var out []core.Event
	for _, ev := range events {
		if ev.OwnerUserID == ownerID {
			out = append(out, ev)
		}
	}
	return out
}

// DisplayOptions controls how bookings are displayed
type DisplayOptions struct {
	ShowClient   bool
	ShowLocation bool
	ShowOwner    bool
	ShowNotes    bool
	ShowID       bool
	Indent       string
}

// DefaultDisplayOptions returns options for list view
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{
		ShowClient:   true,
		ShowLocation: true,
		ShowOwner:    false,
		ShowNotes:    true,
		ShowID:       false,
		Indent:       "  ",
	}
}

// DisplayOptionsFromConfig builds display options from viper config
func DisplayOptionsFromConfig() DisplayOptions {
	opts := DefaultDisplayOptions()

	if viper.IsSet("display.client") {
		opts.ShowClient = viper.GetBool("display.client")
	}
	if viper.IsSet("display.location") {
		opts.ShowLocation = viper.GetBool("display.location")
	}
	if viper.IsSet("display.owner") {
		opts.ShowOwner = viper.GetBool("display.owner")
	}
	if viper.IsSet("display.notes") {
		opts.ShowNotes = viper.GetBool("display.notes")
	}
	if viper.IsSet("display.id") {
		opts.ShowID = viper.GetBool("display.id")
	}

	return opts
}

// DisplayEvent prints one booking with the given options
func DisplayEvent(event core.Event, opts DisplayOptions) {
	indent := opts.Indent

	fmt.Printf("%s%s  %s\n", indent, formatWhen(event), event.Title)

	if opts.ShowClient && event.ClientName != "" {
		fmt.Printf("%s  Client:   %s\n", indent, event.ClientName)
	}
	if opts.ShowLocation && event.Location != "" {
		fmt.Printf("%s  Location: %s\n", indent, event.Location)
	}
	if opts.ShowOwner && event.OwnerUserID != "" {
		fmt.Printf("%s  Owner:    %s\n", indent, event.OwnerUserID)
	}
	if opts.ShowNotes && event.Description != "" {
		fmt.Printf("%s  Notes:    %s\n", indent, truncate(event.Description, 80))
	}
	if opts.ShowID {
		fmt.Printf("%s  ID:       %s\n", indent, event.ID)
	}
}

func formatWhen(event core.Event) string {
	if event.AllDay {
		lastDay := event.EndAt.AddDate(0, 0, -1)
		if lastDay.After(event.StartAt) {
			return fmt.Sprintf("all day through %s", lastDay.Format("Jan 2"))
		}
		return "all day          "
	}
	return fmt.Sprintf("%s – %s", event.StartAt.Format("15:04"), event.EndAt.Format("15:04"))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// parseDate parses a date string in various formats
// Supports: YYYY-MM-DD, "today", "tomorrow", "yesterday", weekday names
func parseDate(s string, defaultTime time.Time) (time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch s {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	weekdays := map[string]time.Weekday{
		"sunday": time.Sunday, "sun": time.Sunday,
		"monday": time.Monday, "mon": time.Monday,
		"tuesday": time.Tuesday, "tue": time.Tuesday,
		"wednesday": time.Wednesday, "wed": time.Wednesday,
		"thursday": time.Thursday, "thu": time.Thursday,
		"friday": time.Friday, "fri": time.Friday,
		"saturday": time.Saturday, "sat": time.Saturday,
	}

	// Handle "next <weekday>"
	dayName := strings.TrimPrefix(s, "next ")
	if wd, ok := weekdays[dayName]; ok {
		daysUntil := int(wd - today.Weekday())
		if daysUntil <= 0 {
			daysUntil += 7
		}
		return today.AddDate(0, 0, daysUntil), nil
	}

	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("01-02", s, now.Location()); err == nil {
		return t.AddDate(now.Year(), 0, 0), nil
	}
	if t, err := time.ParseInLocation("01/02", s, now.Location()); err == nil {
		return t.AddDate(now.Year(), 0, 0), nil
	}
	if t, err := time.ParseInLocation("01/02/2006", s, now.Location()); err == nil {
		return t, nil
	}

	return defaultTime, fmt.Errorf("unable to parse date: %s (use YYYY-MM-DD, 'today', 'tomorrow', or weekday names)", s)
}
