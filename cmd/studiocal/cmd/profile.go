package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage configuration profiles",
	Long: `Manage configuration profiles for different studios and CRM accounts.

Profiles allow you to quickly switch between CRM endpoints and default
listing windows.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show profile settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfileShow,
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileAdd,
}

var profileSetDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSetDefault,
}

var profileEditCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Edit a profile's settings",
	Long: `Edit a profile's settings using flags.

Example:
  studiocal profile edit studio-a --days=14
  studiocal profile edit studio-b --base-url=https://crm.studio-b.example`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileEdit,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileSetDefaultCmd)
	profileCmd.AddCommand(profileEditCmd)

	for _, c := range []*cobra.Command{profileAddCmd, profileEditCmd} {
		c.Flags().String("base-url", "", "CRM base URL")
		c.Flags().String("token", "", "CRM API token")
		c.Flags().Int("days", 7, "Number of days to list")
		c.Flags().String("from", "", "Default start date")
		c.Flags().String("to", "", "Default end date")
		c.Flags().String("client", "", "Default client filter")
		c.Flags().Bool("mine", false, "Only show own bookings")
		c.Flags().Bool("show-client", true, "Show client name")
		c.Flags().Bool("show-location", true, "Show location")
		c.Flags().Bool("show-owner", false, "Show owner")
		c.Flags().Bool("show-notes", true, "Show notes")
		c.Flags().Bool("show-id", false, "Show booking ID")
	}
}

func runProfileList(cmd *cobra.Command, args []string) error {
	profiles := viper.GetStringMap("profiles")
	defaultProfile := viper.GetString("default_profile")

	if len(profiles) == 0 {
		fmt.Println("No profiles configured.")
		fmt.Println("\nAdd one with: studiocal profile add <name> --base-url=<url>")
		return nil
	}

	fmt.Println("Available profiles:")
	fmt.Println("─────────────────────────────────────────────────")

	for name := range profiles {
		marker := "  "
		if name == defaultProfile {
			marker = "* "
		}
		fmt.Printf("%s%s\n", marker, name)
	}

	fmt.Println("─────────────────────────────────────────────────")
	if defaultProfile != "" {
		fmt.Printf("Default: %s\n", defaultProfile)
	}
	fmt.Println("\nUse 'studiocal profile show <name>' for details")

	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	var profileName string
	if len(args) > 0 {
		profileName = args[0]
	} else {
		profileName = viper.GetString("default_profile")
		if profileName == "" {
			return fmt.Errorf("no profile specified and no default profile set")
		}
	}

	profileKey := "profiles." + profileName
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found", profileName)
	}

	settings := viper.GetStringMap(profileKey)

	fmt.Printf("Profile: %s\n", profileName)
	if profileName == viper.GetString("default_profile") {
		fmt.Println("(default)")
	}
	fmt.Println("─────────────────────────────────────────────────")

	fmt.Println("\nConnection:")
	printSetting(settings, "base_url", "base-url")
	printSetting(settings, "api_token", "token")

	fmt.Println("\nWindow:")
	printSetting(settings, "days", "days")
	printSetting(settings, "from", "from")
	printSetting(settings, "to", "to")

	fmt.Println("\nFilters:")
	printSetting(settings, "client", "client")
	printSetting(settings, "mine", "mine")

	if display, ok := settings["display"].(map[string]interface{}); ok && len(display) > 0 {
		fmt.Println("\nDisplay:")
		printSetting(display, "client", "show_client")
		printSetting(display, "location", "show_location")
		printSetting(display, "owner", "show_owner")
		printSetting(display, "notes", "show_notes")
		printSetting(display, "id", "show_id")
	}

	fmt.Println()
	return nil
}

func printSetting(settings map[string]interface{}, key, displayKey string) {
	if val, ok := settings[key]; ok {
		fmt.Printf("  %s: %v\n", displayKey, val)
	}
}

// profileFromFlags collects changed flags into profile keys. Starting from an
// existing profile map keeps unset keys intact for edit.
func profileFromFlags(cmd *cobra.Command, existing map[string]interface{}) (map[string]interface{}, bool) {
	profile := make(map[string]interface{})
	for k, v := range existing {
		profile[k] = v
	}

	changed := false
	stringFlags := map[string]string{
		"base-url": "base_url",
		"token":    "api_token",
		"from":     "from",
		"to":       "to",
		"client":   "client",
	}
	for flag, key := range stringFlags {
		if cmd.Flags().Changed(flag) {
			val, _ := cmd.Flags().GetString(flag)
			profile[key] = val
			changed = true
		}
	}
	if cmd.Flags().Changed("days") {
		val, _ := cmd.Flags().GetInt("days")
		profile["days"] = val
		changed = true
	}
	if cmd.Flags().Changed("mine") {
		val, _ := cmd.Flags().GetBool("mine")
		profile["mine"] = val
		changed = true
	}

	displayFlags := map[string]string{
		"show-client":   "client",
		"show-location": "location",
		"show-owner":    "owner",
		"show-notes":    "notes",
		"show-id":       "id",
	}
	var display map[string]interface{}
	if existingDisplay, ok := profile["display"].(map[string]interface{}); ok {
		display = existingDisplay
	} else {
		display = make(map[string]interface{})
	}
	for flag, key := range displayFlags {
		if cmd.Flags().Changed(flag) {
			val, _ := cmd.Flags().GetBool(flag)
			display[key] = val
			changed = true
		}
	}
	if len(display) > 0 {
		profile["display"] = display
	}

	return profile, changed
}

func runProfileAdd(cmd *cobra.Command, args []string) error {
	profileName := args[0]

	profileKey := "profiles." + profileName
	if viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' already exists. Use 'studiocal profile edit %s' to modify it", profileName, profileName)
	}

	profile, _ := profileFromFlags(cmd, nil)

	if err := saveProfileToConfig(profileName, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Printf("✓ Profile '%s' created\n", profileName)
	fmt.Printf("\nUse it with: studiocal -p %s\n", profileName)
	fmt.Printf("Set as default: studiocal profile default %s\n", profileName)

	return nil
}

func runProfileSetDefault(cmd *cobra.Command, args []string) error {
	profileName := args[0]

	profileKey := "profiles." + profileName
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found", profileName)
	}

	if err := setDefaultProfileInConfig(profileName); err != nil {
		return fmt.Errorf("failed to set default profile: %w", err)
	}

	fmt.Printf("✓ Default profile set to '%s'\n", profileName)
	return nil
}

func runProfileEdit(cmd *cobra.Command, args []string) error {
	profileName := args[0]

	profileKey := "profiles." + profileName
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found. Use 'studiocal profile add %s' to create it", profileName, profileName)
	}

	profile, changed := profileFromFlags(cmd, viper.GetStringMap(profileKey))
	if !changed {
		fmt.Println("No changes specified. Use flags to update settings:")
		fmt.Println("  studiocal profile edit", profileName, "--days=14")
		return nil
	}

	if err := saveProfileToConfig(profileName, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Printf("✓ Profile '%s' updated\n", profileName)
	return nil
}

// Config file manipulation functions

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "studiocal", "config.yaml")
}

func readConfigFile() (map[string]interface{}, error) {
	configPath := getConfigPath()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]interface{}), nil
		}
		return nil, err
	}

	var config map[string]interface{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if config == nil {
		config = make(map[string]interface{})
	}

	return config, nil
}

func writeConfigFile(config map[string]interface{}) error {
	configPath := getConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

func saveProfileToConfig(name string, profile map[string]interface{}) error {
	config, err := readConfigFile()
	if err != nil {
		return err
	}

	profiles, ok := config["profiles"].(map[string]interface{})
	if !ok {
		profiles = make(map[string]interface{})
	}

	profiles[name] = profile
	config["profiles"] = profiles

	return writeConfigFile(config)
}

func setDefaultProfileInConfig(name string) error {
	config, err := readConfigFile()
	if err != nil {
		return err
	}

	config["default_profile"] = name

	return writeConfigFile(config)
}
