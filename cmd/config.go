package cmd

import (
	"fmt"

	"github.com/danisty/LethalManager/internal/config"
	"github.com/danisty/LethalManager/internal/i18n"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage lethal-manager configuration",
	Long: `Manage lethal-manager configuration settings.

Example:
  lethal-manager config show
  lethal-manager config set catalog.maxAge 30m`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Available keys:
  locale           - Language setting
                     Values: auto, en-US, ko-KR, etc.
  catalog.url      - Package listing endpoint
  catalog.maxAge   - How long a downloaded catalog is reused (e.g. 1h, 30m)
  profile.default  - Profile used when --profile is not given
  dataDir          - Folder holding the profiles (empty for the default)

Example:
  lethal-manager config set locale ko-KR
  lethal-manager config set profile.default speedrun`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	fmt.Println(i18n.T("ConfigHeader", nil))
	fmt.Println("----------------------------------------")
	fmt.Printf("  locale: %s\n", cfg.Locale)
	fmt.Printf("  catalog.url: %s\n", cfg.Catalog.URL)
	fmt.Printf("  catalog.maxAge: %s\n", cfg.Catalog.MaxAge)
	fmt.Printf("  profile.default: %s\n", cfg.Profile.Default)
	fmt.Printf("  dataDir: %s\n", cfg.DataDir)

	fmt.Println()
	fmt.Printf("  config:   %s\n", config.ConfigPath())
	fmt.Printf("  profiles: %s\n", config.ProfilesDir())
	fmt.Printf("  cache:    %s\n", config.CacheDir())

	fmt.Println()
	if cfg.Locale == "auto" {
		fmt.Println(i18n.T("LocaleAuto", nil))
	} else {
		fmt.Println(i18n.T("LocaleFixed", map[string]any{"Locale": cfg.Locale}))
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	key, value := args[0], args[1]

	cfg := config.Get()
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Println(i18n.T("ConfigSet", map[string]any{"Key": key, "Value": value}))
	if key == "locale" && value != "auto" {
		i18n.SetLocale(value)
	}
	return nil
}
