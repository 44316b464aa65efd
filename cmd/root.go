package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/danisty/LethalManager/internal/config"
	"github.com/danisty/LethalManager/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbosity   int
	profileFlag string

	rootCmd = &cobra.Command{
		Use:           "lethal-manager",
		Short:         "Mod manager for BepInEx games backed by Thunderstore",
		SilenceErrors: true,
		Long: `lethal-manager installs, toggles and removes Thunderstore mods in
isolated profiles of a BepInEx game.

Commands:
  catalog   Browse the package catalog (refresh, search, info, categories)
  mod       Manage the mods of a profile (install, uninstall, toggle, list, update)
  profile   Manage profiles (create, delete, list, export, import)
  config    Manage configuration

Shortcuts (aliases):
  install      = mod install
  uninstall    = mod uninstall
  search       = catalog search`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
		},
	}
)

// createAliasCommand creates a root-level alias that shares flags with a subcommand
func createAliasCommand(subCmd *cobra.Command, aliases []string) *cobra.Command {
	aliasCmd := &cobra.Command{
		Use:     subCmd.Use,
		Short:   subCmd.Short + " (alias)",
		Long:    subCmd.Long,
		Args:    subCmd.Args,
		Aliases: aliases,
		RunE:    subCmd.RunE,
	}
	subCmd.Flags().VisitAll(func(f *pflag.Flag) {
		aliasCmd.Flags().AddFlag(f)
	})
	return aliasCmd
}

// Execute runs the root command. Ctrl-C cancels the running operation.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "verbose output (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().StringVarP(&profileFlag, "profile", "p", "", "profile to operate on (default from config)")

	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(modCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(configCmd)
}

// RegisterAliases registers root-level aliases for common subcommands.
// Must be called after the subcommands are initialized.
func RegisterAliases() {
	rootCmd.AddCommand(createAliasCommand(modInstallCmd, nil))
	rootCmd.AddCommand(createAliasCommand(modUninstallCmd, []string{"remove", "rm"}))
	rootCmd.AddCommand(createAliasCommand(catalogSearchCmd, nil))
}

// currentProfile returns the --profile flag or the configured default
func currentProfile() string {
	if profileFlag != "" {
		return profileFlag
	}
	return config.Get().Profile.Default
}
