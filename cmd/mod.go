package cmd

import (
	"fmt"
	"strings"

	"github.com/danisty/LethalManager/internal/i18n"
	"github.com/danisty/LethalManager/internal/outdated"
	"github.com/danisty/LethalManager/internal/profile"
	"github.com/spf13/cobra"
)

var modCmd = &cobra.Command{
	Use:   "mod",
	Short: "Manage the mods of a profile",
	Long: `Manage the mods installed in a profile. The profile is chosen with
--profile, or the configured default.

Commands:
  install    Install a mod and its dependencies
  uninstall  Remove a mod and the files it added
  toggle     Switch a mod between enabled and disabled
  enable     Enable a mod
  disable    Disable a mod
  list       List installed mods
  outdated   List mods with newer catalog versions
  update     Update installed mod(s)`,
}

var modInstallCmd = &cobra.Command{
	Use:   "install <Owner-Name[-x.y.z]>...",
	Short: "Install mods and their dependencies",
	Long: `Install mods from the catalog into a profile. Without a version the
latest one is installed. Dependencies that are missing or older than
required are installed first.

Example:
  lethal-manager install notnotnotswipez-MoreCompany
  lethal-manager install x753-More_Suits-1.4.3 -p speedrun`,
	Args: cobra.MinimumNArgs(1),
	RunE: runModInstall,
}

var modUninstallCmd = &cobra.Command{
	Use:     "uninstall <Owner-Name>...",
	Aliases: []string{"remove", "rm"},
	Short:   "Remove mods and the files they added",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runModUninstall,
}

var modToggleCmd = &cobra.Command{
	Use:   "toggle <Owner-Name>...",
	Short: "Switch mods between enabled and disabled",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runModToggle,
}

var modEnableCmd = &cobra.Command{
	Use:   "enable <Owner-Name>...",
	Short: "Enable mods",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setModsEnabled(cmd, args, true)
	},
}

var modDisableCmd = &cobra.Command{
	Use:   "disable <Owner-Name>...",
	Short: "Disable mods without removing them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setModsEnabled(cmd, args, false)
	},
}

var modListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed mods",
	Args:  cobra.NoArgs,
	RunE:  runModList,
}

var modOutdatedCmd = &cobra.Command{
	Use:   "outdated",
	Short: "List mods with newer catalog versions",
	Args:  cobra.NoArgs,
	RunE:  runModOutdated,
}

var modUpdateCmd = &cobra.Command{
	Use:   "update [Owner-Name]...",
	Short: "Update installed mod(s)",
	Long: `Update the given mods, or every mod with a newer catalog version.

Example:
  lethal-manager mod update                   # Update everything outdated
  lethal-manager mod update x753-More_Suits   # Update one mod`,
	RunE: runModUpdate,
}

var (
	modUninstallYes bool
	modListRescan   bool
)

func init() {
	modUninstallCmd.Flags().BoolVarP(&modUninstallYes, "yes", "y", false, "do not ask for confirmation")
	modListCmd.Flags().BoolVar(&modListRescan, "rescan", false, "rebuild the mod index from the plugins folder")

	modCmd.AddCommand(modInstallCmd)
	modCmd.AddCommand(modUninstallCmd)
	modCmd.AddCommand(modToggleCmd)
	modCmd.AddCommand(modEnableCmd)
	modCmd.AddCommand(modDisableCmd)
	modCmd.AddCommand(modListCmd)
	modCmd.AddCommand(modOutdatedCmd)
	modCmd.AddCommand(modUpdateCmd)
}

func runModInstall(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	a := getApp()
	if err := a.loadCatalog(cmd.Context()); err != nil {
		return err
	}

	profileName := currentProfile()
	if _, err := a.profiles.Ensure(profileName); err != nil {
		return err
	}

	for _, arg := range args {
		ref, err := resolveRef(a, arg)
		if err != nil {
			return err
		}

		fmt.Println(i18n.T("Installing", map[string]any{"Mod": ref, "Profile": profileName}))
		plan, err := a.installer.Install(cmd.Context(), profileName, ref, progress())
		if err != nil {
			return err
		}
		if len(plan) == 0 {
			fmt.Println(i18n.T("AlreadyInstalled", map[string]any{"Mod": ref}))
			continue
		}
		for _, v := range plan {
			fmt.Printf("  + %s\n", v.FullName)
		}
	}
	return nil
}

func runModUninstall(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	a := getApp()
	profileName := currentProfile()

	for _, name := range args {
		if _, err := a.profiles.Mod(profileName, name); err != nil {
			return err
		}
	}

	ok, err := confirm(modUninstallYes, i18n.T("UninstallPrompt", map[string]any{"Profile": profileName}), args...)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println(i18n.T("Aborted", nil))
		return nil
	}

	for _, name := range args {
		if err := a.profiles.DeleteMod(profileName, name); err != nil {
			return err
		}
		fmt.Println(i18n.T("Uninstalled", map[string]any{"Mod": name}))
	}
	return nil
}

func runModToggle(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	a := getApp()
	profileName := currentProfile()

	for _, name := range args {
		mod, err := a.profiles.Toggle(profileName, name)
		if err != nil {
			return err
		}
		printToggled(mod)
	}
	return nil
}

func setModsEnabled(cmd *cobra.Command, args []string, enabled bool) error {
	cmd.SilenceUsage = true
	a := getApp()
	profileName := currentProfile()

	for _, name := range args {
		mod, err := a.profiles.SetEnabled(profileName, name, enabled)
		if err != nil {
			return err
		}
		printToggled(mod)
	}
	return nil
}

func printToggled(mod *profile.InstalledMod) {
	if mod.Enabled {
		fmt.Println(i18n.T("ModEnabled", map[string]any{"Mod": mod.FullName}))
	} else {
		fmt.Println(i18n.T("ModDisabled", map[string]any{"Mod": mod.FullName}))
	}
}

func runModList(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	a := getApp()
	profileName := currentProfile()

	// Display names come from the catalog when it is available.
	if err := a.loadCatalog(cmd.Context()); err != nil {
		fmt.Printf("Warning: %v\n", err)
	}

	var mods []profile.InstalledMod
	var err error
	if modListRescan {
		mods, err = a.profiles.Scan(profileName)
	} else {
		mods, err = a.profiles.Mods(profileName)
	}
	if err != nil {
		return err
	}

	fmt.Println(i18n.T("ModListHeader", map[string]any{"Profile": profileName}))
	fmt.Println(strings.Repeat("-", 40))

	if len(mods) == 0 {
		fmt.Println(i18n.T("NoModsInstalled", nil))
		return nil
	}

	for _, m := range mods {
		state := "[*]"
		if !m.Enabled {
			state = "[ ]"
		}
		fmt.Printf("  %s %s (v%s)\n", state, m.FullName, m.VersionNumber)
		if m.Description != "" {
			fmt.Printf("      %s\n", m.Description)
		}
	}
	return nil
}

func runModOutdated(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	result, err := checkOutdated(cmd)
	if err != nil {
		return err
	}

	for _, e := range result.Errors {
		fmt.Printf("Warning: %v\n", e)
	}

	updates := result.Updates()
	if len(updates) == 0 {
		fmt.Println(i18n.T("AllUpToDate", nil))
		return nil
	}

	fmt.Println(i18n.T("UpdatesAvailable", map[string]any{"Count": len(updates)}, len(updates)))
	for _, u := range updates {
		fmt.Printf("  %s: %s -> %s\n", u.Name, u.Current, u.Latest)
	}
	return nil
}

func checkOutdated(cmd *cobra.Command) (*outdated.Result, error) {
	a := getApp()
	if err := a.loadCatalog(cmd.Context()); err != nil {
		return nil, err
	}
	mods, err := a.profiles.Mods(currentProfile())
	if err != nil {
		return nil, err
	}
	return outdated.Check(mods, a.index.Snapshot()), nil
}

func runModUpdate(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	a := getApp()
	profileName := currentProfile()

	names := args
	if len(names) == 0 {
		result, err := checkOutdated(cmd)
		if err != nil {
			return err
		}
		for _, u := range result.Updates() {
			names = append(names, u.Name)
		}
	} else if err := a.loadCatalog(cmd.Context()); err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Println(i18n.T("AllUpToDate", nil))
		return nil
	}

	for _, name := range names {
		fmt.Println(i18n.T("Updating", map[string]any{"Mod": name}))
		plan, err := a.installer.Update(cmd.Context(), profileName, name, progress())
		if err != nil {
			return err
		}
		for _, v := range plan {
			fmt.Printf("  + %s\n", v.FullName)
		}
	}
	return nil
}
