package cmd

import (
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/danisty/LethalManager/internal/errors"
	"github.com/danisty/LethalManager/internal/i18n"
	"github.com/danisty/LethalManager/internal/profile"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage profiles",
	Long: `Manage profiles. Each profile is an isolated game folder layout with
its own set of mods.

Commands:
  create  Create a profile
  delete  Delete a profile and its mods
  list    List profiles
  path    Print the folder of a profile
  export  Write a profile's mod list as an r2x file
  import  Install the mods listed in an r2x file`,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a profile",
	Long: `Create an empty profile. The icon may be a file path, an http(s) URL
or a data URL.

Example:
  lethal-manager profile create speedrun
  lethal-manager profile create friends --icon ./friends.png`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileCreate,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a profile and its mods",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	RunE:  runProfileList,
}

var profilePathCmd = &cobra.Command{
	Use:   "path [name]",
	Short: "Print the folder of a profile",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfilePath,
}

var profileExportCmd = &cobra.Command{
	Use:   "export [name]",
	Short: "Write a profile's mod list as an r2x file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfileExport,
}

var profileImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Install the mods listed in an r2x file",
	Long: `Install every mod listed in an r2x file into a profile, then disable
the ones marked disabled. The profile is named after the file's
profileName unless --name is given, and is created when missing.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileImport,
}

var (
	profileIcon       string
	profileDeleteYes  bool
	profileExportFile string
	profileImportName string
)

func init() {
	profileCreateCmd.Flags().StringVar(&profileIcon, "icon", "", "icon image: file path, http(s) URL or data URL")
	profileDeleteCmd.Flags().BoolVarP(&profileDeleteYes, "yes", "y", false, "do not ask for confirmation")
	profileExportCmd.Flags().StringVarP(&profileExportFile, "output", "o", profile.ExportFileName, "output file, - for stdout")
	profileImportCmd.Flags().StringVar(&profileImportName, "name", "", "profile to import into")

	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profilePathCmd)
	profileCmd.AddCommand(profileExportCmd)
	profileCmd.AddCommand(profileImportCmd)
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	a := getApp()

	var icon *profile.Icon
	if profileIcon != "" {
		var err error
		if icon, err = loadIcon(cmd, profileIcon); err != nil {
			return err
		}
	}

	p, err := a.profiles.Create(args[0], icon)
	if err != nil {
		return err
	}
	fmt.Println(i18n.T("ProfileCreated", map[string]any{"Profile": p.Name, "Path": p.Folder}))
	return nil
}

// loadIcon reads an icon from a data URL, an http(s) URL or a file
func loadIcon(cmd *cobra.Command, src string) (*profile.Icon, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		return decodeDataURL(src)

	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		data, err := getApp().client.Fetch(cmd.Context(), src)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrIOFailure, "failed to download icon")
		}
		return &profile.Icon{Data: data, Ext: path.Ext(strings.SplitN(src, "?", 2)[0])}, nil

	default:
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrIOFailure, "failed to read icon %s", src)
		}
		return &profile.Icon{Data: data, Ext: filepath.Ext(src)}, nil
	}
}

// decodeDataURL decodes "data:image/png;base64,...."
func decodeDataURL(src string) (*profile.Icon, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, errors.New(errors.ErrInvalidInput, "icon data URL must be base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid icon data URL")
	}

	// image/png -> png, image/svg+xml -> svg
	_, sub, _ := strings.Cut(strings.TrimSuffix(header, ";base64"), "/")
	ext, _, _ := strings.Cut(sub, "+")
	return &profile.Icon{Data: data, Ext: ext}, nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	a := getApp()
	name := args[0]

	p, err := a.profiles.Get(name)
	if err != nil {
		return err
	}

	ok, err := confirm(profileDeleteYes, i18n.T("DeleteProfilePrompt", map[string]any{"Profile": name}), p.Folder)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println(i18n.T("Aborted", nil))
		return nil
	}

	if err := a.profiles.Delete(name); err != nil {
		return err
	}
	fmt.Println(i18n.T("ProfileDeleted", map[string]any{"Profile": name}))
	return nil
}

func runProfileList(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	a := getApp()

	profiles, err := a.profiles.List()
	if err != nil {
		return err
	}

	fmt.Println(i18n.T("ProfileListHeader", nil))
	fmt.Println(strings.Repeat("-", 40))
	if len(profiles) == 0 {
		fmt.Println(i18n.T("NoProfiles", nil))
		return nil
	}

	current := currentProfile()
	for _, p := range profiles {
		marker := "  "
		if p.Name == current {
			marker = "* "
		}
		fmt.Printf("%s%s  %s\n", marker, p.Name, i18n.T("ModCount", map[string]any{"Count": p.Mods}, p.Mods))
		fmt.Printf("    %s\n", p.Folder)
	}
	return nil
}

func runProfilePath(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	name := currentProfile()
	if len(args) > 0 {
		name = args[0]
	}
	p, err := getApp().profiles.Get(name)
	if err != nil {
		return err
	}
	fmt.Println(p.Folder)
	return nil
}

func runProfileExport(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	name := currentProfile()
	if len(args) > 0 {
		name = args[0]
	}

	if profileExportFile == "-" {
		return getApp().profiles.Export(name, os.Stdout)
	}

	f, err := os.Create(profileExportFile)
	if err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to create %s", profileExportFile)
	}
	if err := getApp().profiles.Export(name, f); err != nil {
		f.Close()
		os.Remove(profileExportFile)
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to write %s", profileExportFile)
	}

	fmt.Println(i18n.T("ProfileExported", map[string]any{"Profile": name, "Path": profileExportFile}))
	return nil
}

func runProfileImport(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	a := getApp()

	f, err := os.Open(args[0])
	if err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to open %s", args[0])
	}
	defer f.Close()

	export, err := profile.ReadExport(f)
	if err != nil {
		return err
	}

	name := export.ProfileName
	if profileImportName != "" {
		name = profileImportName
	}
	if err := profile.ValidateName(name); err != nil {
		return err
	}

	if err := a.loadCatalog(cmd.Context()); err != nil {
		return err
	}

	fmt.Println(i18n.T("ImportingProfile", map[string]any{"Profile": name, "Count": len(export.Mods)}, len(export.Mods)))
	if _, err := a.installer.Import(cmd.Context(), name, export, progress()); err != nil {
		return err
	}
	fmt.Println(i18n.T("ProfileImported", map[string]any{"Profile": name}))
	return nil
}
