package cmd

import (
	"fmt"
	"strings"

	"github.com/danisty/LethalManager/internal/catalog"
	"github.com/danisty/LethalManager/internal/errors"
	"github.com/danisty/LethalManager/internal/i18n"
	"github.com/danisty/LethalManager/internal/modversion"
	"github.com/danisty/LethalManager/internal/search"
	"github.com/danisty/LethalManager/internal/tui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse the package catalog",
	Long: `Browse the Thunderstore package catalog.

Commands:
  refresh     Download the latest catalog
  search      Search for mods
  info        Show a package and its versions
  categories  List the category labels`,
}

var catalogRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Download the latest catalog",
	Args:  cobra.NoArgs,
	RunE:  runCatalogRefresh,
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for mods in the catalog",
	Long: `Search the catalog by name and description.

The query is a case-insensitive regular expression; close spellings of
plain words also match. Without a query on a terminal, opens an
interactive finder where mods can be picked for install or removal.

Example:
  lethal-manager search                         # Interactive finder
  lethal-manager search "more suits" --sort downloads
  lethal-manager search --modpacks exclude --category Suits --page 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalogSearch,
}

var catalogInfoCmd = &cobra.Command{
	Use:   "info <Owner-Name>",
	Short: "Show a package and its versions",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogInfo,
}

var catalogCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the category labels",
	Args:  cobra.NoArgs,
	RunE:  runCatalogCategories,
}

var (
	searchPage       int
	searchSort       string
	searchMods       string
	searchModpacks   string
	searchCategories []string
)

func init() {
	catalogSearchCmd.Flags().IntVar(&searchPage, "page", 1, "result page, starting at 1")
	catalogSearchCmd.Flags().StringVarP(&searchSort, "sort", "s", "", "sort by rating, updated, created, downloads or name")
	catalogSearchCmd.Flags().StringVar(&searchMods, "mods", "any", "packages labeled Mods: require, exclude or any")
	catalogSearchCmd.Flags().StringVar(&searchModpacks, "modpacks", "any", "packages labeled Modpacks: require, exclude or any")
	catalogSearchCmd.Flags().StringSliceVarP(&searchCategories, "category", "c", nil, "packages carrying any of the given categories")

	catalogCmd.AddCommand(catalogRefreshCmd)
	catalogCmd.AddCommand(catalogSearchCmd)
	catalogCmd.AddCommand(catalogInfoCmd)
	catalogCmd.AddCommand(catalogCategoriesCmd)
}

func runCatalogRefresh(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	a := getApp()

	fmt.Println(i18n.T("CatalogRefreshing", nil))
	snap, err := a.index.Refresh(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println(i18n.T("CatalogRefreshed", map[string]any{"Count": snap.Len()}, snap.Len()))
	return nil
}

func runCatalogSearch(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	a := getApp()
	if err := a.loadCatalog(cmd.Context()); err != nil {
		return err
	}

	query, err := buildQuery(args)
	if err != nil {
		return err
	}

	if len(args) == 0 && isTerminal() && !cmd.Flags().Changed("page") {
		return runInteractiveSearch(cmd, query)
	}

	results, err := a.engine.Search(query)
	if err != nil {
		return err
	}

	if len(results.Mods) == 0 {
		fmt.Println(i18n.T("NoResults", map[string]any{"Query": query.Text}))
		return nil
	}

	fmt.Println(i18n.T("SearchResults", map[string]any{
		"Count": results.Total,
		"Page":  searchPage,
		"Pages": max((results.Total+search.PageSize-1)/search.PageSize, 1),
	}, results.Total))
	fmt.Println()

	for _, p := range results.Mods {
		printPackageLine(&p)
	}
	return nil
}

func buildQuery(args []string) (search.Query, error) {
	q := search.Query{Page: searchPage - 1, Categories: searchCategories}
	if len(args) > 0 {
		q.Text = args[0]
	}

	switch key := search.SortKey(searchSort); key {
	case search.SortDefault, search.SortRating, search.SortUpdated, search.SortCreated, search.SortDownloads, search.SortName:
		q.Sort = key
	default:
		return q, errors.Newf(errors.ErrInvalidInput, "unknown sort key %q", searchSort).WithDetail("sort", searchSort)
	}

	var err error
	if q.Types.Mods, err = parseTypeState("mods", searchMods); err != nil {
		return q, err
	}
	if q.Types.Modpacks, err = parseTypeState("modpacks", searchModpacks); err != nil {
		return q, err
	}
	return q, nil
}

func parseTypeState(flag, value string) (search.TypeState, error) {
	switch strings.ToLower(value) {
	case "", "any":
		return search.Irrelevant, nil
	case "require", "required":
		return search.Required, nil
	case "exclude", "excluded":
		return search.Excluded, nil
	}
	return search.Irrelevant, errors.Newf(errors.ErrInvalidInput, "invalid --%s value %q: use require, exclude or any", flag, value)
}

func printPackageLine(p *catalog.Package) {
	version := "?"
	var downloads int64
	description := ""
	if latest, ok := p.Latest(); ok {
		version = latest.VersionNumber
		downloads = latest.Downloads
		description = latest.Description
	}

	fmt.Printf("  %s (v%s)  ★%d  ⇩%d\n", p.FullName, version, p.RatingScore, downloads)
	if description != "" {
		fmt.Printf("    %s\n", description)
	}
	if len(p.Categories) > 0 {
		fmt.Printf("    %s: %s\n", i18n.T("LabelCategories", nil), strings.Join(p.Categories, ", "))
	}
}

// runInteractiveSearch opens the finder over the whole catalog, filtered by
// base and the typed text, and applies the confirmed installs and removals to
// the current profile.
func runInteractiveSearch(cmd *cobra.Command, base search.Query) error {
	a := getApp()
	profileName := currentProfile()
	if _, err := a.profiles.Ensure(profileName); err != nil {
		return err
	}
	mods, err := a.profiles.Mods(profileName)
	if err != nil {
		return err
	}
	installed := make(map[string]string, len(mods))
	for _, m := range mods {
		installed[m.FullName] = m.VersionNumber
	}

	snap := a.index.Snapshot()
	items := make([]tui.ModItem, 0, snap.Len())
	for _, p := range snap.Packages {
		if p.FullName == catalog.BootstrapPackage {
			continue
		}
		items = append(items, tui.ModItem{Package: p, Installed: installed[p.FullName]})
	}
	log.Debug().Int("items", len(items)).Str("profile", profileName).Msg("Opening finder")

	result, err := tui.RunModFinder(items, a.engine, base)
	if err != nil {
		return err
	}
	if result.Cancelled {
		fmt.Println(i18n.T("SearchCancelled", nil))
		return nil
	}
	if len(result.ToInstall) == 0 && len(result.ToUninstall) == 0 {
		fmt.Println(i18n.T("NoChanges", nil))
		return nil
	}

	if len(result.ToInstall) > 0 {
		fmt.Println()
		fmt.Println(i18n.T("InstallingMods", map[string]any{"Count": len(result.ToInstall)}, len(result.ToInstall)))
		for _, item := range result.ToInstall {
			latest, ok := item.Package.Latest()
			if !ok {
				continue
			}
			if _, err := a.installer.Install(cmd.Context(), profileName, latest.FullName, progress()); err != nil {
				fmt.Printf("  %s: %v\n", i18n.T("InstallFailed", map[string]any{"Mod": item.Package.FullName}), err)
			}
		}
	}

	if len(result.ToUninstall) > 0 {
		fmt.Println()
		fmt.Println(i18n.T("UninstallingMods", map[string]any{"Count": len(result.ToUninstall)}, len(result.ToUninstall)))
		for _, item := range result.ToUninstall {
			if err := a.profiles.DeleteMod(profileName, item.Package.FullName); err != nil {
				fmt.Printf("  %s: %v\n", i18n.T("UninstallFailed", map[string]any{"Mod": item.Package.FullName}), err)
				continue
			}
			fmt.Printf("  - %s\n", item.Package.FullName)
		}
	}

	fmt.Println()
	return nil
}

func runCatalogInfo(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	a := getApp()
	if err := a.loadCatalog(cmd.Context()); err != nil {
		return err
	}

	p, ok := a.index.Package(args[0])
	if !ok {
		return errors.New(errors.ErrNotFound, i18n.T("PackageNotFound", map[string]any{"Mod": args[0]}))
	}

	fmt.Printf("%s\n", p.FullName)
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("  %s: %s\n", i18n.T("LabelAuthor", nil), p.Owner)
	fmt.Printf("  %s: %d\n", i18n.T("LabelRating", nil), p.RatingScore)
	fmt.Printf("  URL: %s\n", p.PackageURL)
	if len(p.Categories) > 0 {
		fmt.Printf("  %s: %s\n", i18n.T("LabelCategories", nil), strings.Join(p.Categories, ", "))
	}
	if p.IsDeprecated {
		fmt.Printf("  %s\n", i18n.T("StatusDeprecated", nil))
	}
	if latest, ok := p.Latest(); ok {
		fmt.Printf("\n  %s\n", latest.Description)
		if len(latest.Dependencies) > 0 {
			fmt.Printf("\n  %s:\n", i18n.T("LabelDependencies", nil))
			for _, d := range latest.Dependencies {
				fmt.Printf("    - %s\n", d)
			}
		}
	}

	fmt.Printf("\n  %s:\n", i18n.T("LabelVersions", nil))
	for _, v := range p.Versions {
		fmt.Printf("    %-12s %s  ⇩%d\n", v.VersionNumber, v.DateCreated.Format("2006-01-02"), v.Downloads)
	}
	return nil
}

func runCatalogCategories(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	a := getApp()
	if err := a.loadCatalog(cmd.Context()); err != nil {
		return err
	}
	for _, c := range a.index.Snapshot().Categories {
		fmt.Println(c)
	}
	return nil
}

// resolveRef turns "Owner-Name" or "Owner-Name-x.y.z" into a full reference,
// using the catalog's latest version when none is given.
func resolveRef(a *application, arg string) (string, error) {
	if name, version, err := modversion.ParseRef(arg); err == nil {
		if _, err := modversion.Parse(version); err == nil {
			return modversion.FormatRef(name, version), nil
		}
	}

	p, ok := a.index.Package(arg)
	if !ok {
		return "", errors.New(errors.ErrNotFound, i18n.T("PackageNotFound", map[string]any{"Mod": arg}))
	}
	latest, ok := p.Latest()
	if !ok {
		return "", errors.New(errors.ErrNotFound, i18n.T("PackageNotFound", map[string]any{"Mod": arg}))
	}
	return latest.FullName, nil
}
