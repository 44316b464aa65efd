package cmd

import (
	"fmt"
	"runtime"

	"github.com/danisty/LethalManager/internal/config"
	"github.com/danisty/LethalManager/internal/version"
	"github.com/spf13/cobra"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and data locations",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if versionShort {
			fmt.Fprintln(out, version.Version)
			return
		}

		fmt.Fprintf(out, "lethal-manager %s (%s %s/%s)\n", version.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "  commit:   %s\n", version.GitCommit)
		fmt.Fprintf(out, "  built:    %s\n", version.BuildDate)
		fmt.Fprintf(out, "  profiles: %s\n", config.ProfilesDir())
		fmt.Fprintf(out, "  cache:    %s\n", config.CacheDir())
		fmt.Fprintf(out, "  catalog:  %s\n", config.Get().Catalog.URL)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version number")
	rootCmd.AddCommand(versionCmd)
}
