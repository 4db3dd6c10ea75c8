// Command watcher polls board listing pages, tracks which posts are new and
// downloads the galleries of matching posts.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

var flagWatchList string

var rootCmd = &cobra.Command{
	Use:           "watcher",
	Short:         "Board listing poller with gallery downloads",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a cycle now and then every CRAWL_INTERVAL until interrupted",
	RunE:  runScheduled,
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single cycle and exit",
	RunE:  runOnce,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "watcher %s (commit: %s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagWatchList, "watchlist", "", "watch list file or legacy directory (overrides WATCHLIST_PATH)")
	rootCmd.AddCommand(runCmd, onceCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
