// Command shoplist runs the household shopping-list server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// configFile is set by the --config flag.
var configFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shoplist",
	Short: "Household shopping lists with a product catalog and purchase history",
	Long: `shoplist serves a JSON API for a shared household shopping list:
a bilingual product catalog, active lists with a shop mode, and an archive
of completed trips.

Configuration comes from shoplist.yaml, a .env file and SHOPLIST_*
environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./shoplist.yaml if present)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "shoplist %s\n", version)
	},
}
