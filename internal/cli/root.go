// Package cli implements the curved command tree: the daemon, offline
// curve quoting, and a thin JSON-RPC client for a running node.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "curved",
	Short: "curved - bonding-curve token sale daemon",
	Long: `curved prices and settles fixed-supply token sales along an
algorithmic bonding curve and graduates each asset to a constant-liquidity
venue once its funding target is reached. The same binary runs the daemon
and the client commands that talk to it.`,
	Version: Version,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file path (TOML)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "force debug logging regardless of config")
}
