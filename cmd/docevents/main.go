// Command docevents inspects usage reports written by the docevents runtime.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "docevents",
		Short:         "Inspect docevents settings and usage reports",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "Settings file (.yaml, .yml, .json)")

	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(reportsCmd())
	return rootCmd
}
