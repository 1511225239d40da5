// Package main implements routecraftd, the reference daemon that loads a
// declarative route config and runs it to completion or until signalled.
// Patterned after a conventional cmd/root.go + cmd/daemon.go + main.go layout.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:     "routecraftd",
	Short:   "RouteCraft route runner daemon",
	Long:    `routecraftd loads a route config and runs every declared route until it drains or a signal arrives.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "routecraft.yaml", "route config file path")
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
