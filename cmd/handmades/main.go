package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "handmades",
	Short: "Inventory and customer tracker for a handmade crafts business",
	Long: `handmades serves the inventory, customer, sales, gallery and ideas API
together with the browser client, and takes backups of every collection.

Configuration is read from the environment, optionally from a .env file.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
