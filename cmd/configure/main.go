package main

import (
	"fmt"
	"os"

	"github.com/ledgerly/compliance-api/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "compliance-configure",
		Short: "Configuration tool for the CA Compliance API",
		Long:  "CLI tool for seeding the admin account and managing runtime settings",
	}

	rootCmd.AddCommand(commands.NewSeedAdminCmd())
	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewRateLimitCmd())
	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
