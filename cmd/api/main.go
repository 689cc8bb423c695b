package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/crmmini/core/cmd/api/commands"
)

// @title CRM Mini API
// @version 1.0
// @description Create, read, update and delete customer records stored in a JSON file

// @host localhost:5000
// @BasePath /

func main() {
	rootCmd := &cobra.Command{
		Use:          "crm",
		Short:        "CRM Mini API Server",
		Long:         `CRM Mini exposes a single collection of customer records over HTTP, persisted as a JSON array on disk.`,
		SilenceUsage: true,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewCustomerCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
