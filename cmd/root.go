/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shebashongskar",
	Short: "Citizen complaint reporting backend",
	Long: `Backend API for the ShebaShongskar citizen complaint platform.
Citizens register and file categorized issue reports with photo evidence;
administrators triage reports and respond over the built-in chat.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
