// Package main provides the command-line entry point for the résumé keyword analyzer.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "cv_analyzer",
	Short: "Résumé to job posting keyword analyzer",
	Long: `cv_analyzer compares a résumé (PDF or DOCX) against one or more job postings and
reports which of the postings' keywords the résumé covers, which are missing, and how to
improve ATS compatibility.

Configuration can be loaded from a JSON file using --config. Environment variables
override the file and command-line flags override both.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print progress and a readable summary")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
