// Package main provides the entry point for the jobharvest CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobharvest",
	Short: "Extract job postings from company careers pages",
	Long:  "jobharvest extracts structured job postings from arbitrary careers pages, detecting known applicant tracking systems and falling back to an adaptive discovery pipeline for everything else.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
