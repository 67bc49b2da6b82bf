package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gotrackarr",
	Short: "Watch-progress tracker with release notifications",
	Long: `gotrackarr tracks per-title watch progress (category, rating,
review, watched episodes) and periodically reconciles tracked titles
against the TMDB catalog, notifying once per new episode or theatrical
release.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
