package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:     "shizuku",
	Short:   "shizuku: a local mindfulness journal with AI analysis",
	Version: version,
	Long: `shizuku is a local-first mindfulness journal. Entries are stored in
SQLite on your machine; AI analysis (summaries, emotion labels, mood
trends, personality insights) runs through the Gemini API and degrades
gracefully when the provider is unreachable.`,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)

	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(chatCmd)

	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
