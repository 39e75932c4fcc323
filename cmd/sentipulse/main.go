package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sentipulse",
		Short: "Collect tweets, enrich them with sentiment, and serve daily aggregates",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(serveCmd())
	root.AddCommand(collectCmd())
	root.AddCommand(processCmd())
	root.AddCommand(statsCmd())

	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func collectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Run one collection pass over the configured time range",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect()
		},
	}
}

func processCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Enrich the pending backlog with sentiment classifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess()
		},
	}
}

func statsCmd() *cobra.Command {
	var (
		startDate  string
		endDate    string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print daily sentiment aggregates for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(startDate, endDate, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD, default: start)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
