package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard statistics",
	Long: `Print aggregated incident statistics. Falls back to aggregating the
local collection when the server is unreachable.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	stats := incidents.DashboardStats(ctx)

	fmt.Printf("Total:          %d\n", stats.Total)
	fmt.Printf("Open:           %d\n", stats.Open)
	fmt.Printf("Investigating:  %d\n", stats.Investigating)
	fmt.Printf("Resolved:       %d\n", stats.Resolved)
	fmt.Printf("Last 24 hours:  %d\n", stats.Last24Hours)

	if len(stats.BySeverity) > 0 {
		fmt.Println("\nBy severity:")
		for severity, count := range stats.BySeverity {
			fmt.Printf("  %-14s %d\n", severity, count)
		}
	}
	if len(stats.ByType) > 0 {
		fmt.Println("\nBy type:")
		for incidentType, count := range stats.ByType {
			fmt.Printf("  %-14s %d\n", incidentType, count)
		}
	}
	return nil
}
