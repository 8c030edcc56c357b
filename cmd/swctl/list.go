package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	listStatus   string
	listSeverity string
	listType     string
	listSearch   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List incidents",
	Long: `Refresh the incident collection from the server and print it. When the
server is unreachable the last known collection from the local cache is shown.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	listCmd.Flags().StringVar(&listSeverity, "severity", "", "filter by severity")
	listCmd.Flags().StringVar(&listType, "type", "", "filter by type")
	listCmd.Flags().StringVar(&listSearch, "search", "", "search in title, description and location")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	filters := map[string]string{}
	if listStatus != "" {
		filters["status"] = listStatus
	}
	if listSeverity != "" {
		filters["severity"] = listSeverity
	}
	if listType != "" {
		filters["type"] = listType
	}
	if listSearch != "" {
		filters["search"] = listSearch
	}

	collection := incidents.Refresh(ctx, filters)
	printIncidentTable(collection)

	if err := incidents.LastError(); err != nil {
		fmt.Printf("\nServer unreachable, showing cached data: %v\n", err)
	}
	return nil
}
