package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a single incident",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid incident id %q", args[0])
	}

	incident := incidents.GetByID(ctx, id)
	if incident == nil {
		return fmt.Errorf("incident %d not found", id)
	}

	printIncident(incident)
	return nil
}
