package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shenikar/securewatch_sims/internal/models"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <id> <open|investigating|resolved>",
	Short: "Change the status of an incident",
	Args:  cobra.ExactArgs(2),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid incident id %q", args[0])
	}

	incident, err := incidents.UpdateStatus(ctx, id, models.Status(args[1]))
	if err != nil {
		return err
	}

	fmt.Printf("Incident %d is now %s.\n", incident.ID, incident.Status)
	return nil
}
