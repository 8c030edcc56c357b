package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shenikar/securewatch_sims/internal/models"
	"github.com/spf13/cobra"
)

var (
	updateTitle       string
	updateDescription string
	updateLocation    string
	updateSeverity    string
	updateAssign      string
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of an incident",
	Long: `Apply a partial update to an incident. Only the flags that are set are
changed. When the server is unreachable the change is kept in the local
cache and the command reports the failure.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "new title")
	updateCmd.Flags().StringVar(&updateDescription, "description", "", "new description")
	updateCmd.Flags().StringVar(&updateLocation, "location", "", "new location")
	updateCmd.Flags().StringVar(&updateSeverity, "severity", "", "new severity (low|medium|high|critical)")
	updateCmd.Flags().StringVar(&updateAssign, "assign", "", "assignee name")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid incident id %q", args[0])
	}

	patch := models.IncidentPatch{}
	if cmd.Flags().Changed("title") {
		patch.Title = &updateTitle
	}
	if cmd.Flags().Changed("description") {
		patch.Description = &updateDescription
	}
	if cmd.Flags().Changed("location") {
		patch.Location = &updateLocation
	}
	if cmd.Flags().Changed("severity") {
		severity := models.Severity(updateSeverity)
		patch.Severity = &severity
	}
	if cmd.Flags().Changed("assign") {
		patch.AssignedTo = &updateAssign
	}

	incident, err := incidents.Update(ctx, id, patch)
	if err != nil {
		return err
	}

	printIncident(incident)
	return nil
}
