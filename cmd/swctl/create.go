package main

import (
	"context"
	"fmt"

	"github.com/shenikar/securewatch_sims/internal/models"
	"github.com/spf13/cobra"
)

var (
	createTitle       string
	createType        string
	createDescription string
	createLocation    string
	createLat         float64
	createLng         float64
	createSeverity    string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an incident as an authenticated operator",
	Long: `Create an incident through the authenticated API. Unlike public reports
this fails when the server rejects the request or is unreachable.`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createTitle, "title", "", "incident title (required)")
	createCmd.Flags().StringVar(&createType, "type", "Other", "incident type (Theft|Violence|Intrusion|Fire|Medical|Other)")
	createCmd.Flags().StringVar(&createDescription, "description", "", "incident description")
	createCmd.Flags().StringVar(&createLocation, "location", "", "incident location (required)")
	createCmd.Flags().Float64Var(&createLat, "lat", 0, "incident latitude")
	createCmd.Flags().Float64Var(&createLng, "lng", 0, "incident longitude")
	createCmd.Flags().StringVar(&createSeverity, "severity", "", "incident severity (low|medium|high|critical)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	draft := models.IncidentDraft{
		Title:       createTitle,
		Type:        models.IncidentType(createType),
		Description: createDescription,
		Location:    createLocation,
		Severity:    models.Severity(createSeverity),
	}
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
		draft.Latitude = &createLat
		draft.Longitude = &createLng
	}

	incident, err := incidents.Create(ctx, draft)
	if err != nil {
		return err
	}

	fmt.Printf("Incident %d created.\n", incident.ID)
	return nil
}
