package main

import (
	"context"
	"fmt"

	"github.com/shenikar/securewatch_sims/internal/models"
	"github.com/spf13/cobra"
)

var (
	reportTitle       string
	reportType        string
	reportDescription string
	reportLocation    string
	reportLat         float64
	reportLng         float64
	reportSeverity    string
	reportName        string
	reportPhone       string
	reportEmail       string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report an incident without authentication",
	Long: `Submit a public incident report. The report is accepted even when the
server is unreachable: it is stored locally and a tracking id is issued.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportTitle, "title", "", "incident title (required)")
	reportCmd.Flags().StringVar(&reportType, "type", "Other", "incident type (Theft|Violence|Intrusion|Fire|Medical|Other)")
	reportCmd.Flags().StringVar(&reportDescription, "description", "", "incident description")
	reportCmd.Flags().StringVar(&reportLocation, "location", "", "incident location (required)")
	reportCmd.Flags().Float64Var(&reportLat, "lat", 0, "incident latitude")
	reportCmd.Flags().Float64Var(&reportLng, "lng", 0, "incident longitude")
	reportCmd.Flags().StringVar(&reportSeverity, "severity", "", "incident severity (low|medium|high|critical)")
	reportCmd.Flags().StringVar(&reportName, "name", "", "reporter name")
	reportCmd.Flags().StringVar(&reportPhone, "phone", "", "reporter phone")
	reportCmd.Flags().StringVar(&reportEmail, "email", "", "reporter email")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	draft := models.IncidentDraft{
		Title:         reportTitle,
		Type:          models.IncidentType(reportType),
		Description:   reportDescription,
		Location:      reportLocation,
		Severity:      models.Severity(reportSeverity),
		Reporter:      reportName,
		ReporterPhone: reportPhone,
		ReporterEmail: reportEmail,
	}
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
		draft.Latitude = &reportLat
		draft.Longitude = &reportLng
	}

	result, err := incidents.ReportPublic(ctx, draft)
	if err != nil {
		return err
	}

	fmt.Printf("Report accepted. Tracking id: %d\n", result.TrackingID)
	fmt.Printf("Check progress with: swctl track %d\n", result.TrackingID)
	return nil
}
