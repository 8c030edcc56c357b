package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shenikar/securewatch_sims/internal/models"
)

// printIncidentTable печатает коллекцию в виде таблицы
func printIncidentTable(incidents []models.Incident) {
	if len(incidents) == 0 {
		fmt.Println("No incidents.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tSEVERITY\tSTATUS\tLOCATION\tASSIGNED")
	for _, inc := range incidents {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			inc.ID, inc.Title, inc.Type, inc.Severity, inc.Status, inc.Location, inc.AssignedTo)
	}
	w.Flush()
}

// printIncident печатает одну запись целиком
func printIncident(inc *models.Incident) {
	fmt.Printf("ID:          %d\n", inc.ID)
	if inc.CorrelationID != "" {
		fmt.Printf("Correlation: %s\n", inc.CorrelationID)
	}
	fmt.Printf("Title:       %s\n", inc.Title)
	fmt.Printf("Type:        %s\n", inc.Type)
	if inc.Description != "" {
		fmt.Printf("Description: %s\n", inc.Description)
	}
	fmt.Printf("Location:    %s\n", inc.Location)
	if inc.HasCoordinates() {
		fmt.Printf("Coordinates: %.4f, %.4f\n", *inc.Latitude, *inc.Longitude)
	}
	fmt.Printf("Severity:    %s\n", inc.Severity)
	fmt.Printf("Status:      %s\n", inc.Status)
	fmt.Printf("Reporter:    %s\n", inc.Reporter)
	fmt.Printf("Assigned to: %s\n", inc.AssignedTo)
	fmt.Printf("Created:     %s\n", inc.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated:     %s\n", inc.UpdatedAt.Format("2006-01-02 15:04:05"))
}
