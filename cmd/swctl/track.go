package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var trackCmd = &cobra.Command{
	Use:   "track [tracking-id]",
	Short: "Track a previously reported incident",
	Long: `Look up an incident by its tracking id. Without an argument the last
tracking id issued on this machine is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTrack,
}

func runTrack(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var trackingID int64
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid tracking id %q", args[0])
		}
		trackingID = id
	} else {
		id, ok := incidents.TrackingID()
		if !ok {
			return fmt.Errorf("no tracking id saved, pass one explicitly")
		}
		trackingID = id
	}

	incident := incidents.GetByTrackingID(ctx, trackingID)
	if incident == nil {
		return fmt.Errorf("no incident found for tracking id %d", trackingID)
	}

	printIncident(incident)
	return nil
}
