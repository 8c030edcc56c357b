package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shenikar/securewatch_sims/internal/models"
	"github.com/spf13/cobra"
)

var watchLive bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the incident collection for changes",
	Long: `Keep the incident collection synchronized in the background and print
it whenever it changes. Requires an API token; with --live, lifecycle
events are also streamed over websocket as they happen.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchLive, "live", false, "stream lifecycle events over websocket")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if cfg.APIToken == "" {
		return fmt.Errorf("watch requires an API token, set API_TOKEN")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	unsubscribe := incidents.Subscribe(func(collection []models.Incident) {
		fmt.Printf("--- %s ---\n", time.Now().Format("15:04:05"))
		printIncidentTable(collection)
		if err := incidents.LastError(); err != nil {
			fmt.Printf("Server unreachable, showing cached data: %v\n", err)
		}
	})
	defer unsubscribe()

	incidents.StartAutoRefresh(ctx)
	defer incidents.StopAutoRefresh()

	if watchLive {
		events, err := api.Live(ctx)
		if err != nil {
			fmt.Printf("Live stream unavailable: %v\n", err)
		} else {
			go func() {
				for event := range events {
					if event.Incident != nil {
						fmt.Printf("[%s] %s: %s\n", event.Timestamp.Format("15:04:05"), event.Type, event.Incident.Title)
					} else {
						fmt.Printf("[%s] %s\n", event.Timestamp.Format("15:04:05"), event.Type)
					}
				}
			}()
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Stopping watch.")
	return nil
}
