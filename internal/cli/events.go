package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	seedUser string
	seedBase string
)

var seedEventsCmd = &cobra.Command{
	Use:   "seed-events",
	Short: "Create the catalog of test events",
	Run:   runSeedEvents,
}

var deleteTestEventsCmd = &cobra.Command{
	Use:   "delete-test-events",
	Short: "Delete every event whose title is in the test catalog",
	Run:   runDeleteTestEvents,
}

func init() {
	seedEventsCmd.Flags().StringVar(&seedUser, "user", "", "organizer user ID (required)")
	seedEventsCmd.Flags().StringVar(&seedBase, "base", "", "RFC3339 time the event offsets start from (default now)")
	_ = seedEventsCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(seedEventsCmd)
	rootCmd.AddCommand(deleteTestEventsCmd)
}

func runSeedEvents(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	if cfg.Database.URL == "" {
		slog.Warn("No database configured, seeded events live only in this process")
	}

	base := time.Now().UTC()
	if seedBase != "" {
		t, err := time.Parse(time.RFC3339, seedBase)
		if err != nil {
			fmt.Printf("Invalid base time: %v\n", err)
			os.Exit(1)
		}
		base = t
	}

	ctx := context.Background()
	app := mustApp(ctx, cfg)
	defer app.Close()

	ids, err := app.Services().Events.SeedTestEvents(ctx, seedUser, base)
	if err != nil {
		slog.Error("Failed to seed test events", "error", err)
		os.Exit(1)
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	fmt.Printf("Created %d test events\n", len(ids))
}

func runDeleteTestEvents(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)

	ctx := context.Background()
	app := mustApp(ctx, cfg)
	defer app.Close()

	n, err := app.Services().Events.DeleteTestEvents(ctx)
	if err != nil {
		slog.Error("Failed to delete test events", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted %d test events\n", n)
}
