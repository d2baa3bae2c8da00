package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/campusconnect/internal/health"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the health of the configured backends",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)

	ctx := context.Background()
	app := mustApp(ctx, cfg)
	defer app.Close()

	components := app.CheckHealth(ctx)
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	slices.Sort(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "COMPONENT\tSTATUS\tLATENCY\tERROR")
	for _, name := range names {
		c := components[name]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%dms\t%s\n", c.Name, c.Status, c.LatencyMS, c.Error)
	}
	_ = w.Flush()

	if health.Aggregate(components) == health.StatusCritical {
		os.Exit(1)
	}
}
