package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/revivatech/client-go/internal/constants"
	"github.com/revivatech/client-go/pkg/rtapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewCacheCommand creates the cache command group.
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
		Long: "Inspect and clear the client response cache.\n\n" +
			"With the default in-memory backend each CLI invocation starts\n" +
			"with an empty cache, so these commands mainly matter when a\n" +
			"shared backend such as NATS key-value is configured.",
	}

	cmd.AddCommand(newCacheClearCommand())
	cmd.AddCommand(newCacheStatsCommand())

	return cmd
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear cached responses",
		Long:  "Remove all entries from the response cache",
		RunE:  runCacheClearCommand,
	}
}

func runCacheClearCommand(cmd *cobra.Command, args []string) error {
	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	err = client.ClearCache(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	fmt.Println("Successfully cleared the response cache")

	return nil
}

func newCacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Long:  "Display hit, miss, and write counters for the response cache",
		RunE:  runCacheStatsCommand,
	}
}

func runCacheStatsCommand(cmd *cobra.Command, args []string) error {
	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	statsProvider, ok := client.(interface{ CacheStats() *rtapi.CacheStats })
	if !ok {
		return ErrCacheStatsUnavailable
	}

	stats := statsProvider.CacheStats()

	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(stats)
	case constants.FormatYAML:
		return StandardYAMLRenderer(stats)
	default:
		return renderCacheStatsTable(stats)
	}
}

func renderCacheStatsTable(stats *rtapi.CacheStats) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Metric", "Value")

	_ = table.Append("Hits", fmt.Sprintf("%d", stats.Hits))
	_ = table.Append("Misses", fmt.Sprintf("%d", stats.Misses))
	_ = table.Append("Sets", fmt.Sprintf("%d", stats.Sets))
	_ = table.Append("Hit Rate", fmt.Sprintf("%.1f%%", stats.GetHitRate()*100))

	_ = table.Render()

	return nil
}
