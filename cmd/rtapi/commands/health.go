package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/revivatech/client-go/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewHealthCommand creates the health command
func NewHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe API health",
		Long:  "Probe the RevivaTech API health endpoint and report status and latency",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
			if err != nil {
				return err
			}

			ctx := context.Background()

			health, err := client.GetHealth(ctx)
			if err != nil {
				return fmt.Errorf("health probe failed: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case constants.FormatJSON:
				return StandardJSONRenderer(health)
			case constants.FormatYAML:
				return StandardYAMLRenderer(health)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Property", "Value")

				_ = table.Append("Status", health.Status)
				_ = table.Append("Version", formatValue(health.Version))
				_ = table.Append("Latency", health.Latency.Round(time.Millisecond).String())
				_ = table.Append("Checked At", health.CheckedAt.Local().Format(time.RFC3339))

				if err := table.Render(); err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}
			}

			return nil
		},
	}
}
