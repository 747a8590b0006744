package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/revivatech/client-go/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewInfoCommand creates the info command
func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Display API endpoint information",
		Long:  "Display information about the RevivaTech API endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
			if err != nil {
				return err
			}

			ctx := context.Background()

			info, err := client.GetInfo(ctx)
			if err != nil {
				return fmt.Errorf("failed to get API info: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case constants.FormatJSON:
				return StandardJSONRenderer(info)
			case constants.FormatYAML:
				return StandardYAMLRenderer(info)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Property", "Value")

				_ = table.Append("Name", info.Name)
				_ = table.Append("Version", info.Version)

				if len(info.Links) > 0 {
					names := make([]string, 0, len(info.Links))
					for name := range info.Links {
						names = append(names, name)
					}

					sort.Strings(names)

					linkStrings := make([]string, 0, len(names))
					for _, name := range names {
						linkStrings = append(linkStrings, fmt.Sprintf("%s: %s", name, info.Links[name]))
					}

					_ = table.Append("Links", strings.Join(linkStrings, "\n"))
				}

				_ = table.Render()
			}

			return nil
		},
	}
}
