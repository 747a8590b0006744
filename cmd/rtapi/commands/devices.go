package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/revivatech/client-go/internal/constants"
	"github.com/revivatech/client-go/pkg/rtapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewDevicesCommand creates the devices command group.
func NewDevicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "devices",
		Aliases: []string{"device"},
		Short:   "Browse the device catalog",
		Long:    "List and search devices, categories, and brands in the repair catalog",
	}

	cmd.AddCommand(newDevicesListCommand())
	cmd.AddCommand(newDevicesSearchCommand())
	cmd.AddCommand(newDevicesGetCommand())
	cmd.AddCommand(newDevicesCategoriesCommand())
	cmd.AddCommand(newDevicesBrandsCommand())

	return cmd
}

func newDevicesListCommand() *cobra.Command {
	var (
		allPages bool
		perPage  int
		category string
		brand    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List devices",
		Long:  "List catalog devices with optional category and brand filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevicesListCommand(cmd, allPages, perPage, category, brand)
		},
	}

	cmd.Flags().BoolVar(&allPages, "all", false, "fetch all pages")
	cmd.Flags().IntVar(&perPage, "per-page", constants.DefaultPageSize, "results per page")
	cmd.Flags().StringVar(&category, "category", "", "filter by category ID")
	cmd.Flags().StringVar(&brand, "brand", "", "filter by brand ID")

	return cmd
}

func runDevicesListCommand(cmd *cobra.Command, allPages bool, perPage int, category, brand string) error {
	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	params := rtapi.NewQueryParams()
	params.PerPage = perPage

	if category != "" {
		params.WithFilter("category_id", category)
	}

	if brand != "" {
		params.WithFilter("brand_id", brand)
	}

	return listDevices(ctx, client, params, allPages)
}

func newDevicesSearchCommand() *cobra.Command {
	var perPage int

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search devices",
		Long:  "Search the device catalog by model name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevicesSearchCommand(cmd, args[0], perPage)
		},
	}

	cmd.Flags().IntVar(&perPage, "per-page", constants.DefaultPageSize, "results per page")

	return cmd
}

func runDevicesSearchCommand(cmd *cobra.Command, query string, perPage int) error {
	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	params := rtapi.NewQueryParams()
	params.PerPage = perPage
	params.WithSearch(query)

	return listDevices(ctx, client, params, false)
}

func listDevices(ctx context.Context, client rtapi.Client, params *rtapi.QueryParams, allPages bool) error {
	devices, err := client.Devices().List(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	allDevices := devices.Resources
	if allPages && devices.Pagination.TotalPages > 1 {
		moreDevices, err := fetchAllDevicePages(ctx, client, params, devices.Pagination.TotalPages)
		if err != nil {
			return err
		}

		allDevices = append(allDevices, moreDevices...)
	}

	return outputDevices(allDevices, devices.Pagination, allPages)
}

func fetchAllDevicePages(ctx context.Context, client rtapi.Client, params *rtapi.QueryParams, totalPages int) ([]rtapi.Device, error) {
	var allDevices []rtapi.Device

	for page := 2; page <= totalPages; page++ {
		params.Page = page

		moreDevices, err := client.Devices().List(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}

		allDevices = append(allDevices, moreDevices.Resources...)
	}

	return allDevices, nil
}

func outputDevices(devices []rtapi.Device, pagination rtapi.Pagination, allPages bool) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(devices)
	case constants.FormatYAML:
		return StandardYAMLRenderer(devices)
	default:
		return renderDeviceTable(devices, pagination, allPages)
	}
}

func renderDeviceTable(devices []rtapi.Device, pagination rtapi.Pagination, allPages bool) error {
	if len(devices) == 0 {
		_, _ = os.Stdout.WriteString("No devices found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "ID", "Brand ID", "Category ID", "Year")

	for _, device := range devices {
		_ = table.Append(device.Name, device.ID, device.BrandID, device.CategoryID,
			formatDeviceYear(device.Year))
	}

	_ = table.Render()

	if !allPages && pagination.TotalPages > 1 {
		_, _ = fmt.Fprintf(os.Stdout, "\nShowing page 1 of %d. Use --all to fetch all pages.\n", pagination.TotalPages)
	}

	return nil
}

func formatDeviceYear(year int) string {
	if year == 0 {
		return constants.NotAvailable
	}

	return strconv.Itoa(year)
}

func newDevicesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get DEVICE_ID",
		Short: "Get device details",
		Long:  "Display detailed information about a specific catalog device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevicesGetCommand(cmd, args[0])
		},
	}
}

func runDevicesGetCommand(cmd *cobra.Command, deviceID string) error {
	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	device, err := client.Devices().Get(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("failed to get device: %w", err)
	}

	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(device)
	case constants.FormatYAML:
		return StandardYAMLRenderer(device)
	default:
		return renderDeviceDetailsTable(device)
	}
}

func renderDeviceDetailsTable(device *rtapi.Device) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")

	_ = table.Append("Name", device.Name)
	_ = table.Append("ID", device.ID)
	_ = table.Append("Brand ID", device.BrandID)
	_ = table.Append("Category ID", device.CategoryID)
	_ = table.Append("Year", formatDeviceYear(device.Year))
	_ = table.Append("Specs", formatValue(device.SpecSummary))
	_ = table.Append("Created", device.CreatedAt.Format("2006-01-02 15:04:05"))
	_ = table.Append("Updated", device.UpdatedAt.Format("2006-01-02 15:04:05"))

	_, _ = os.Stdout.WriteString("Device details:\n\n")

	_ = table.Render()

	return nil
}

func newDevicesCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List device categories",
		Long:  "List the device categories available in the repair catalog",
		RunE:  runDevicesCategoriesCommand,
	}
}

func runDevicesCategoriesCommand(cmd *cobra.Command, args []string) error {
	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	categories, err := client.Devices().ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list device categories: %w", err)
	}

	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(categories)
	case constants.FormatYAML:
		return StandardYAMLRenderer(categories)
	default:
		return renderCategoryTable(categories)
	}
}

func renderCategoryTable(categories []rtapi.DeviceCategory) error {
	if len(categories) == 0 {
		_, _ = os.Stdout.WriteString("No device categories found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "Slug", "ID")

	for _, category := range categories {
		_ = table.Append(category.Name, category.Slug, category.ID)
	}

	_ = table.Render()

	return nil
}

func newDevicesBrandsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "brands CATEGORY_ID",
		Short: "List brands in a category",
		Long:  "List the device brands available within a catalog category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevicesBrandsCommand(cmd, args[0])
		},
	}
}

func runDevicesBrandsCommand(cmd *cobra.Command, categoryID string) error {
	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	brands, err := client.Devices().ListBrands(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("failed to list device brands: %w", err)
	}

	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(brands)
	case constants.FormatYAML:
		return StandardYAMLRenderer(brands)
	default:
		return renderBrandTable(brands)
	}
}

func renderBrandTable(brands []rtapi.DeviceBrand) error {
	if len(brands) == 0 {
		_, _ = os.Stdout.WriteString("No device brands found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "ID")

	for _, brand := range brands {
		_ = table.Append(brand.Name, brand.ID)
	}

	_ = table.Render()

	return nil
}
