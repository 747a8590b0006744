package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/revivatech/client-go/internal/constants"
	"github.com/revivatech/client-go/pkg/rtapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewBookingsCommand creates the bookings command group.
func NewBookingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bookings",
		Aliases: []string{"booking"},
		Short:   "Manage repair bookings",
		Long:    "List, create, update, cancel, and delete repair bookings",
	}

	cmd.AddCommand(newBookingsListCommand())
	cmd.AddCommand(newBookingsGetCommand())
	cmd.AddCommand(newBookingsCreateCommand())
	cmd.AddCommand(newBookingsUpdateCommand())
	cmd.AddCommand(newBookingsCancelCommand())
	cmd.AddCommand(newBookingsDeleteCommand())

	return cmd
}

func newBookingsListCommand() *cobra.Command {
	var (
		allPages bool
		perPage  int
		status   string
		customer string
		search   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookings",
		Long:  "List repair bookings with optional status and customer filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookingsListCommand(cmd, allPages, perPage, status, customer, search)
		},
	}

	cmd.Flags().BoolVar(&allPages, "all", false, "fetch all pages")
	cmd.Flags().IntVar(&perPage, "per-page", constants.DefaultPageSize, "results per page")
	cmd.Flags().StringVar(&status, "status", "", "filter by booking status")
	cmd.Flags().StringVar(&customer, "customer", "", "filter by customer ID")
	cmd.Flags().StringVar(&search, "search", "", "free text search")

	return cmd
}

func runBookingsListCommand(cmd *cobra.Command, allPages bool, perPage int, status, customer, search string) error {
	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	params := rtapi.NewQueryParams()
	params.PerPage = perPage

	if status != "" {
		params.WithFilter("status", status)
	}

	if customer != "" {
		params.WithFilter("customer_id", customer)
	}

	if search != "" {
		params.Search = search
	}

	bookings, err := client.Bookings().List(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to list bookings: %w", err)
	}

	allBookings := bookings.Resources
	if allPages && bookings.Pagination.TotalPages > 1 {
		moreBookings, err := fetchAllBookingPages(ctx, client, params, bookings.Pagination.TotalPages)
		if err != nil {
			return err
		}

		allBookings = append(allBookings, moreBookings...)
	}

	return outputBookings(allBookings, bookings.Pagination, allPages)
}

func fetchAllBookingPages(ctx context.Context, client rtapi.Client, params *rtapi.QueryParams, totalPages int) ([]rtapi.Booking, error) {
	var allBookings []rtapi.Booking

	for page := 2; page <= totalPages; page++ {
		params.Page = page

		moreBookings, err := client.Bookings().List(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}

		allBookings = append(allBookings, moreBookings.Resources...)
	}

	return allBookings, nil
}

func outputBookings(bookings []rtapi.Booking, pagination rtapi.Pagination, allPages bool) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(bookings)
	case constants.FormatYAML:
		return StandardYAMLRenderer(bookings)
	default:
		return renderBookingTable(bookings, pagination, allPages)
	}
}

func renderBookingTable(bookings []rtapi.Booking, pagination rtapi.Pagination, allPages bool) error {
	if len(bookings) == 0 {
		_, _ = os.Stdout.WriteString("No bookings found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Reference", "ID", "Status", "Repair Type", "Urgency", "Scheduled", "Created")

	for _, booking := range bookings {
		_ = table.Append(booking.Reference, booking.ID, booking.Status,
			booking.RepairType,
			formatValue(booking.Urgency),
			formatTimestamp(booking.ScheduledAt),
			booking.CreatedAt.Format("2006-01-02"))
	}

	_ = table.Render()

	if !allPages && pagination.TotalPages > 1 {
		_, _ = fmt.Fprintf(os.Stdout, "\nShowing page 1 of %d. Use --all to fetch all pages.\n", pagination.TotalPages)
	}

	return nil
}

func newBookingsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get BOOKING_ID",
		Short: "Get booking details",
		Long:  "Display detailed information about a specific booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookingsGetCommand(cmd, args[0])
		},
	}
}

func runBookingsGetCommand(cmd *cobra.Command, bookingID string) error {
	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	booking, err := client.Bookings().Get(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to get booking: %w", err)
	}

	return outputBookingDetails(booking)
}

func outputBookingDetails(booking *rtapi.Booking) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(booking)
	case constants.FormatYAML:
		return StandardYAMLRenderer(booking)
	default:
		return renderBookingDetailsTable(booking)
	}
}

func renderBookingDetailsTable(booking *rtapi.Booking) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")

	_ = table.Append("Reference", booking.Reference)
	_ = table.Append("ID", booking.ID)
	_ = table.Append("Status", booking.Status)
	_ = table.Append("Customer ID", booking.CustomerID)
	_ = table.Append("Device ID", booking.DeviceID)
	_ = table.Append("Repair Type", booking.RepairType)
	_ = table.Append("Problem", booking.Problem)
	_ = table.Append("Urgency", formatValue(booking.Urgency))
	_ = table.Append("Preferred At", formatTimestamp(booking.PreferredAt))
	_ = table.Append("Scheduled At", formatTimestamp(booking.ScheduledAt))
	_ = table.Append("Quote ID", formatValue(booking.QuoteID))
	_ = table.Append("Technician ID", formatValue(booking.TechnicianID))
	_ = table.Append("Created", booking.CreatedAt.Format("2006-01-02 15:04:05"))
	_ = table.Append("Updated", booking.UpdatedAt.Format("2006-01-02 15:04:05"))

	_, _ = os.Stdout.WriteString("Booking details:\n\n")

	_ = table.Render()

	return nil
}

func newBookingsCreateCommand() *cobra.Command {
	var (
		customerID  string
		deviceID    string
		repairType  string
		problem     string
		urgency     string
		preferredAt string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new booking",
		Long:  "Create a new repair booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookingsCreateCommand(cmd, customerID, deviceID, repairType, problem, urgency, preferredAt)
		},
	}

	cmd.Flags().StringVar(&customerID, "customer", "", "customer ID (required)")
	cmd.Flags().StringVar(&deviceID, "device", "", "device ID (required)")
	cmd.Flags().StringVar(&repairType, "repair-type", "", "repair type (required)")
	cmd.Flags().StringVar(&problem, "problem", "", "problem description (required)")
	cmd.Flags().StringVar(&urgency, "urgency", "", "urgency level")
	cmd.Flags().StringVar(&preferredAt, "preferred-at", "", "preferred repair slot (RFC3339)")

	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("device")
	_ = cmd.MarkFlagRequired("repair-type")
	_ = cmd.MarkFlagRequired("problem")

	return cmd
}

func runBookingsCreateCommand(cmd *cobra.Command, customerID, deviceID, repairType, problem, urgency, preferredAt string) error {
	createRequest := &rtapi.BookingCreateRequest{
		CustomerID: customerID,
		DeviceID:   deviceID,
		RepairType: repairType,
		Problem:    problem,
		Urgency:    urgency,
	}

	if preferredAt != "" {
		t, err := time.Parse(time.RFC3339, preferredAt)
		if err != nil {
			return fmt.Errorf("invalid --preferred-at value: %w", err)
		}

		createRequest.PreferredAt = &t
	}

	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	booking, err := client.Bookings().Create(ctx, createRequest)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(booking)
	case constants.FormatYAML:
		return StandardYAMLRenderer(booking)
	default:
		_, _ = fmt.Fprintf(os.Stdout, "Successfully created booking '%s' (ID: %s)\n", booking.Reference, booking.ID)

		return nil
	}
}

func newBookingsUpdateCommand() *cobra.Command {
	var (
		status       string
		problem      string
		urgency      string
		scheduledAt  string
		technicianID string
	)

	cmd := &cobra.Command{
		Use:   "update BOOKING_ID",
		Short: "Update a booking",
		Long:  "Update an existing repair booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookingsUpdateCommand(cmd, args[0], status, problem, urgency, scheduledAt, technicianID)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "new booking status")
	cmd.Flags().StringVar(&problem, "problem", "", "updated problem description")
	cmd.Flags().StringVar(&urgency, "urgency", "", "updated urgency level")
	cmd.Flags().StringVar(&scheduledAt, "scheduled-at", "", "scheduled repair slot (RFC3339)")
	cmd.Flags().StringVar(&technicianID, "technician", "", "assigned technician ID")

	return cmd
}

func runBookingsUpdateCommand(cmd *cobra.Command, bookingID, status, problem, urgency, scheduledAt, technicianID string) error {
	updateRequest, err := buildBookingUpdateRequest(status, problem, urgency, scheduledAt, technicianID)
	if err != nil {
		return err
	}

	if updateRequest == nil {
		_, _ = os.Stdout.WriteString("No updates specified\n")

		return nil
	}

	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	booking, err := client.Bookings().Update(ctx, bookingID, updateRequest)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	return outputBookingUpdateResult(booking)
}

func buildBookingUpdateRequest(status, problem, urgency, scheduledAt, technicianID string) (*rtapi.BookingUpdateRequest, error) {
	updateRequest := &rtapi.BookingUpdateRequest{}
	hasUpdate := false

	if status != "" {
		updateRequest.Status = &status
		hasUpdate = true
	}

	if problem != "" {
		updateRequest.Problem = &problem
		hasUpdate = true
	}

	if urgency != "" {
		updateRequest.Urgency = &urgency
		hasUpdate = true
	}

	if scheduledAt != "" {
		t, err := time.Parse(time.RFC3339, scheduledAt)
		if err != nil {
			return nil, fmt.Errorf("invalid --scheduled-at value: %w", err)
		}

		updateRequest.ScheduledAt = &t
		hasUpdate = true
	}

	if technicianID != "" {
		updateRequest.TechnicianID = &technicianID
		hasUpdate = true
	}

	if !hasUpdate {
		return nil, nil
	}

	return updateRequest, nil
}

func outputBookingUpdateResult(booking *rtapi.Booking) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(booking)
	case constants.FormatYAML:
		return StandardYAMLRenderer(booking)
	default:
		_, _ = fmt.Fprintf(os.Stdout, "Successfully updated booking '%s' (ID: %s)\n", booking.Reference, booking.ID)

		return nil
	}
}

func newBookingsCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel BOOKING_ID",
		Short: "Cancel a booking",
		Long:  "Cancel a repair booking without deleting its record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookingsCancelCommand(cmd, args[0])
		},
	}
}

func runBookingsCancelCommand(cmd *cobra.Command, bookingID string) error {
	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	booking, err := client.Bookings().Cancel(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(booking)
	case constants.FormatYAML:
		return StandardYAMLRenderer(booking)
	default:
		_, _ = fmt.Fprintf(os.Stdout, "Successfully cancelled booking '%s' (status: %s)\n", booking.Reference, booking.Status)

		return nil
	}
}

func newBookingsDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete BOOKING_ID",
		Short: "Delete a booking",
		Long:  "Permanently delete a repair booking record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookingsDeleteCommand(cmd, args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "force deletion without confirmation")

	return cmd
}

func runBookingsDeleteCommand(cmd *cobra.Command, bookingID string, force bool) error {
	if !confirmDeletion("booking", bookingID, force) {
		return nil
	}

	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	err = client.Bookings().Delete(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Successfully deleted booking '%s'\n", bookingID)

	return nil
}
