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

// NewQuotesCommand creates the quotes command group.
func NewQuotesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quotes",
		Aliases: []string{"quote"},
		Short:   "Manage repair quotes",
		Long:    "List, request, accept, and decline repair price quotes",
	}

	cmd.AddCommand(newQuotesListCommand())
	cmd.AddCommand(newQuotesGetCommand())
	cmd.AddCommand(newQuotesRequestCommand())
	cmd.AddCommand(newQuotesAcceptCommand())
	cmd.AddCommand(newQuotesDeclineCommand())

	return cmd
}

func newQuotesListCommand() *cobra.Command {
	var (
		allPages bool
		perPage  int
		status   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quotes",
		Long:  "List repair quotes with an optional status filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuotesListCommand(cmd, allPages, perPage, status)
		},
	}

	cmd.Flags().BoolVar(&allPages, "all", false, "fetch all pages")
	cmd.Flags().IntVar(&perPage, "per-page", constants.DefaultPageSize, "results per page")
	cmd.Flags().StringVar(&status, "status", "", "filter by quote status")

	return cmd
}

func runQuotesListCommand(cmd *cobra.Command, allPages bool, perPage int, status string) error {
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

	quotes, err := client.Quotes().List(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to list quotes: %w", err)
	}

	allQuotes := quotes.Resources
	if allPages && quotes.Pagination.TotalPages > 1 {
		moreQuotes, err := fetchAllQuotePages(ctx, client, params, quotes.Pagination.TotalPages)
		if err != nil {
			return err
		}

		allQuotes = append(allQuotes, moreQuotes...)
	}

	return outputQuotes(allQuotes, quotes.Pagination, allPages)
}

func fetchAllQuotePages(ctx context.Context, client rtapi.Client, params *rtapi.QueryParams, totalPages int) ([]rtapi.Quote, error) {
	var allQuotes []rtapi.Quote

	for page := 2; page <= totalPages; page++ {
		params.Page = page

		moreQuotes, err := client.Quotes().List(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}

		allQuotes = append(allQuotes, moreQuotes.Resources...)
	}

	return allQuotes, nil
}

func outputQuotes(quotes []rtapi.Quote, pagination rtapi.Pagination, allPages bool) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(quotes)
	case constants.FormatYAML:
		return StandardYAMLRenderer(quotes)
	default:
		return renderQuoteTable(quotes, pagination, allPages)
	}
}

func renderQuoteTable(quotes []rtapi.Quote, pagination rtapi.Pagination, allPages bool) error {
	if len(quotes) == 0 {
		_, _ = os.Stdout.WriteString("No quotes found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Booking ID", "Amount", "Status", "Valid Until", "Created")

	for _, quote := range quotes {
		_ = table.Append(quote.ID, quote.BookingID,
			formatMoney(quote.Amount, quote.Currency),
			quote.Status,
			formatTimestamp(quote.ValidUntil),
			quote.CreatedAt.Format("2006-01-02"))
	}

	_ = table.Render()

	if !allPages && pagination.TotalPages > 1 {
		_, _ = fmt.Fprintf(os.Stdout, "\nShowing page 1 of %d. Use --all to fetch all pages.\n", pagination.TotalPages)
	}

	return nil
}

func newQuotesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get QUOTE_ID",
		Short: "Get quote details",
		Long:  "Display detailed information about a specific quote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuotesGetCommand(cmd, args[0])
		},
	}
}

func runQuotesGetCommand(cmd *cobra.Command, quoteID string) error {
	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	quote, err := client.Quotes().Get(ctx, quoteID)
	if err != nil {
		return fmt.Errorf("failed to get quote: %w", err)
	}

	return outputQuoteDetails(quote)
}

func outputQuoteDetails(quote *rtapi.Quote) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(quote)
	case constants.FormatYAML:
		return StandardYAMLRenderer(quote)
	default:
		return renderQuoteDetailsTable(quote)
	}
}

func renderQuoteDetailsTable(quote *rtapi.Quote) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")

	_ = table.Append("ID", quote.ID)
	_ = table.Append("Booking ID", quote.BookingID)
	_ = table.Append("Amount", formatMoney(quote.Amount, quote.Currency))
	_ = table.Append("Status", quote.Status)
	_ = table.Append("Valid Until", formatTimestamp(quote.ValidUntil))
	_ = table.Append("Notes", formatValue(quote.Notes))
	_ = table.Append("Created", quote.CreatedAt.Format("2006-01-02 15:04:05"))
	_ = table.Append("Updated", quote.UpdatedAt.Format("2006-01-02 15:04:05"))

	_, _ = os.Stdout.WriteString("Quote details:\n\n")

	_ = table.Render()

	return nil
}

func newQuotesRequestCommand() *cobra.Command {
	var (
		bookingID string
		notes     string
	)

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Request a quote",
		Long:  "Request a repair price quote for a booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuotesRequestCommand(cmd, bookingID, notes)
		},
	}

	cmd.Flags().StringVar(&bookingID, "booking", "", "booking ID (required)")
	cmd.Flags().StringVar(&notes, "notes", "", "notes for the technician")

	_ = cmd.MarkFlagRequired("booking")

	return cmd
}

func runQuotesRequestCommand(cmd *cobra.Command, bookingID, notes string) error {
	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	createRequest := &rtapi.QuoteCreateRequest{
		BookingID: bookingID,
		Notes:     notes,
	}

	quote, err := client.Quotes().Create(ctx, createRequest)
	if err != nil {
		return fmt.Errorf("failed to request quote: %w", err)
	}

	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(quote)
	case constants.FormatYAML:
		return StandardYAMLRenderer(quote)
	default:
		_, _ = fmt.Fprintf(os.Stdout, "Successfully requested quote '%s' for booking '%s'\n", quote.ID, quote.BookingID)

		return nil
	}
}

func newQuotesAcceptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "accept QUOTE_ID",
		Short: "Accept a quote",
		Long:  "Accept a repair quote on behalf of the customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuotesAcceptCommand(cmd, args[0])
		},
	}
}

func runQuotesAcceptCommand(cmd *cobra.Command, quoteID string) error {
	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	quote, err := client.Quotes().Accept(ctx, quoteID)
	if err != nil {
		return fmt.Errorf("failed to accept quote: %w", err)
	}

	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(quote)
	case constants.FormatYAML:
		return StandardYAMLRenderer(quote)
	default:
		_, _ = fmt.Fprintf(os.Stdout, "Successfully accepted quote '%s' (status: %s)\n", quote.ID, quote.Status)

		return nil
	}
}

func newQuotesDeclineCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decline QUOTE_ID",
		Short: "Decline a quote",
		Long:  "Decline a repair quote on behalf of the customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuotesDeclineCommand(cmd, args[0])
		},
	}
}

func runQuotesDeclineCommand(cmd *cobra.Command, quoteID string) error {
	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	quote, err := client.Quotes().Decline(ctx, quoteID)
	if err != nil {
		return fmt.Errorf("failed to decline quote: %w", err)
	}

	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(quote)
	case constants.FormatYAML:
		return StandardYAMLRenderer(quote)
	default:
		_, _ = fmt.Fprintf(os.Stdout, "Successfully declined quote '%s' (status: %s)\n", quote.ID, quote.Status)

		return nil
	}
}
