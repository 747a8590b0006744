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

// NewCustomersCommand creates the customers command group.
func NewCustomersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "customers",
		Aliases: []string{"customer"},
		Short:   "Manage customers",
		Long:    "List, create, update, and delete customer records",
	}

	cmd.AddCommand(newCustomersListCommand())
	cmd.AddCommand(newCustomersGetCommand())
	cmd.AddCommand(newCustomersCreateCommand())
	cmd.AddCommand(newCustomersUpdateCommand())
	cmd.AddCommand(newCustomersDeleteCommand())

	return cmd
}

func newCustomersListCommand() *cobra.Command {
	var (
		allPages bool
		perPage  int
		search   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List customers",
		Long:  "List customer records with optional free text search",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCustomersListCommand(cmd, allPages, perPage, search)
		},
	}

	cmd.Flags().BoolVar(&allPages, "all", false, "fetch all pages")
	cmd.Flags().IntVar(&perPage, "per-page", constants.DefaultPageSize, "results per page")
	cmd.Flags().StringVar(&search, "search", "", "free text search")

	return cmd
}

func runCustomersListCommand(cmd *cobra.Command, allPages bool, perPage int, search string) error {
	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	params := rtapi.NewQueryParams()
	params.PerPage = perPage

	if search != "" {
		params.Search = search
	}

	customers, err := client.Customers().List(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to list customers: %w", err)
	}

	allCustomers := customers.Resources
	if allPages && customers.Pagination.TotalPages > 1 {
		moreCustomers, err := fetchAllCustomerPages(ctx, client, params, customers.Pagination.TotalPages)
		if err != nil {
			return err
		}

		allCustomers = append(allCustomers, moreCustomers...)
	}

	return outputCustomers(allCustomers, customers.Pagination, allPages)
}

func fetchAllCustomerPages(ctx context.Context, client rtapi.Client, params *rtapi.QueryParams, totalPages int) ([]rtapi.Customer, error) {
	var allCustomers []rtapi.Customer

	for page := 2; page <= totalPages; page++ {
		params.Page = page

		moreCustomers, err := client.Customers().List(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}

		allCustomers = append(allCustomers, moreCustomers.Resources...)
	}

	return allCustomers, nil
}

func outputCustomers(customers []rtapi.Customer, pagination rtapi.Pagination, allPages bool) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(customers)
	case constants.FormatYAML:
		return StandardYAMLRenderer(customers)
	default:
		return renderCustomerTable(customers, pagination, allPages)
	}
}

func renderCustomerTable(customers []rtapi.Customer, pagination rtapi.Pagination, allPages bool) error {
	if len(customers) == 0 {
		_, _ = os.Stdout.WriteString("No customers found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "ID", "Email", "Phone", "Postcode", "Created")

	for _, customer := range customers {
		_ = table.Append(customer.FirstName+" "+customer.LastName, customer.ID,
			customer.Email,
			formatValue(customer.Phone),
			formatValue(customer.Postcode),
			customer.CreatedAt.Format("2006-01-02"))
	}

	_ = table.Render()

	if !allPages && pagination.TotalPages > 1 {
		_, _ = fmt.Fprintf(os.Stdout, "\nShowing page 1 of %d. Use --all to fetch all pages.\n", pagination.TotalPages)
	}

	return nil
}

func newCustomersGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get CUSTOMER_ID",
		Short: "Get customer details",
		Long:  "Display detailed information about a specific customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCustomersGetCommand(cmd, args[0])
		},
	}
}

func runCustomersGetCommand(cmd *cobra.Command, customerID string) error {
	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	customer, err := client.Customers().Get(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to get customer: %w", err)
	}

	return outputCustomerDetails(customer)
}

func outputCustomerDetails(customer *rtapi.Customer) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(customer)
	case constants.FormatYAML:
		return StandardYAMLRenderer(customer)
	default:
		return renderCustomerDetailsTable(customer)
	}
}

func renderCustomerDetailsTable(customer *rtapi.Customer) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")

	_ = table.Append("Name", customer.FirstName+" "+customer.LastName)
	_ = table.Append("ID", customer.ID)
	_ = table.Append("Email", customer.Email)
	_ = table.Append("Phone", formatValue(customer.Phone))
	_ = table.Append("Postcode", formatValue(customer.Postcode))
	_ = table.Append("Created", customer.CreatedAt.Format("2006-01-02 15:04:05"))
	_ = table.Append("Updated", customer.UpdatedAt.Format("2006-01-02 15:04:05"))

	_, _ = os.Stdout.WriteString("Customer details:\n\n")

	_ = table.Render()

	return nil
}

func newCustomersCreateCommand() *cobra.Command {
	var (
		firstName string
		lastName  string
		email     string
		phone     string
		postcode  string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new customer",
		Long:  "Create a new customer record",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCustomersCreateCommand(cmd, firstName, lastName, email, phone, postcode)
		},
	}

	cmd.Flags().StringVar(&firstName, "first-name", "", "first name (required)")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&postcode, "postcode", "", "postcode")

	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runCustomersCreateCommand(cmd *cobra.Command, firstName, lastName, email, phone, postcode string) error {
	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	createRequest := &rtapi.CustomerCreateRequest{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Phone:     phone,
		Postcode:  postcode,
	}

	customer, err := client.Customers().Create(ctx, createRequest)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(customer)
	case constants.FormatYAML:
		return StandardYAMLRenderer(customer)
	default:
		_, _ = fmt.Fprintf(os.Stdout, "Successfully created customer '%s %s' (ID: %s)\n",
			customer.FirstName, customer.LastName, customer.ID)

		return nil
	}
}

func newCustomersUpdateCommand() *cobra.Command {
	var (
		firstName string
		lastName  string
		email     string
		phone     string
		postcode  string
	)

	cmd := &cobra.Command{
		Use:   "update CUSTOMER_ID",
		Short: "Update a customer",
		Long:  "Update an existing customer record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCustomersUpdateCommand(cmd, args[0], firstName, lastName, email, phone, postcode)
		},
	}

	cmd.Flags().StringVar(&firstName, "first-name", "", "updated first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "updated last name")
	cmd.Flags().StringVar(&email, "email", "", "updated email address")
	cmd.Flags().StringVar(&phone, "phone", "", "updated phone number")
	cmd.Flags().StringVar(&postcode, "postcode", "", "updated postcode")

	return cmd
}

func runCustomersUpdateCommand(cmd *cobra.Command, customerID, firstName, lastName, email, phone, postcode string) error {
	updateRequest := buildCustomerUpdateRequest(firstName, lastName, email, phone, postcode)
	if updateRequest == nil {
		_, _ = os.Stdout.WriteString("No updates specified\n")

		return nil
	}

	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	customer, err := client.Customers().Update(ctx, customerID, updateRequest)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}

	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(customer)
	case constants.FormatYAML:
		return StandardYAMLRenderer(customer)
	default:
		_, _ = fmt.Fprintf(os.Stdout, "Successfully updated customer '%s %s' (ID: %s)\n",
			customer.FirstName, customer.LastName, customer.ID)

		return nil
	}
}

func buildCustomerUpdateRequest(firstName, lastName, email, phone, postcode string) *rtapi.CustomerUpdateRequest {
	updateRequest := &rtapi.CustomerUpdateRequest{}
	hasUpdate := false

	if firstName != "" {
		updateRequest.FirstName = &firstName
		hasUpdate = true
	}

	if lastName != "" {
		updateRequest.LastName = &lastName
		hasUpdate = true
	}

	if email != "" {
		updateRequest.Email = &email
		hasUpdate = true
	}

	if phone != "" {
		updateRequest.Phone = &phone
		hasUpdate = true
	}

	if postcode != "" {
		updateRequest.Postcode = &postcode
		hasUpdate = true
	}

	if !hasUpdate {
		return nil
	}

	return updateRequest
}

func newCustomersDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete CUSTOMER_ID",
		Short: "Delete a customer",
		Long:  "Permanently delete a customer record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCustomersDeleteCommand(cmd, args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "force deletion without confirmation")

	return cmd
}

func runCustomersDeleteCommand(cmd *cobra.Command, customerID string, force bool) error {
	if !confirmDeletion("customer", customerID, force) {
		return nil
	}

	client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	err = client.Customers().Delete(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Successfully deleted customer '%s'\n", customerID)

	return nil
}
