package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/revivatech/client-go/pkg/rtapi"
	"github.com/revivatech/client-go/pkg/rtclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	var (
		apiEndpoint  string
		username     string
		password     string
		clientID     string
		clientSecret string
		apiKey       string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to the RevivaTech API",
		Long:  "Authenticate with a RevivaTech API endpoint and store the resulting token",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Get API endpoint
			if apiEndpoint == "" {
				apiEndpoint = viper.GetString("api")
			}

			if apiEndpoint == "" {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("API endpoint: ")
				apiEndpoint, _ = reader.ReadString('\n')
				apiEndpoint = strings.TrimSpace(apiEndpoint)
			}

			if apiEndpoint == "" {
				return rtapi.ErrAPIEndpointRequired
			}

			normalizedEndpoint, err := normalizeEndpoint(apiEndpoint)
			if err != nil {
				return fmt.Errorf("invalid API endpoint: %w", err)
			}

			skipSSL := viper.GetBool("skip_ssl_validation") || viper.GetBool("skip-ssl-validation")

			config := &rtapi.Config{
				APIEndpoint:   normalizedEndpoint,
				SkipTLSVerify: skipSSL,
			}

			// Determine authentication method
			switch {
			case apiKey != "":
				config.APIKey = apiKey
			case clientID != "" && clientSecret != "":
				// Client credentials flow
				config.ClientID = clientID
				config.ClientSecret = clientSecret
			default:
				// Username/password flow
				if username == "" {
					reader := bufio.NewReader(os.Stdin)
					fmt.Print("Username: ")
					username, _ = reader.ReadString('\n')
					username = strings.TrimSpace(username)
				}

				if password == "" {
					fmt.Print("Password: ")

					bytePassword, err := term.ReadPassword(int(syscall.Stdin))
					if err != nil {
						return fmt.Errorf("failed to read password: %w", err)
					}

					password = string(bytePassword)

					fmt.Println()
				}

				config.Username = username
				config.Password = password
			}

			// Create client
			apiClient, err := rtclient.New(context.Background(), config)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			// Test connection by getting info
			ctx := context.Background()

			info, err := apiClient.GetInfo(ctx)
			if err != nil {
				return fmt.Errorf("failed to connect to API: %w", err)
			}

			// Store the new identity, dropping any tokens from a
			// previous login. Passwords are never persisted.
			configStruct := loadConfig()
			configStruct.API = normalizedEndpoint
			configStruct.Username = username
			configStruct.ClientID = clientID
			configStruct.ClientSecret = clientSecret
			configStruct.APIKey = apiKey
			configStruct.SkipSSLValidation = skipSSL
			configStruct.Token = ""
			configStruct.TokenExpiresAt = nil
			configStruct.RefreshToken = ""
			configStruct.LastRefreshed = nil

			// Save token if available
			if tokenGetter, ok := apiClient.(interface {
				GetToken(context.Context) (string, error)
			}); ok {
				if token, err := tokenGetter.GetToken(ctx); err == nil && token != "" {
					configStruct.Token = token
				}
			}

			if err := saveConfigStruct(configStruct); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Printf("Successfully logged in to %s\n", normalizedEndpoint)
			fmt.Printf("API version: %s\n", info.Version)

			return nil
		},
	}

	// Add flags
	cmd.Flags().StringVarP(&apiEndpoint, "api", "a", "", "API endpoint URL")
	cmd.Flags().StringVarP(&username, "username", "u", "", "username for authentication")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password for authentication")
	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client ID")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "static API key for server integrations")

	return cmd
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout from the RevivaTech API",
		Long:  "Clear stored authentication credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			// Clear authentication data but keep the endpoint and
			// display settings
			config.Token = ""
			config.TokenExpiresAt = nil
			config.RefreshToken = ""
			config.LastRefreshed = nil
			config.Username = ""
			config.ClientID = ""
			config.ClientSecret = ""
			config.APIKey = ""

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Println("Successfully logged out")

			return nil
		},
	}
}
