package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/revivatech/client-go/internal/constants"
	"github.com/revivatech/client-go/pkg/rtapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration.
type Config struct {
	API            string     `json:"api,omitempty"              yaml:"api,omitempty"`
	Token          string     `json:"token,omitempty"            yaml:"token,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	RefreshToken   string     `json:"refresh_token,omitempty"    yaml:"refresh_token,omitempty"`
	LastRefreshed  *time.Time `json:"last_refreshed,omitempty"   yaml:"last_refreshed,omitempty"`
	Username       string     `json:"username,omitempty"         yaml:"username,omitempty"`
	ClientID       string     `json:"client_id,omitempty"        yaml:"client_id,omitempty"`
	ClientSecret   string     `json:"client_secret,omitempty"    yaml:"client_secret,omitempty"`
	APIKey         string     `json:"api_key,omitempty"          yaml:"api_key,omitempty"`
	TokenURL       string     `json:"token_url,omitempty"        yaml:"token_url,omitempty"`

	// Global settings
	Output            string `json:"output"              yaml:"output"`
	NoColor           bool   `json:"no_color"            yaml:"no_color"`
	SkipSSLValidation bool   `json:"skip_ssl_validation" yaml:"skip_ssl_validation"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage rtapi CLI configuration including the API endpoint and settings",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			output := viper.GetString("output")
			switch output {
			case constants.FormatJSON:
				return StandardJSONRenderer(config)
			case constants.FormatYAML:
				return StandardYAMLRenderer(config)
			default:
				return displayConfigTable(config)
			}
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a specific configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(loadConfig(), args[0], args[1])
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a specific configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return unsetConfigValue(loadConfig(), args[0])
		},
	}
}

func newConfigClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear configuration",
		Long:  "Remove all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile := viper.ConfigFileUsed()
			if configFile == "" {
				home, _ := os.UserHomeDir()
				configFile = filepath.Join(home, ".rtapi", "config.yml")
			}

			err := os.Remove(configFile)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove config file: %w", err)
			}

			return outputConfigUpdateResult("Cleared", "all configuration", "")
		},
	}
}

func loadConfig() *Config {
	return &Config{
		API:            viper.GetString("api"),
		Token:          viper.GetString("token"),
		TokenExpiresAt: parseTimeValue(viper.Get("token_expires_at")),
		RefreshToken:   viper.GetString("refresh_token"),
		LastRefreshed:  parseTimeValue(viper.Get("last_refreshed")),
		Username:       viper.GetString("username"),
		ClientID:       viper.GetString("client_id"),
		ClientSecret:   viper.GetString("client_secret"),
		APIKey:         viper.GetString("api_key"),
		TokenURL:       viper.GetString("token_url"),

		Output:            viper.GetString("output"),
		NoColor:           viper.GetBool("no_color"),
		SkipSSLValidation: viper.GetBool("skip_ssl_validation") || viper.GetBool("skip-ssl-validation"),
	}
}

// parseTimeValue converts a stored timestamp to *time.Time. YAML
// decoding may hand back either a time.Time or an RFC3339 string.
func parseTimeValue(value interface{}) *time.Time {
	switch v := value.(type) {
	case time.Time:
		return &v
	case string:
		if v == "" {
			return nil
		}

		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil
		}

		return &t
	default:
		return nil
	}
}

func saveConfigStruct(config *Config) error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}

		configDir := filepath.Join(home, ".rtapi")

		err = os.MkdirAll(configDir, constants.ConfigDirPerm)
		if err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		configFile = filepath.Join(configDir, "config.yml")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setConfigValue sets a configuration value and persists it.
func setConfigValue(config *Config, key, value string) error {
	if isTokenField(key) {
		return fmt.Errorf("%w. Use 'rtapi login' instead", rtapi.ErrTokenFieldsReadOnly)
	}

	handler, exists := getConfigHandler(key)
	if !exists {
		return fmt.Errorf("%w: %s", rtapi.ErrUnknownConfigKey, key)
	}

	handler(config, value)

	err := saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return outputConfigUpdateResult("Set", key, value)
}

// getConfigHandler returns a handler function for a given config key.
func getConfigHandler(key string) (func(*Config, string), bool) {
	handlers := map[string]func(*Config, string){
		"api":                 func(c *Config, v string) { c.API = v },
		"username":            func(c *Config, v string) { c.Username = v },
		"client_id":           func(c *Config, v string) { c.ClientID = v },
		"client_secret":       func(c *Config, v string) { c.ClientSecret = v },
		"api_key":             func(c *Config, v string) { c.APIKey = v },
		"token_url":           func(c *Config, v string) { c.TokenURL = v },
		"output":              func(c *Config, v string) { c.Output = v },
		"no_color":            func(c *Config, v string) { c.NoColor = parseBoolValue(v) },
		"skip_ssl_validation": func(c *Config, v string) { c.SkipSSLValidation = parseBoolValue(v) },
	}
	handler, exists := handlers[key]

	return handler, exists
}

// isTokenField reports whether a key holds login-managed credentials.
func isTokenField(key string) bool {
	switch key {
	case "token", "refresh_token", "token_expires_at", "last_refreshed":
		return true
	}

	return false
}

// parseBoolValue parses a boolean value from string.
func parseBoolValue(value string) bool {
	return value == "true" || value == "1"
}

// unsetConfigValue resets a configuration value and persists it.
func unsetConfigValue(config *Config, key string) error {
	if isTokenField(key) {
		return fmt.Errorf("%w. Use 'rtapi logout' instead", rtapi.ErrTokenFieldsReadOnly)
	}

	switch key {
	case "api":
		config.API = ""
	case "username":
		config.Username = ""
	case "client_id":
		config.ClientID = ""
	case "client_secret":
		config.ClientSecret = ""
	case "api_key":
		config.APIKey = ""
	case "token_url":
		config.TokenURL = ""
	case "output":
		config.Output = "table"
	case "no_color":
		config.NoColor = false
	case "skip_ssl_validation":
		config.SkipSSLValidation = false
	default:
		return fmt.Errorf("%w: %s", rtapi.ErrUnknownConfigKey, key)
	}

	err := saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return outputConfigUpdateResult("Unset", key, "")
}

// displayConfigTable displays configuration in a table format.
func displayConfigTable(config *Config) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")

	addConfigRows(table, config)
	addTokenRows(table, config)

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func addConfigRows(table *tablewriter.Table, config *Config) {
	_ = table.Append([]string{"API", formatValue(config.API)})
	_ = table.Append([]string{"Username", formatValue(config.Username)})
	_ = table.Append([]string{"Client ID", formatValue(config.ClientID)})
	_ = table.Append([]string{"Token URL", formatValue(config.TokenURL)})
	_ = table.Append([]string{"Output", formatValue(config.Output)})
	_ = table.Append([]string{"No Color", strconv.FormatBool(config.NoColor)})
	_ = table.Append([]string{"Skip SSL Validation", strconv.FormatBool(config.SkipSSLValidation)})
}

// addTokenRows adds credential rows to the table (redacted for security).
func addTokenRows(table *tablewriter.Table, config *Config) {
	tokenRows := []struct {
		label string
		value string
	}{
		{"Token", config.Token},
		{"Refresh Token", config.RefreshToken},
		{"Client Secret", config.ClientSecret},
		{"API Key", config.APIKey},
	}

	for _, row := range tokenRows {
		if row.value != "" {
			_ = table.Append([]string{row.label, "[REDACTED]"})
		}
	}

	if config.TokenExpiresAt != nil {
		_ = table.Append([]string{"Token Expires At", config.TokenExpiresAt.Local().Format(time.RFC3339)})
	}

	if config.LastRefreshed != nil {
		_ = table.Append([]string{"Last Refreshed", config.LastRefreshed.Local().Format(time.RFC3339)})
	}
}

// outputConfigUpdateResult outputs configuration update results in the
// requested format.
func outputConfigUpdateResult(action, key, value string) error {
	output := viper.GetString("output")

	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(buildConfigResult(action, key, value))
	case constants.FormatYAML:
		return StandardYAMLRenderer(buildConfigResult(action, key, value))
	default:
		return outputConfigAsTable(action, key, value)
	}
}

func buildConfigResult(action, key, value string) map[string]string {
	result := map[string]string{
		"action": action,
		"key":    key,
	}

	if value != "" {
		result["value"] = value
	}

	return result
}

func outputConfigAsTable(action, key, value string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")

	_ = table.Append([]string{"Action", action})
	_ = table.Append([]string{"Key", key})

	if value != "" {
		_ = table.Append([]string{"Value", value})
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render update results table: %w", err)
	}

	return nil
}
