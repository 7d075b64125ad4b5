package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"spaces/internal/client"
	"spaces/internal/pkg/logger"
	"spaces/internal/platform/config"
)

var (
	configFile string
	orgFlag    string
	baseURL    string
	token      string

	cfg *config.Config
	api *client.Client
)

var rootCmd = &cobra.Command{
	Use:          "spacectl",
	Short:        "spacectl manages space settings from the command line",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if baseURL != "" {
			cfg.Client.BaseURL = baseURL
		}
		if token != "" {
			cfg.Client.Token = token
		}

		cfg.Logging.Format = "text"
		logger.Init(cfg.Logging)

		api = client.New(cfg.Client, clockwork.NewRealClock())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (defaults and SPACES env vars apply without one)")
	rootCmd.PersistentFlags().StringVarP(&orgFlag, "org", "o", "", "organization shortcode")
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "", "API base URL, overrides client.base_url")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "bearer token, overrides client.token")

	rootCmd.AddCommand(spacesCmd(), createCmd(), settingsCmd(), setCmd(), editCmd(), statusesCmd(), profileCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func requireOrg() (string, error) {
	if orgFlag == "" {
		return "", fmt.Errorf("--org is required")
	}
	return orgFlag, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
