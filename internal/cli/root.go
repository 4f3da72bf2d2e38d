package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pratik-mahalle/soar/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// remoteAnnotation marks commands that talk to a running API server
const remoteAnnotation = "soar/remote"

var (
	cfgFile      string
	outputFormat string
	serverURL    string
	apiClient    *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "soar",
	Short: "SOAR CLI - incident response playbook engine",
	Long: `soar selects and runs incident response playbooks for critical
infrastructure alerts. Incidents can be processed locally with "soar run"
or submitted to a running API server with "soar incidents submit".`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isRemote(cmd) {
			return initClient()
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.soar/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "F", "", "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (overrides config)")

	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("server_url", rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newPlaybooksCmd())
	rootCmd.AddCommand(newIsolateCmd())
	rootCmd.AddCommand(newIncidentsCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newMigrateCmd())
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".soar"), nil
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		_ = os.MkdirAll(dir, 0700)
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SOAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server_url", "http://localhost:8080")
	viper.SetDefault("output", "table")

	_ = viper.ReadInConfig()
}

func isRemote(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[remoteAnnotation] == "true" {
			return true
		}
	}
	return false
}

func remote() map[string]string {
	return map[string]string{remoteAnnotation: "true"}
}

func initClient() error {
	url := viper.GetString("server_url")
	if serverURL != "" {
		url = serverURL
	}

	apiClient = client.NewClient(client.Config{
		BaseURL: url,
		Token:   viper.GetString("auth.token"),
	})
	return nil
}

func getOutputFormat() string {
	if outputFormat != "" {
		return outputFormat
	}
	if f := viper.GetString("output"); f != "" {
		return f
	}
	return "table"
}
