package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/transvepo/evidencias-stack/evidencias/cli/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "evctl",
	Short: "Evidencias CLI",
	Long: `evctl is the command-line interface for the evidencias service.

List and update delivery orders, preview how driver messages are parsed,
mint operator tokens and watch lifecycle events from your terminal.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.evctl/config.yaml)")
	rootCmd.PersistentFlags().String("profile", "", "profile to use (default: current profile)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format: table, json")
	rootCmd.PersistentFlags().String("server", "", "evidencias base URL (overrides the profile)")
	rootCmd.PersistentFlags().String("token", "", "operator bearer token (overrides the profile)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}

// activeProfile resolves the profile for cmd, applying --server and --token.
func activeProfile(cmd *cobra.Command) config.Profile {
	if cfg == nil {
		cfg = config.Default()
	}
	name, _ := cmd.Flags().GetString("profile")
	p := cfg.Resolve(name)

	if server, _ := cmd.Flags().GetString("server"); server != "" {
		p.ServerURL = server
	}
	if token, _ := cmd.Flags().GetString("token"); token != "" {
		p.Token = token
	}
	return p
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case "table", "json":
		return format, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table or json)", format)
	}
}
