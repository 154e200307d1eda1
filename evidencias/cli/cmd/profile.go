package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/transvepo/evidencias-stack/evidencias/cli/internal/config"
	"github.com/transvepo/evidencias-stack/evidencias/cli/pkg/output"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage connection profiles",
}

var profileSetCmd = &cobra.Command{
	Use:   "set NAME",
	Short: "Create or update a profile and make it current",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		p := &config.Profile{}
		if existing, err := cfg.GetProfile(name); err == nil {
			*p = *existing
		}

		if server, _ := cmd.Flags().GetString("server"); server != "" {
			p.ServerURL = server
		}
		if token, _ := cmd.Flags().GetString("token"); token != "" {
			p.Token = token
		}
		if natsURL, _ := cmd.Flags().GetString("nats"); natsURL != "" {
			p.NATSURL = natsURL
		}

		if err := cfg.SaveProfile(name, p); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		output.Success("Profile '%s' saved and selected", name)
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List profiles",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := cfg.ProfileNames()
		if len(names) == 0 {
			output.Info("No profiles configured")
			return nil
		}

		table := output.NewTable([]string{"", "Name", "Server", "NATS", "Token"})
		for _, name := range names {
			p := cfg.Profiles[name]
			current := ""
			if name == cfg.CurrentProfile {
				current = "*"
			}
			token := ""
			if p.Token != "" {
				token = "set"
			}
			table.AddRow([]string{current, name, p.ServerURL, p.NATSURL, token})
		}
		table.Render()
		return nil
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:     "remove NAME",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveProfile(args[0]); err != nil {
			return err
		}
		output.Success("Profile '%s' removed", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileRemoveCmd)

	profileSetCmd.Flags().String("nats", "", "NATS URL for events watch")
}
