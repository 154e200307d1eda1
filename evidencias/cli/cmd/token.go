package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/transvepo/evidencias-stack/evidencias/cli/pkg/output"
	"github.com/transvepo/evidencias-stack/evidencias/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Operator token management",
	Long:  "Mint bearer tokens for the operator dashboard API",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue an operator token",
	Long: `Issue an HS256 operator token signed with the service's auth.jwt_secret.
The secret can also be passed through EVIDENCIAS_AUTH_JWT_SECRET.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, _ := cmd.Flags().GetString("secret")
		if secret == "" {
			secret = os.Getenv("EVIDENCIAS_AUTH_JWT_SECRET")
		}
		subject, _ := cmd.Flags().GetString("subject")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		if subject == "" {
			return fmt.Errorf("subject is required")
		}

		manager, err := auth.NewTokenManager(secret)
		if err != nil {
			return fmt.Errorf("failed to create token manager: %w", err)
		}

		token, err := manager.Issue(subject, ttl)
		if err != nil {
			return fmt.Errorf("failed to issue token: %w", err)
		}

		if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
			fmt.Fprintln(output.Stdout, token)
			return nil
		}

		if ttl <= 0 {
			ttl = auth.DefaultTTL
		}
		output.Success("Token issued for %s", subject)
		output.Info("Expires: %s", time.Now().Add(ttl).Format(time.RFC3339))
		output.Info("%s", token)
		output.Info("\nUse this token with:")
		output.Info("  evctl --token <token> ordenes list")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenIssueCmd)

	tokenIssueCmd.Flags().String("secret", "", "signing secret (auth.jwt_secret)")
	tokenIssueCmd.Flags().String("subject", "", "operator name")
	tokenIssueCmd.Flags().Duration("ttl", auth.DefaultTTL, "token lifetime")
	tokenIssueCmd.Flags().BoolP("quiet", "q", false, "print only the token")
}
