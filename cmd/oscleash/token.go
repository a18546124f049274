package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/oscleash/internal/auth"
	"github.com/nerrad567/oscleash/internal/infrastructure/config"
)

// newTokenCmd builds "oscleash token", which signs an API bearer token with
// security.jwt.secret.
func newTokenCmd(configPath *string) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API bearer token",
		Long: `Mint a bearer token for the status API.

The token is signed with security.jwt.secret from the config file (or
OSCLEASH_JWT_SECRET). Viewer tokens can read every endpoint; operator tokens
can also replace settings.

Examples:
  oscleash token --subject stream-deck
  oscleash token --subject dashboard --role viewer --ttl 720h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(resolveConfigPath(*configPath))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			r, err := auth.ParseRole(role)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.TokenTTL()
			}

			token, err := auth.GenerateToken(subject, r, cfg.Security.JWT.Secret, ttl)
			if err != nil {
				return fmt.Errorf("generating token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "cli", "name recorded as the token subject")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleOperator), "viewer or operator")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default security.jwt.token_ttl)")

	return cmd
}
