package main

import (
	"fmt"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/auth"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		tenant   string
		user     string
		username string
		role     string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for local development",
		Long: `Sign an access token with the configured JWT secret. Production tokens
come from the identity provider.

Example:
  tmsctl token --tenant 6f1c2f0e-8d9b-4a57-9a43-2b1a1f3c9d10 --role dispatcher`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			tenantID, err := uuid.Parse(tenant)
			if err != nil {
				return fmt.Errorf("invalid --tenant: %w", err)
			}
			userID := uuid.New()
			if user != "" {
				if userID, err = uuid.Parse(user); err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
			}
			r := shared.Role(role)
			if !r.IsValid() {
				return fmt.Errorf("unknown role %q", role)
			}

			svc, err := auth.NewTokenService(cfg.JWT)
			if err != nil {
				return err
			}
			token, expiresAt, err := svc.Issue(auth.IssueInput{
				TenantID: tenantID,
				UserID:   userID,
				Username: username,
				Role:     r,
				TTL:      ttl,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			cmd.PrintErrf("user %s, expires %s\n", userID, expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id (required)")
	cmd.Flags().StringVar(&user, "user", "", "user id (default: random)")
	cmd.Flags().StringVar(&username, "username", "dev", "display name")
	cmd.Flags().StringVar(&role, "role", string(shared.RoleAdmin), "admin, dispatcher, accounting or driver")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
