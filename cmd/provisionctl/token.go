package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
	"github.com/noah-isme/olympiad-admin-api/internal/service"
)

func newTokenCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage operator access tokens",
	}
	cmd.AddCommand(newTokenIssueCmd(root))
	return cmd
}

func newTokenIssueCmd(root *rootOptions) *cobra.Command {
	var (
		role     string
		userID   string
		email    string
		schoolID string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a bearer token for the provisioning routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := models.UserRole(strings.ToUpper(strings.TrimSpace(role)))
			if !isProvisioningRole(parsed) {
				return withCode(exitUsage, fmt.Errorf("unsupported --role: %s", role))
			}
			if parsed == models.RoleSchool && schoolID == "" {
				return withCode(exitUsage, fmt.Errorf("--school-id is required for role %s", models.RoleSchool))
			}
			if userID == "" {
				userID = uuid.NewString()
			}

			cfg, logr, err := loadConfig(root)
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
			token, expires, err := tokens.IssueToken(userID, email, parsed, schoolID, ttl)
			if err != nil {
				return err
			}
			logr.Sugar().Infow("token issued", "user_id", userID, "role", parsed, "expires_at", expires.Format(time.RFC3339))
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "SUPERADMIN|ADMIN|SCHOOL")
	cmd.Flags().StringVar(&userID, "user", "", "Subject user ID (random when empty)")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringVar(&schoolID, "school-id", "", "School bound to a SCHOOL token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func isProvisioningRole(role models.UserRole) bool {
	for _, r := range models.ProvisioningRoles {
		if r == role {
			return true
		}
	}
	return false
}
