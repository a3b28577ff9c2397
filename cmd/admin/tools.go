package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/recipe-admin/internal/config"
	"github.com/spec-kit/recipe-admin/internal/session"
)

// routesCmd prints the effective route policy so operators can check a
// policy file before deploying it.
func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the effective route access policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			policy, err := session.LoadPolicy(cfg.Session.PolicyPath)
			if err != nil {
				return err
			}
			for _, rule := range policy.Rules() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-40s %v\n", rule.Prefix, rule.Roles)
			}
			return nil
		},
	}
}

// hashCmd produces a bcrypt hash for OPS_BASIC_AUTH_PASSWORD_HASH.
func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <password>",
		Short: "Hash a password for the ops basic-auth config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
}
