package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"zonuko/internal/repository"
	"zonuko/internal/security"
	"zonuko/internal/service"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage child API tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a bearer token for a child",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		childID, _ := cmd.Flags().GetInt64("child-id")
		if childID <= 0 {
			return errors.New("--child-id is required")
		}
		ttl, _ := cmd.Flags().GetDuration("ttl")

		ctx := cmd.Context()
		e, err := openEnv(ctx, cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		child, err := repository.NewChildRepository(e.db).GetChild(ctx, childID)
		if err != nil {
			return err
		}
		if child == nil {
			return fmt.Errorf("%w: %d", service.ErrChildNotFound, childID)
		}

		if ttl <= 0 {
			ttl = e.cfg.ChildTokenTTL
		}
		tokens, err := security.NewChildTokens(e.cfg.ChildTokenSecret, ttl)
		if err != nil {
			return err
		}
		signed, expires, err := tokens.Issue(child.ID, string(child.AgeBand))
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), signed)
		e.log.Info("Issued child token", "child_id", child.ID, "expires", expires.Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().Int64("child-id", 0, "Child id the token identifies")
	tokenIssueCmd.Flags().Duration("ttl", 0, "Token lifetime (default: CHILD_TOKEN_TTL)")

	tokenCmd.AddCommand(tokenIssueCmd)
}
