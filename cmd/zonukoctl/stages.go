package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"zonuko/internal/config"
	"zonuko/internal/service"
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "Maintain child stages",
}

var stagesReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute every child's stage from their completion history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx, cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		pacing := config.LoadPacing(e.cfg.PacingConfigPath, e.log)
		changed, err := service.NewProgressService(e.db, pacing, nil, e.log).ReconcileAllStages(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reconciled stages: %d changed\n", changed)
		return nil
	},
}

func init() {
	stagesCmd.AddCommand(stagesReconcileCmd)
}
