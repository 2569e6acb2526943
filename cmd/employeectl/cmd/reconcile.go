package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/corpdesk/employee-portal/internal/bootstrap"
)

var reconcilePurge bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Report accounts and employee records that lost their counterpart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("purge") {
			cfg.Reconcile.PurgeOrphans = reconcilePurge
		}
		return withContainer(cmd.Context(), func(c *bootstrap.Container) error {
			report, err := c.Reconciler.Run(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		})
	},
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcilePurge, "purge", false, "delete accounts that have no employee record")
	rootCmd.AddCommand(reconcileCmd)
}
