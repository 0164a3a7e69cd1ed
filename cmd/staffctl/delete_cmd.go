package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medinsight/staff-admin/internal/dashboard"
)

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a staff member after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			list := dashboard.NewListController(a.deps(newTerminalNavigator()))
			defer list.Dispose()

			list.RequestDelete(id)
			if !yes && !confirm(a.in, a.out, fmt.Sprintf("Delete staff %d?", id)) {
				list.CancelDelete()
				fmt.Fprintln(a.out, "cancelled")
				return nil
			}
			if err := list.ConfirmDelete(cmd.Context()); err != nil {
				return err
			}
			printTable(a.out, list.View().Records)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
