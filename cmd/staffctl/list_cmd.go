package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/medinsight/staff-admin/internal/dashboard"
)

func newListCmd(a *app) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list [--search text]",
		Short: "List staff, optionally filtered by name or speciality",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.renderList(cmd, search)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive filter on nom, prenom and specialite")
	return cmd
}

func (a *app) renderList(cmd *cobra.Command, search string) error {
	list := dashboard.NewListController(a.deps(newTerminalNavigator()))
	defer list.Dispose()

	err := list.Load(cmd.Context())
	view := list.View()
	if view.PageError != "" {
		fmt.Fprintln(a.out, view.PageError)
		return err
	}
	list.SetQuery(search)
	printTable(a.out, list.Filtered())
	return nil
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one staff member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			edit := dashboard.NewEditController(a.deps(newTerminalNavigator()), id)
			defer edit.Dispose()

			if err := edit.Load(cmd.Context()); err != nil {
				fmt.Fprintln(a.out, edit.View().PageError)
				return err
			}
			printRecord(a.out, edit.View().Record)
			return nil
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid staff id %q", raw)
	}
	return id, nil
}
