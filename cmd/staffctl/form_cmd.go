package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/medinsight/staff-admin/internal/dashboard"
)

// staffFlags mirrors the staff form fields, keyed by their wire names.
type staffFlags struct {
	values map[string]*string
	actif  bool
}

var formFields = []struct{ name, usage string }{
	{"nom", "last name"},
	{"prenom", "first name"},
	{"type", "MEDECIN, INFIRMIER, AIDE_SOIGNANT, TECHNICIEN or SECRETAIRE"},
	{"email", "email address"},
	{"telephone", "phone number"},
	{"specialite", "speciality"},
	{"numeroLicence", "licence number"},
	{"dateEmbauche", "hire date, YYYY-MM-DD"},
}

func bindStaffFlags(cmd *cobra.Command) *staffFlags {
	f := &staffFlags{values: map[string]*string{}}
	for _, field := range formFields {
		f.values[field.name] = cmd.Flags().String(field.name, "", field.usage)
	}
	cmd.Flags().BoolVar(&f.actif, "actif", true, "whether the staff member is active")
	return f
}

// apply overlays the flags the user set on base. For a new record every
// flag counts, defaults included.
func (f *staffFlags) apply(cmd *cobra.Command, base url.Values, all bool) url.Values {
	out := url.Values{}
	for k, v := range base {
		out[k] = append([]string(nil), v...)
	}
	for name, val := range f.values {
		if all || cmd.Flags().Changed(name) {
			out.Set(name, *val)
		}
	}
	if all || cmd.Flags().Changed("actif") {
		out.Set("actif", strconv.FormatBool(f.actif))
	}
	return out
}

func newAddCmd(a *app) *cobra.Command {
	var flags *staffFlags

	cmd := &cobra.Command{
		Use:   "add --nom <nom> --prenom <prenom> --type <type> --email <email> --telephone <tel>",
		Short: "Add a staff member",
		RunE: func(cmd *cobra.Command, _ []string) error {
			nav := newTerminalNavigator()
			add := dashboard.NewAddController(a.deps(nav))
			defer add.Dispose()

			err := add.Submit(cmd.Context(), flags.apply(cmd, url.Values{}, true))
			if err := a.reportSubmit(err, add.View().Form.Errors, add.View().PageError); err != nil {
				return err
			}
			return a.followNavigation(cmd, nav)
		},
	}
	flags = bindStaffFlags(cmd)
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var flags *staffFlags

	cmd := &cobra.Command{
		Use:   "edit <id> [--field value ...]",
		Short: "Edit a staff member; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			nav := newTerminalNavigator()
			edit := dashboard.NewEditController(a.deps(nav), id)
			defer edit.Dispose()

			if err := edit.Load(cmd.Context()); err != nil {
				fmt.Fprintln(a.out, edit.View().PageError)
				return err
			}
			values := flags.apply(cmd, edit.View().Form.Values, false)
			err = edit.Submit(cmd.Context(), values)
			if err := a.reportSubmit(err, edit.View().Form.Errors, edit.View().PageError); err != nil {
				return err
			}
			return a.followNavigation(cmd, nav)
		},
	}
	flags = bindStaffFlags(cmd)
	return cmd
}

func (a *app) reportSubmit(err error, fieldErrors map[string]string, pageError string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, dashboard.ErrInvalidForm):
		fmt.Fprintln(a.out, "invalid input:")
		printFieldErrors(a.out, fieldErrors)
	case pageError != "":
		fmt.Fprintln(a.out, pageError)
	}
	return err
}

// followNavigation waits for the controller's redirect and renders the target.
func (a *app) followNavigation(cmd *cobra.Command, nav *terminalNavigator) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Dashboard.RedirectDelay()+a.cfg.Dashboard.Timeout())
	defer cancel()

	route, err := nav.wait(ctx)
	if err != nil {
		a.logger.Debug("no navigation requested", zap.Error(err))
		return nil
	}
	a.logger.Debug("navigating", zap.String("route", route))
	if route == dashboard.RouteList {
		return a.renderList(cmd, "")
	}
	return nil
}
