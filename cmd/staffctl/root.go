package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/medinsight/staff-admin/internal/config"
	"github.com/medinsight/staff-admin/internal/dashboard"
	"github.com/medinsight/staff-admin/internal/observability"
	"github.com/medinsight/staff-admin/pkg/staffclient"
)

type rootOptions struct {
	APIURL  string
	Verbose bool
}

// app is what every subcommand works with once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	client *staffclient.Client
	store  *staffclient.FileStore
	out    io.Writer
	in     io.Reader
}

func newRootCmd() *cobra.Command {
	var opts rootOptions
	a := &app{out: os.Stdout, in: os.Stdin}

	cmd := &cobra.Command{
		Use:           "staffctl",
		Short:         "Manage hospital staff records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, opts)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	cmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", "", "staff endpoint (overrides STAFF_API_URL)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log requests to stderr")

	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newShowCmd(a))
	cmd.AddCommand(newAddCmd(a))
	cmd.AddCommand(newEditCmd(a))
	cmd.AddCommand(newDeleteCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	return cmd
}

func (a *app) init(cmd *cobra.Command, opts rootOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.APIURL != "" {
		cfg.Dashboard.APIURL = opts.APIURL
	}
	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	logger, err := observability.NewCLILogger(level)
	if err != nil {
		return err
	}

	endpoint, err := cfg.Dashboard.Endpoint()
	if err != nil {
		return err
	}
	store := staffclient.NewFileStore(cfg.Dashboard.CredentialsFile)
	client, err := staffclient.New(endpoint,
		staffclient.WithTimeout(cfg.Dashboard.Timeout()),
		staffclient.WithTokenSource(staffclient.StoredToken{Store: store}),
		staffclient.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	a.cfg, a.logger, a.client, a.store = cfg, logger, client, store
	a.out = cmd.OutOrStdout()
	a.in = cmd.InOrStdin()
	return nil
}

// deps wires the dashboard controllers to the terminal.
func (a *app) deps(nav *terminalNavigator) dashboard.Deps {
	return dashboard.Deps{
		API:           a.client,
		Notifier:      &terminalNotifier{out: a.out, logger: a.logger},
		Navigator:     nav,
		RedirectDelay: a.cfg.Dashboard.RedirectDelay(),
		Logger:        a.logger,
	}
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
