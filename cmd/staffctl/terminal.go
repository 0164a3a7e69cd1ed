package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/medinsight/staff-admin/internal/dashboard"
	"github.com/medinsight/staff-admin/pkg/staffclient"
)

type terminalNotifier struct {
	out    io.Writer
	logger *zap.Logger
}

func (n *terminalNotifier) Notify(note dashboard.Notification) {
	n.logger.Debug("notification", zap.String("severity", string(note.Severity)), zap.String("message", note.Message))
	fmt.Fprintf(n.out, "[%s] %s\n", note.Severity, note.Message)
}

// terminalNavigator hands the requested route to whoever waits on it.
type terminalNavigator struct {
	routes chan string
}

func newTerminalNavigator() *terminalNavigator {
	return &terminalNavigator{routes: make(chan string, 1)}
}

func (n *terminalNavigator) Navigate(path string) {
	select {
	case n.routes <- path:
	default:
	}
}

// wait blocks until a navigation is requested or ctx ends.
func (n *terminalNavigator) wait(ctx context.Context) (string, error) {
	select {
	case path := <-n.routes:
		return path, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func printTable(out io.Writer, records []staffclient.Staff) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOM\tPRENOM\tTYPE\tSPECIALITE\tEMAIL\tTELEPHONE\tACTIF")
	for _, s := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			s.ID, s.Nom, s.Prenom, s.Type, s.Specialite, s.Email, s.Telephone, s.Actif)
	}
	_ = tw.Flush()
}

func printRecord(out io.Writer, s staffclient.Staff) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"id", fmt.Sprint(s.ID)},
		{"nom", s.Nom},
		{"prenom", s.Prenom},
		{"type", s.Type},
		{"email", s.Email},
		{"telephone", s.Telephone},
		{"specialite", s.Specialite},
		{"numeroLicence", s.NumeroLicence},
		{"dateEmbauche", s.DateEmbauche},
		{"actif", fmt.Sprint(s.Actif)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}
	_ = tw.Flush()
}

func printFieldErrors(out io.Writer, errs map[string]string) {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(out, "  %s: %s\n", f, errs[f])
	}
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	var answer string
	if _, err := fmt.Fscanln(in, &answer); err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
