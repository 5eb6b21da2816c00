package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lorrc/bug-burndown/internal/adapters/primary/presenter"
	"github.com/lorrc/bug-burndown/internal/config"
	apperrors "github.com/lorrc/bug-burndown/internal/core/errors"
)

type reportOptions struct {
	query  string
	format string
}

func reportCmd() *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print progress, velocity and forecasts for one search",
		Example: `  burndown report --query "component=DOM&since=2024-01-01"
  burndown report --query "whiteboard=[fission]&burnup_weight=points" --format chart`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runReport(cmd.Context(), cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Bugzilla search query string (buglist.cgi parameters)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or chart (columnar JSON)")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func runReport(ctx context.Context, cfg *config.Config, opts reportOptions, out, logOut io.Writer) error {
	if opts.format != "text" && opts.format != "chart" {
		return fmt.Errorf("unknown format %q (want text or chart)", opts.format)
	}

	// Logs go to stderr so that stdout stays machine readable
	a, err := newApp(cfg, newLogger(cfg, logOut))
	if err != nil {
		return err
	}

	report, err := a.service.Burndown(ctx, opts.query)
	if errors.Is(err, apperrors.ErrNoResults) {
		_, err = fmt.Fprintln(out, presenter.NoBugsText)
		return err
	}
	if err != nil {
		return errors.New(presenter.ErrorText(err) + ": " + err.Error())
	}

	if opts.format == "chart" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(presenter.ChartPayload(report.Series))
	}
	return presenter.WriteSummary(out, report)
}
