package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hazz-dev/apismoke/internal/checker"
	"github.com/hazz-dev/apismoke/internal/config"
	"github.com/hazz-dev/apismoke/internal/report"
)

var errChecksFailed = errors.New("one or more checks failed")

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run every configured endpoint check once and write a JSON report",
		RunE:  runCheck,
	}
	cmd.Flags().StringP("output", "o", "", "path of the JSON report to write (required)")
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	return cmd
}

func runCheck(cmd *cobra.Command, _ []string) error {
	output := viper.GetString("output")
	if output == "" {
		return fmt.Errorf("an --output path for the report is required")
	}

	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.Info("config loaded", "services", len(cfg.Services), "endpoints", cfg.EndpointCount())

	engine := checker.New(&http.Client{}, checker.WithLogger(slog.Default()))
	return executeCheck(cmd.Context(), cmd.OutOrStdout(), engine, cfg, output)
}

// executeCheck runs the pass, printing one line per check to out, then
// writes the report and the summary. It returns errChecksFailed when any
// check failed.
func executeCheck(ctx context.Context, out io.Writer, engine *checker.Engine, cfg *config.Config, output string) error {
	engine.SetOnResult(func(r checker.CheckResult) {
		fmt.Fprintln(out, report.Line(r))
	})

	rep := engine.Run(ctx, cfg.Services)

	if err := report.Write(output, rep); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	slog.Debug("report written", "path", output)

	report.PrintSummary(out, rep.Summary)

	if rep.Failed() {
		return errChecksFailed
	}
	return nil
}
