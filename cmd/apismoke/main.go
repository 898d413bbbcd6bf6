package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hazz-dev/apismoke/internal/version"
)

const envPrefix = "APISMOKE"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "apismoke",
		Short:        "Smoke-test HTTP endpoints described in a config file",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), viper.GetString("log-level"), viper.GetBool("no-color"))
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}
	root.PersistentFlags().StringP("config", "c", "config.json", "config file path (JSON or YAML)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("no-color", false, "disable colored log output")
	bindFlags(root)

	root.AddCommand(versionCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(serveCmd())

	return root
}

// bindFlags makes every persistent and local flag of cmd overridable via
// APISMOKE_<FLAG> environment variables.
func bindFlags(cmd *cobra.Command) {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlags(cmd.PersistentFlags())
	_ = viper.BindPFlags(cmd.Flags())
}

func newLogger(w io.Writer, level string, noColor bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if f, ok := w.(*os.File); ok && !isatty.IsTerminal(f.Fd()) {
		noColor = true
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	})), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "apismoke %s\n", version.String())
		},
	}
}
