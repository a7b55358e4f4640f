package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/labkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/labkeeper/internal/client/cli"
	"github.com/dmitrijs2005/labkeeper/internal/client/config"
	"github.com/dmitrijs2005/labkeeper/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:          "labkeeper",
	Short:        "Offline-first lab notebook with a visible sync queue",
	Long:         `LabKeeper keeps notebook entries locally and pushes every saved change through a retryable queue. Without a subcommand it starts the interactive shell.`,
	Version:      buildinfo.Version,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		buildinfo.PrintBuildData(cmd.OutOrStdout())
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return app.Run(ctx)
		})
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringP("config", "c", "", "path to a JSON or TOML config file")
	f.StringP("addr", "a", "", "address and port of the sync receiver")
	f.IntP("interval", "i", 0, "online check interval in seconds")
	f.StringP("data-dir", "d", "", "data directory")
	f.StringP("remote", "r", "", "remote mode (simulator|grpc)")
	f.StringP("status-addr", "s", "", "address of the status API, empty to disable")

	rootCmd.AddCommand(exportCmd, searchCmd, calendarCmd)
}

// configArgs turns the flags set on the command line back into the short
// form the config loader reads.
func configArgs(cmd *cobra.Command) []string {
	var args []string
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Shorthand != "" {
			args = append(args, "-"+f.Shorthand, f.Value.String())
		}
	})
	return args
}

// withApp loads the configuration, opens the notebook and runs fn with it.
// Interrupts cancel the context passed to fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *cli.App) error) error {
	cfg, err := config.LoadConfig(configArgs(cmd))
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger, closer := logging.NewFileLogger(logging.FileOptions{Path: cfg.LogFile, MaxSizeMB: 10, MaxBackups: 3, Level: level})
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	return fn(ctx, app)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
