package main

import (
	"context"

	"github.com/dmitrijs2005/labkeeper/internal/client/cli"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <entry>",
	Short: "Export an entry as Markdown, HTML or a zip bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return app.Export(ctx, []string{args[0], exportFormat, exportOut})
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over entry titles, tags and content",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return app.Search(ctx, args)
		})
	},
}

var calendarCmd = &cobra.Command{
	Use:     "calendar [day]",
	Aliases: []string{"cal"},
	Short:   "List the entries of a day, e.g. \"yesterday\" or \"last friday\"",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return app.Calendar(ctx, args)
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md", "output format (md|html|zip)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, stdout when empty")
}
