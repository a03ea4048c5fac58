package main

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-graph-mail/internal/config"
	"github.com/jrsteele09/go-graph-mail/internal/logging"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	rootCmd := &cobra.Command{
		Use:   "graph-mail",
		Short: "Web mail client backed by Microsoft Graph",
		Long: `graph-mail serves a browser mail client. Users sign in with their
Microsoft account; the server keeps their Graph tokens and proxies inbox,
send and attachment requests on their behalf.

Run without a subcommand to start the server.`,
		Version:      version,
		SilenceUsage: true,
		// No subcommand runs the server
		RunE:              serve.RunE,
		PersistentPreRunE: setupLogging,
	}
	rootCmd.Flags().AddFlagSet(serve.Flags())
	rootCmd.SetVersionTemplate(`{{printf "graph-mail version %s\n" .Version}}`)

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newCheckConfigCmd())
	return rootCmd
}

func setupLogging(_ *cobra.Command, _ []string) error {
	c := config.New()
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
