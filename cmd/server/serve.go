package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jrsteele09/go-graph-mail/accounts"
	"github.com/jrsteele09/go-graph-mail/accounts/pgrepo"
	"github.com/jrsteele09/go-graph-mail/accounts/repofake"
	"github.com/jrsteele09/go-graph-mail/internal/config"
	"github.com/jrsteele09/go-graph-mail/internal/secrets"
	"github.com/jrsteele09/go-graph-mail/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	inMemory bool
	migrate  bool
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(opts)
		},
	}
	cmd.Flags().BoolVar(&opts.inMemory, "in-memory", false, "Keep accounts in memory instead of PostgreSQL (development only)")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "Apply database migrations before starting")
	return cmd
}

func run(opts *serveOptions) error {
	c := config.New()
	displayAppname(c.GetAppName())

	repo, err := openAccounts(c, opts)
	if err != nil {
		return err
	}

	handler, err := server.New(c, server.Dependencies{Accounts: repo})
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}

	if err := shutdown(httpServer); err != nil {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}

func openAccounts(c config.Config, opts *serveOptions) (accounts.Repo, error) {
	if opts.inMemory {
		log.Warn().Msg("using in-memory account store, accounts are lost on restart")
		return repofake.NewFakeAccountRepo(), nil
	}

	databaseURL := c.GetDatabaseURL()
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required (or run with --in-memory)")
	}
	if opts.migrate {
		if err := pgrepo.Migrate(databaseURL); err != nil {
			return nil, err
		}
	}

	cipher, err := secrets.NewCipher(c.GetTokenEncryptionKey())
	if err != nil {
		return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY: %w", err)
	}
	if !cipher.Enabled() {
		log.Warn().Msg("TOKEN_ENCRYPTION_KEY not set, provider tokens are stored unencrypted")
	}

	db, err := pgrepo.Open(databaseURL)
	if err != nil {
		return nil, err
	}
	return pgrepo.New(db, cipher), nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
