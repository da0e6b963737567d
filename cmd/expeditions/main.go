package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/alexanderramin/expeditions/internal/app"
	"github.com/alexanderramin/expeditions/internal/cli"
	"github.com/alexanderramin/expeditions/internal/config"
	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/httpapi"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configFlag picks --config out of the arguments before cobra parses them,
// since the services are wired from the loaded config.
func configFlag(args []string) string {
	fs := pflag.NewFlagSet("expeditions", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	path := fs.String("config", "", "")
	_ = fs.Parse(args)
	return *path
}

func run() error {
	cfg, err := config.Load(configFlag(os.Args[1:]))
	if err != nil {
		return err
	}
	logger := cfg.Logger(os.Stderr)

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	svc := app.Wire(database, app.Options{
		Logger:        logger,
		UploadDir:     cfg.UploadDir,
		UploadBaseURL: cfg.UploadBaseURL,
	})

	a := &cli.App{
		Graph:       svc.Graph,
		Progression: svc.Progression,
		Rewards:     svc.Rewards,
		Roster:      svc.Roster,
		Import:      svc.Import,
		Profile:     cfg.Profile,
		RetryLimit:  cfg.RewardRetryLimit,
	}
	a.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}
	a.Serve = func(ctx context.Context) error {
		srv := httpapi.NewServer(&httpapi.Options{
			Address:        cfg.Addr,
			DisableReqLogs: !cfg.RequestLogs,
			Debug:          cfg.Debug,
			Services:       svc,
			Logger:         logger,
		})

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("http server shutting down")
		return srv.Stop(shutdownCtx)
	}

	return cli.NewRootCmd(a).ExecuteContext(context.Background())
}
