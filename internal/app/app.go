// Package app wires repositories, external adapters and services into the
// set used by the CLI and the HTTP API.
package app

import (
	"database/sql"
	"log/slog"

	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/external"
	"github.com/alexanderramin/expeditions/internal/graph"
	"github.com/alexanderramin/expeditions/internal/metrics"
	"github.com/alexanderramin/expeditions/internal/repository"
	"github.com/alexanderramin/expeditions/internal/reward"
	"github.com/alexanderramin/expeditions/internal/service"
)

// Options tunes the wiring. Zero values fall back to SQLite-backed adapters
// and a discarding logger.
type Options struct {
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	Ledger        external.RewardsLedger
	UploadDir     string
	UploadBaseURL string
}

// Services holds every use case plus the shared adapters behind them.
type Services struct {
	Graph       service.GraphService
	Progression service.ProgressionService
	Rewards     service.RewardService
	Roster      service.RosterService
	Import      service.ImportService

	Metrics *metrics.Metrics
	Storage *external.LocalStorage
	Logger  *slog.Logger
}

func Wire(database *sql.DB, opts Options) *Services {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	ledger := opts.Ledger
	if ledger == nil {
		ledger = external.NewSQLiteLedger(database)
	}

	roster := external.NewSQLiteRoster(database)
	uow := db.NewSQLiteUnitOfWork(database)
	cache := graph.NewCache()

	expRepo := repository.NewSQLiteExpeditionRepo(database)
	pinRepo := repository.NewSQLitePinRepo(database)
	connRepo := repository.NewSQLiteConnectionRepo(database)

	issuer := reward.NewIssuer(database, ledger, reward.WithLogger(logger), reward.WithMetrics(m))
	observers := []service.UseCaseObserver{
		service.NewSlogUseCaseObserver(logger),
		service.NewMetricsUseCaseObserver(m),
	}

	return &Services{
		Graph: service.NewGraphService(expRepo, pinRepo, connRepo, roster, cache, uow, observers...),
		Progression: service.NewProgressionService(service.ProgressionDeps{
			Expeditions: expRepo,
			Pins:        pinRepo,
			Connections: connRepo,
			PinProgress: repository.NewSQLitePinProgressRepo(database),
			Submissions: repository.NewSQLiteSubmissionRepo(database),
			Roster:      roster,
			Graphs:      cache,
			Issuer:      issuer,
			UoW:         uow,
			Metrics:     m,
			Logger:      logger,
		}, observers...),
		Rewards: service.NewRewardService(repository.NewSQLiteRewardGrantRepo(database), issuer, observers...),
		Roster:  service.NewRosterService(roster),
		Import:  service.NewImportService(roster, uow, observers...),

		Metrics: m,
		Storage: external.NewLocalStorage(opts.UploadDir, opts.UploadBaseURL),
		Logger:  logger,
	}
}
