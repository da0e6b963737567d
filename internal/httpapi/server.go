// Package httpapi serves the expedition engine over HTTP with echo.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/alexanderramin/expeditions/internal/app"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		Debug          bool
		Services       *app.Services
		Logger         *slog.Logger
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts   *Options
		app    *echo.Echo
		logger *slog.Logger
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	logger := opts.Logger
	if logger == nil {
		logger = opts.Services.Logger
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &server{
		opts:   opts,
		app:    echo.New(),
		logger: logger,
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(requestLogger(s.logger))
	}
	// panics surface in debug mode
	if !s.opts.Debug {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.logger)
	s.app.Debug = s.opts.Debug

	svc := s.opts.Services
	s.app.GET("/", home)
	s.app.GET("/metrics", echo.WrapHandler(svc.Metrics.Handler()))
	// only path-relative base URLs are served locally
	if svc.Storage != nil && svc.Storage.Dir() != "" && strings.HasPrefix(svc.Storage.BaseURL(), "/") {
		s.app.Static(svc.Storage.BaseURL(), svc.Storage.Dir())
	}

	v1 := s.app.Group("/v1", profileMiddleware)

	registerExpeditionAPI(v1, svc.Graph, svc.Import)
	registerProgressionAPI(v1, svc.Progression)
	registerRosterAPI(v1, svc.Roster)
	registerRewardAPI(v1, svc.Rewards)
	registerUploadAPI(v1, svc.Storage)
}

func (s *server) Start() error {
	s.logger.Info("http server listening", "addr", s.opts.Address)
	if err := s.app.Start(s.opts.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Expeditions API")
}
