package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"etuition/config"
	"etuition/internal/delivery"
	"etuition/internal/delivery/http/middleware"
	"etuition/internal/delivery/http/router"
	"etuition/internal/delivery/http/validator"
	"etuition/internal/delivery/http/view"
	deliverymiddleware "etuition/internal/delivery/middleware"
	"etuition/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	slogecho "github.com/samber/slog-echo"
	"go.uber.org/fx"
)

const (
	shutdownTimeout = 10 * time.Second
	maxBodySize     = "1M"
)

type HTTPParams struct {
	fx.In
	fx.Lifecycle

	Config          *config.Config
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
	ErrorMiddleware *middleware.ErrorMiddleware
	RouterParams    router.RouterParams
}

type httpServer struct {
	cfg    *config.Config
	logger *slog.Logger
	server *echo.Echo
}

func NewServer(params HTTPParams) (delivery.Delivery, error) {
	echoServer, err := newEcho(params)
	if err != nil {
		return nil, err
	}

	delivery := &httpServer{
		cfg:    params.Config,
		logger: params.Logger,
		server: echoServer,
	}

	params.Append(fx.Hook{
		OnStop: delivery.stop,
	})

	return delivery, nil
}

func newEcho(params HTTPParams) (*echo.Echo, error) {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Server.ReadTimeout = params.Config.HTTP.Timeouts.ReadTimeout
	echoServer.Server.ReadHeaderTimeout = params.Config.HTTP.Timeouts.ReadHeaderTimeout
	echoServer.Server.WriteTimeout = params.Config.HTTP.Timeouts.WriteTimeout
	echoServer.Server.IdleTimeout = params.Config.HTTP.Timeouts.IdleTimeout

	// Recover first to catch panics of everything below
	echoServer.Use(echomiddleware.Recover())

	// Request ID before the loggers so they carry it
	requestIDMiddleware := deliverymiddleware.NewRequestIDMiddleware(params.Logger)
	echoServer.Use(requestIDMiddleware.Process)
	echoServer.Use(slogecho.New(params.Logger))
	loggerMiddleware := deliverymiddleware.NewLoggerMiddleware(params.Logger, params.Config)
	echoServer.Use(loggerMiddleware.Handle)

	echoServer.Use(echomiddleware.BodyLimit(maxBodySize))

	renderer, err := view.New()
	if err != nil {
		return nil, err
	}
	echoServer.Renderer = renderer
	echoServer.Validator = validator.New()
	echoServer.HTTPErrorHandler = params.ErrorMiddleware.HandleHTTPError

	if params.Config.Metrics.Enabled {
		echoServer.GET(params.Config.Metrics.Path, echo.WrapHandler(params.Metrics.Handler()))
	}

	router.NewRouter(params.RouterParams).RegisterRoutes(echoServer)

	return echoServer, nil
}

func (s *httpServer) Serve(ctx context.Context) error {
	hostPort := net.JoinHostPort("0.0.0.0", strconv.Itoa(s.cfg.HTTP.Port))
	s.logger.Info("Starting HTTP server", slog.String("hostPort", hostPort))
	if err := s.server.Start(hostPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to serve http")
	}

	return nil
}

func (s *httpServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")

	return errors.WithStack(s.server.Shutdown(shutdownCtx))
}
