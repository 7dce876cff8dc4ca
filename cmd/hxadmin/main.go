// Command hxadmin serves the back office.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	hxadminecho "github.com/pthm/hxadmin/adapters/echo"
	"github.com/pthm/hxadmin/internal/config"
	"github.com/pthm/hxadmin/internal/devapi"
	"github.com/pthm/hxadmin/internal/menu"
	"github.com/pthm/hxadmin/internal/pages"
	"github.com/pthm/hxadmin/rest"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hxadmin: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m, err := menu.Load(cfg.MenuFile)
	if err != nil {
		return err
	}

	client, err := rest.NewClient(cfg.APIRoot, rest.WithToken(cfg.APIToken), rest.WithLogger(logger))
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.Debug
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.LogAttrs(c.Request().Context(), slog.LevelDebug, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	var opts []hxadminecho.Option
	if cfg.SecretKey != nil {
		opts = append(opts, hxadminecho.WithKey(cfg.SecretKey))
	}
	reg := hxadminecho.Mount(e, opts...)
	pages.Register(e, reg, pages.Deps{
		Transport: client,
		PageSize:  cfg.PageSize,
		Logger:    logger,
	}, pages.Layout("Back office", m))

	if cfg.DevAPI {
		dev := devapi.NewServer(devapi.Seed(time.Now()), logger)
		e.Any("/api/*", echo.WrapHandler(http.StripPrefix("/api", dev)))
		logger.InfoContext(ctx, "serving the in-memory backend", "path", "/api")
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      otelhttp.NewHandler(e, "hxadmin"),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errResult := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "listening", "addr", cfg.Addr, "api_root", cfg.APIRoot)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errResult <- err
		}
		close(errResult)
	}()

	select {
	case err := <-errResult:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
