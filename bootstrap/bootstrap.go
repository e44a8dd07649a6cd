// Package bootstrap wires all dependencies and starts the application.
// Model documents are loaded from the configured directories, run through the
// derivation pipeline and served under the configured base path.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/artpar/modelgate/adapters/auth"
	"github.com/artpar/modelgate/adapters/email"
	"github.com/artpar/modelgate/adapters/hasher"
	apihttp "github.com/artpar/modelgate/adapters/http"
	"github.com/artpar/modelgate/adapters/metrics"
	"github.com/artpar/modelgate/config"
	chanhttp "github.com/artpar/modelgate/core/channel/http"
	"github.com/artpar/modelgate/core/events"
	"github.com/artpar/modelgate/core/openapi"
	"github.com/artpar/modelgate/core/schema"
	"github.com/artpar/modelgate/core/storage"
	"github.com/artpar/modelgate/ports"
)

// AppName is reported at the base path and in the version endpoint.
const AppName = "modelgate"

// Version is set at build time.
var Version = "dev"

// App represents the running application.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Store      *storage.SQLStore
	Metrics    *metrics.Collector
	Tokens     *auth.TokenService
	Pipeline   *Result
	Events     *events.Bus
	Docs       *openapi.Service
	Router     http.Handler
	HTTPServer *http.Server

	emailSender ports.EmailSender
	started     time.Time
	stopOnce    sync.Once
}

// Options provides optional overrides for application initialization.
type Options struct {
	// Logger replaces the logger built from the logging config.
	Logger *zerolog.Logger

	// Mailer replaces the sender built from the email config.
	Mailer ports.EmailSender

	// InstanceName is the swag instance the API document is registered under.
	InstanceName string
}

// New creates and initializes the application.
func New(cfg *config.Config) (*App, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates and initializes the application with overrides.
func NewWithOptions(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: nil config")
	}

	logger := NewLogger(cfg.Logging, os.Stdout)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	logger.Info().Str("version", Version).Msg("initializing modelgate")

	a := &App{
		Config:  cfg,
		Logger:  logger,
		started: time.Now().UTC(),
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.NewWithRegistry(reg)
		logger.Info().Msg("prometheus metrics enabled")
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Warn().Msg("auth.jwt_secret not set, using a random secret; tokens will not survive a restart")
	}
	a.Tokens = auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	a.initEvents()

	a.emailSender = opts.Mailer
	if a.emailSender == nil {
		sender, err := email.NewSender(cfg.Email.Provider, smtpConfig(cfg.Email.SMTP), logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to create email sender, verification mail disabled")
			sender = email.NoopSender{}
		}
		a.emailSender = sender
	}

	if err := a.initStore(); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if err := a.initModels(); err != nil {
		a.Store.Close()
		return nil, fmt.Errorf("init models: %w", err)
	}

	if err := a.initHTTPServer(opts.InstanceName); err != nil {
		a.Store.Close()
		return nil, fmt.Errorf("init http server: %w", err)
	}

	return a, nil
}

// initEvents subscribes the change log and the change counter to every entity event.
func (a *App) initEvents() {
	a.Events = events.NewBus(a.Logger.With().Str("component", "events").Logger())
	a.Events.Subscribe("*", func(ctx context.Context, e events.Event) error {
		a.Logger.Debug().
			Str("model", e.Model).
			Str("action", e.Action).
			Interface("id", e.ID).
			Msg("entity changed")
		if a.Metrics != nil {
			a.Metrics.EntityChanges.WithLabelValues(e.Model, e.Action).Inc()
		}
		return nil
	})
}

func (a *App) initStore() error {
	db := a.Config.Database
	if err := ensureDir(db.Driver, db.DSN); err != nil {
		return err
	}

	store, err := storage.Open(db.Driver, db.DSN)
	if err != nil {
		return err
	}
	a.Store = store
	a.Logger.Info().Str("driver", db.Driver).Msg("database initialized")
	return nil
}

func (a *App) initModels() error {
	docs, err := schema.LoadDir(a.Config.Models.Dir, a.Config.Models.DefaultDir)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		a.Logger.Warn().Str("dir", a.Config.Models.Dir).Msg("no model documents found")
	}

	res, err := Derive(context.Background(), docs, PipelineOptions{
		Store:    a.Store,
		Verifier: a.Tokens,
		Events:   a.Events,
		Metrics:  a.Metrics,
		Logger:   a.Logger,
	})
	if err != nil {
		return err
	}
	a.Pipeline = res
	return nil
}

// authHandler returns the auth routes when a User model with the auth
// properties is served.
func (a *App) authHandler() http.Handler {
	user, ok := a.Pipeline.Model("User")
	if !ok {
		return nil
	}

	h, err := chanhttp.NewAuthHandler(chanhttp.AuthOptions{
		Users:  user.Service,
		Tokens: a.Tokens,
		Hasher: hasher.NewBcrypt(0),
		Mailer: a.emailSender,
		Logger: a.Logger,
	})
	if err != nil {
		a.Logger.Info().Err(err).Msg("auth endpoints disabled")
		return nil
	}
	a.Logger.Info().Str("path", a.Config.Server.BasePath+chanhttp.AuthPath).Msg("auth endpoints enabled")
	return h.Routes()
}

func (a *App) initHTTPServer(instance string) error {
	cfg := a.Config

	routerCfg := apihttp.RouterConfig{
		Name:           AppName,
		Version:        Version,
		Started:        a.started,
		BasePath:       cfg.Server.BasePath,
		Models:         a.Pipeline.Models,
		AuthHandler:    a.authHandler(),
		Health:         apihttp.NewHealthHandler(a.Store),
		RequestTimeout: cfg.Server.RequestTimeout,
	}

	if a.Metrics != nil {
		routerCfg.MetricsHandler = a.Metrics.Handler()
		routerCfg.MetricsPath = cfg.Metrics.Path
	}

	if cfg.OpenAPI.Enabled {
		gen := openapi.NewGenerator()
		gen.SetInfo(openapi.Info{
			Title:       cfg.OpenAPI.Title,
			Version:     cfg.OpenAPI.Version,
			Description: "Generated from model definitions",
		})
		gen.SetBasePath(cfg.Server.BasePath)

		a.Docs = openapi.NewService(openapi.ServiceConfig{InstanceName: instance, Logger: a.Logger})
		if err := a.Docs.Publish(gen.Generate(a.Pipeline.Models)); err != nil {
			return err
		}
		routerCfg.OpenAPIHandler = a.Docs
		routerCfg.SwaggerInstance = a.Docs.InstanceName()
	}

	a.Router = apihttp.NewRouter(a.Logger, routerCfg)
	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("http server configured")
	return nil
}

// Run starts the HTTP server and blocks until ctx is done, a SIGINT or
// SIGTERM arrives, or the server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Str("base_path", a.Config.Server.BasePath).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.Logger.Info().Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application. Later calls do nothing.
func (a *App) Shutdown() error {
	var err error
	a.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()

		if a.HTTPServer != nil {
			if serr := a.HTTPServer.Shutdown(ctx); serr != nil {
				a.Logger.Error().Err(serr).Msg("http server shutdown error")
				err = serr
			}
		}

		if a.Store != nil {
			if cerr := a.Store.Close(); cerr != nil {
				a.Logger.Error().Err(cerr).Msg("database close error")
				if err == nil {
					err = cerr
				}
			}
		}

		a.Logger.Info().Msg("shutdown complete")
	})
	return err
}

// NewLogger builds the application logger from the logging config.
func NewLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func smtpConfig(c config.SMTPConfig) email.SMTPConfig {
	out := email.DefaultSMTPConfig()
	out.Host = c.Host
	out.Port = c.Port
	out.Username = c.Username
	out.Password = c.Password
	out.From = c.From
	out.FromName = c.FromName
	out.UseTLS = c.UseTLS
	out.UseImplicit = c.UseImplicit
	return out
}

// ensureDir creates the parent directory of a file-backed sqlite database.
func ensureDir(driver, dsn string) error {
	if driver != "sqlite3" && driver != "sqlite" {
		return nil
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	return nil
}
