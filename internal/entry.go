// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/starford/mosaic/internal/api"
	"github.com/starford/mosaic/internal/dataset"
	"github.com/starford/mosaic/internal/entryservice"
	"github.com/starford/mosaic/internal/i18n"
	"github.com/starford/mosaic/internal/journal"
	"github.com/starford/mosaic/internal/mcpserver"
	"github.com/starford/mosaic/internal/menu"
	"github.com/starford/mosaic/internal/models"
	"github.com/starford/mosaic/internal/publisher"
	"github.com/starford/mosaic/internal/query"
	"github.com/starford/mosaic/internal/render"
	"github.com/starford/mosaic/internal/sse"
	"github.com/starford/mosaic/internal/storage"
	"github.com/starford/mosaic/internal/watcher"
)

// ErrNoUpstream is returned by Publish when upstream.url is empty.
var ErrNoUpstream = errors.New("upstream.url is not configured")

// components is everything the front-ends share, built once per command.
type components struct {
	log       *slog.Logger
	fs        *storage.FS
	store     *dataset.Store
	journal   *journal.DB
	svc       *entryservice.Service
	publisher *publisher.Publisher
	closers   []io.Closer
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i].Close()
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger builds the JSON logger. With app.log_file set, records are also
// written to a rotated file.
func newLogger(cfg ApplicationConfig, out io.Writer) (*slog.Logger, io.Closer) {
	var closer io.Closer = io.NopCloser(nil)
	if cfg.LogFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    1,
			MaxBackups: 7,
		}
		out = io.MultiWriter(out, rotated)
		closer = rotated
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})), closer
}

// build wires storage, journal, query, rendering and (when an upstream is
// configured) the publisher. logOut receives the log stream.
func (app *application) build(logOut io.Writer, pubOpts ...publisher.Option) (*components, error) {
	cfg := app.config
	c := &components{}

	logger, logCloser := newLogger(cfg.App, logOut)
	if app.logger != nil {
		logger = app.logger
	}
	c.log = logger
	c.closers = append(c.closers, logCloser)

	loc, err := cfg.App.Location()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("timezone: %w", err)
	}

	// Ensure dataset directory exists.
	if err := os.MkdirAll(cfg.Dataset.Dir, 0o755); err != nil {
		c.Close()
		return nil, fmt.Errorf("create dataset dir: %w", err)
	}
	c.fs, err = storage.NewFS(cfg.Dataset.Dir)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	c.store = dataset.NewStore(c.fs, cfg.Dataset.Name, cfg.Dataset.Collection)

	cat := i18n.Default()
	if cfg.Messages.Path != "" {
		if cat, err = i18n.Load(cfg.Messages.Path); err != nil {
			c.Close()
			return nil, fmt.Errorf("load messages: %w", err)
		}
	}

	c.journal, err = journal.Open(cfg.Journal.Path)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init journal: %w", err)
	}
	c.closers = append(c.closers, c.journal)

	engine := query.NewEngine(query.WithLocation(loc))
	renderer := render.New(cat, cfg.Messages.StartImage)
	dispatcher := menu.New(c.store, engine, renderer, cfg.Dataset.CalendarKind, logger)
	c.svc = entryservice.NewService(c.store, engine, renderer, dispatcher, c.journal)

	if cfg.Upstream.URL != "" {
		fetcher := publisher.NewDownloader(cfg.Upstream.URL, cfg.Dataset.Collection, cfg.Upstream.Timeout)
		opts := append([]publisher.Option{
			publisher.WithRecorder(c.journal),
			publisher.WithLocation(loc),
		}, pubOpts...)
		c.publisher = publisher.New(c.fs, c.store.Paths(), fetcher, logger, opts...)
	}

	logger.Info("Configuration loaded",
		slog.String("version", app.version),
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("dataset_dir", c.fs.Root()),
		slog.String("dataset_name", cfg.Dataset.Name),
		slog.String("upstream_url", cfg.Upstream.URL),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("timezone", loc.String()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	return c, nil
}

// Run starts the HTTP server, the dataset watcher and, when an upstream is
// configured, the publish scheduler. It returns when ctx is cancelled, a
// shutdown signal arrives or a publish fails unrecoverably.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	c, err := app.build(os.Stdout, publisher.OnPublish(func(res publisher.Result) {
		broker.Publish(sse.Event{Type: sse.TypePublishRun, Data: res})
	}))
	if err != nil {
		return err
	}
	defer c.Close()
	logger := c.log

	// Runs left "running" by a previous process never finished.
	if n, err := c.journal.MarkInterrupted(ctx); err != nil {
		logger.Warn("mark interrupted runs failed", slog.String("error", err.Error()))
	} else if n > 0 {
		logger.Warn("previous publish runs were interrupted", slog.Int64("count", n))
	}

	apiRouter := api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, logger)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Mount("/health", api.NewHealthRouter(c.svc, logger))
	r.Mount("/api", apiRouter)
	if cfg.Media.Dir != "" {
		r.Mount("/media", api.NewMediaRouter(cfg.Media.Dir))
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		w := watcher.New(c.store, c.fs.Root(), logger, func(ch watcher.Change) {
			broker.PublishDatasetEvent(ch.Kind, sse.DatasetEvent{
				File:     ch.File,
				Checksum: ch.Checksum,
				Entries:  ch.Entries,
			})
		})
		if err := w.Watch(gCtx); err != nil {
			logger.Error("dataset watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	if c.publisher != nil {
		g.Go(func() error {
			sched := publisher.NewScheduler(c.publisher, cfg.Publish.Interval, cfg.Publish.OnStart, logger)
			if err := sched.Run(gCtx); err != nil {
				return fmt.Errorf("publish scheduler: %w", err)
			}
			return nil
		})
	} else {
		logger.Info("upstream.url is empty, scheduled publishing disabled")
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// Publish performs a single publish run and returns its result. Logs go to
// stderr. An error matching apperr.ErrPublishFatal means the live dataset
// could not be restored.
func Publish(ctx context.Context, opts ...Option) (publisher.Result, error) {
	app, err := newApplication(opts)
	if err != nil {
		return publisher.Result{}, err
	}
	if app.config.Upstream.URL == "" {
		return publisher.Result{}, ErrNoUpstream
	}

	// stdout carries the result.
	c, err := app.build(os.Stderr)
	if err != nil {
		return publisher.Result{}, err
	}
	defer c.Close()

	return c.publisher.Publish(ctx)
}

// History returns the newest publish runs from the journal.
func History(ctx context.Context, limit int, opts ...Option) ([]models.PublishRun, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}

	db, err := journal.Open(app.config.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}
	defer db.Close()

	return db.List(ctx, limit)
}

// ServeMCP serves the query tools over stdin/stdout. Logs go to stderr since
// stdout carries the protocol.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	c, err := app.build(os.Stderr)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := mcpserver.New(c.svc, app.version)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}
