package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/willemschots/signin/assets"
	"github.com/willemschots/signin/internal"
	"github.com/willemschots/signin/internal/auth"
	authdb "github.com/willemschots/signin/internal/auth/db"
	"github.com/willemschots/signin/internal/db"
	"github.com/willemschots/signin/internal/db/migrate"
	"github.com/willemschots/signin/internal/krypto"
	"github.com/willemschots/signin/internal/metrics"
	"github.com/willemschots/signin/internal/web"
	"github.com/willemschots/signin/internal/web/sessions"
	"github.com/willemschots/signin/internal/web/view"
	"github.com/willemschots/signin/migrations"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Stderr))
}

func run(ctx context.Context, w io.Writer) int {
	logger := slog.New(slog.NewTextHandler(w, nil))

	cfg, err := configFromEnv()
	if err != nil {
		logger.Error("failed to get config from environment", "error", err)
		return 1
	}

	pools, err := db.OpenPools(ctx, cfg.db.file)
	if err != nil {
		logger.Error("failed to open database", "error", err, "file", cfg.db.file)
		return 1
	}
	defer func() {
		err := pools.Close()
		if err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	if cfg.db.migrate {
		logger.Info("attempting to migrate database", "file", cfg.db.file)

		ran, err := migrate.RunFS(ctx, pools.Write, migrations.FS, migrate.BuildMetadata())
		if err != nil {
			logger.Error("failed to migrate database", "error", err)
			return 1
		}

		for _, m := range ran {
			logger.Info("migration ran", "sequence", m.Sequence, "filename", m.Filename)
		}
	}

	encryptor, err := krypto.NewEncryptor(cfg.db.encryptionKeys)
	if err != nil {
		logger.Error("failed to create encryptor", "error", err)
		return 1
	}

	store := authdb.New(pools.Read, pools.Write, encryptor, cfg.db.blindIndexKey)
	m := metrics.New()

	audit := auth.MultiAudit{
		auth.NewLogAudit(logger),
		auth.NewStoreAudit(store, func(err error) {
			logger.Error("failed to record login attempt", "error", err)
		}),
		m,
	}

	decider, err := auth.NewDecider(store, audit, cfg.auth)
	if err != nil {
		logger.Error("failed to create decider", "error", err)
		return 1
	}

	var viewRenderer web.ViewRenderer
	if cfg.http.viewDir != "" {
		logger.Info("loading templates from disk", "dir", cfg.http.viewDir)
		viewRenderer = view.NewFSRenderer(os.DirFS(cfg.http.viewDir))
	} else {
		viewRenderer, err = view.NewMemRenderer(assets.TemplateFS)
		if err != nil {
			logger.Error("failed to parse embedded templates", "error", err)
			return 1
		}
	}

	sessionStore, err := sessions.NewCookieStore(cfg.http.sessionKey, cfg.http.secureCookie)
	if err != nil {
		logger.Error("failed to create session store", "error", err)
		return 1
	}

	server := web.NewServer(&web.ServerDeps{
		Logger:       logger,
		ViewRenderer: viewRenderer,
		Decider:      decider,
		SessionStore: sessionStore,
		DistFS:       http.FS(assets.DistFS),
		Metrics:      m,
	})

	srv := &http.Server{
		Addr:         cfg.http.addr,
		ReadTimeout:  cfg.http.readTimeout,
		WriteTimeout: cfg.http.writeTimeout,
		IdleTimeout:  cfg.http.idleTimeout,
		Handler:      server,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	// We need to run two tasks concurrently:
	// - Listen and serving of the HTTP server.
	// - Waiting for a signal to stop the server.

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server",
			"addr", cfg.http.addr,
			"version", internal.Version(),
			"buildRevisionTime", internal.BuildRevisionTime,
		)
		// ListenAndServe always returns a non-nil error,
		// g will cancel gCtx when an error is returned, so
		// this will also stop the other goroutine.
		return srv.ListenAndServe()
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("stopping http server")

		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.http.shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutCtx)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server stopped with error", "error", err)
		return 1
	}

	logger.Info("http server stopped successfully")

	return 0
}
