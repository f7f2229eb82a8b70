package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"burn-casino/internal/config"
	"burn-casino/internal/logging"
	"burn-casino/internal/notify"
	"burn-casino/internal/session"
	"burn-casino/internal/store"
	httptransport "burn-casino/internal/transport/http"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	appCfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	if err := logging.Init(appCfg.Log); err != nil {
		panic(err)
	}
	defer func() { _ = logging.Close() }()
	cfg := appCfg.Server

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()

	notifier, closeNotifier := newNotifier(ctx, cfg)
	defer closeNotifier()

	mgr := session.NewManager(st, session.Options{
		TurnTimeout: cfg.TurnTimeout,
		AIStepDelay: cfg.AIStepDelay,
		EventBuffer: cfg.EventBuffer,
		Notifier:    notifier,
	}, cfg.MaxSessions)

	r := httptransport.NewRouter(mgr, st)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	mgr.Shutdown()
	log.Info().Msg("server stopped")
}

// openStore picks Postgres when a DSN is configured and the in-memory store
// otherwise.
func openStore(ctx context.Context, cfg config.ServerConfig) (store.SessionStore, error) {
	if cfg.PostgresDSN == "" {
		log.Warn().Msg("POSTGRES_DSN not set, sessions are kept in memory")
		return store.NewMemoryStore(), nil
	}
	pg, err := store.New(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}

func newNotifier(ctx context.Context, cfg config.ServerConfig) (notify.Dispatcher, func()) {
	if cfg.NotifyWebhookURL == "" {
		return notify.Noop{}, func() {}
	}
	wh := notify.NewWebhook(notify.Config{
		WebhookURL: cfg.NotifyWebhookURL,
		Timeout:    cfg.NotifyTimeout,
		QueueSize:  cfg.NotifyQueueSize,
		RetryMax:   cfg.NotifyRetryMax,
		RetryBase:  cfg.NotifyRetryBase,
	})
	wh.Start(ctx)
	return wh, wh.Close
}
