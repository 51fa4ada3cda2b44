package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dailytracker/backend/internal/config"
	"github.com/dailytracker/backend/internal/handler"
	"github.com/dailytracker/backend/internal/handler/ws"
	"github.com/dailytracker/backend/internal/logging"
	"github.com/dailytracker/backend/internal/service/conversation"
	"github.com/dailytracker/backend/internal/service/reminder"
	"github.com/dailytracker/backend/internal/service/report"
	"github.com/dailytracker/backend/internal/service/session"
	"github.com/dailytracker/backend/internal/storage"
	"github.com/dailytracker/backend/internal/transport"
	"github.com/dailytracker/backend/internal/transport/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Errorf("server error: %v", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	store, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Infow("entry store ready", "backend", cfg.Storage.Backend)

	sessions := session.NewStore(
		session.WithIdleTimeout(cfg.Session.IdleTimeout),
		session.WithLogger(logger),
	)
	go sessions.Run(ctx)

	reports := report.NewGenerator(store)
	hub := ws.NewHub(logger)

	// Telegram is optional; without a token only websocket clients are served.
	var bot *telegram.Bot
	if cfg.Telegram.Enabled {
		bot, err = telegram.New(cfg.Telegram, logger)
		if err != nil {
			logger.Warnw("telegram disabled", "error", err)
			bot = nil
		}
	} else {
		logger.Infof("TELEGRAM_BOT_TOKEN not set, skipping telegram transport")
	}

	var channels []transport.Channel
	channels = append(channels, hub)
	if bot != nil {
		channels = append(channels, bot)
	}
	sender := transport.NewDispatcher(channels...)

	engine := conversation.NewEngine(sessions, store, reports, sender, conversation.WithLogger(logger))

	if bot != nil {
		go bot.Run(ctx, engine)
	}

	if cfg.Reminder.Enabled {
		scheduler, err := reminder.NewScheduler(store, sender, cfg.Reminder,
			reminder.WithMenu(conversation.MainMenu()),
			reminder.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	} else {
		logger.Infof("reminders disabled by configuration")
	}

	router := handler.NewRouter(reports, hub, engine, logger)
	return startServer(ctx, cfg.Server, router, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger logging.Logger) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Infof("daily tracker backend listening on %s", addr)
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
