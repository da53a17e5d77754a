package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"

	"aijudge/pkg/config"
	"aijudge/pkg/inference"
	"aijudge/pkg/judge"
	"aijudge/pkg/queue"
	"aijudge/pkg/queue/slack"
	"aijudge/pkg/server"
	"aijudge/pkg/store"
	"aijudge/pkg/utils"
)

func main() {
	if err := run(); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := utils.NewLogger(cfg.Log)

	pool, err := store.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := store.Migrate(ctx, pool, logger.With("component", "migrate")); err != nil {
			return err
		}
	}

	model := cfg.LLM.Model
	inf, err := inference.New(ctx, cfg.LLM)
	switch {
	case errors.Is(err, inference.ErrNoCredential):
		logger.Warn("no LLM credential configured, serving mock judgments", "provider", cfg.LLM.Provider)
		inf = nil
	case err != nil:
		return err
	default:
		if m, ok := inf.(interface{ Model() string }); ok {
			model = m.Model()
		}
		logger.Info("LLM backend ready", "provider", cfg.LLM.Provider, "model", model)
	}

	j := judge.New(inf, judge.Options{
		Model:       model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
		CountTokens: cfg.LLM.CountTokens,
		Logger:      logger,
	})

	var notifier queue.Queue
	if cfg.Slack.Enabled() {
		q := slack.New(slack.NewClient(cfg.Slack.Token), cfg.Slack.Channel, cfg.Slack.QueueSize, logger)
		q.Start()
		defer q.Stop()
		notifier = q
	}

	srv := server.NewServer(cfg, server.Deps{
		Judge:    j,
		Logs:     store.NewRequestLogRepo(pool),
		Users:    store.NewUserRepo(pool),
		Notifier: notifier,
		Logger:   logger,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
