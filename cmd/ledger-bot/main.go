package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"poker-ledger/internal/bot"
	"poker-ledger/internal/config"
	"poker-ledger/internal/ledger"
	"poker-ledger/internal/logging"
	"poker-ledger/internal/push"
	"poker-ledger/internal/storage"
	"poker-ledger/internal/telegram"
	httptransport "poker-ledger/internal/transport/http"

	"github.com/rs/zerolog/log"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadApp()
	if err != nil {
		log.Fatal().Err(err).Msg("load config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("store init failed")
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Error().Err(err).Msg("store close failed")
		}
	}()

	policy, ok := ledger.ParseStatusPolicy(cfg.Ledger.StatusPolicy)
	if !ok {
		log.Fatal().Str("policy", cfg.Ledger.StatusPolicy).Msg("unknown LEDGER_STATUS_POLICY")
	}

	pushCfg, err := push.ConfigFromEnv(cfg.Push)
	if err != nil {
		log.Fatal().Err(err).Msg("push config failed")
	}
	pusher := push.NewManager(pushCfg)
	if err := pusher.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("push manager start failed")
	}

	svc := ledger.NewService(backend, ledger.WithStatusPolicy(policy), ledger.WithObserver(pusher))

	var webhook http.Handler
	var poller *telegram.Poller
	if cfg.Bot.Token == "" {
		log.Warn().Msg("BOT_TOKEN not set; chat transport disabled")
	} else {
		client, err := telegram.NewClient(cfg.Bot.APIBaseURL, cfg.Bot.Token, time.Duration(cfg.Bot.PollTimeout)*time.Second)
		if err != nil {
			log.Fatal().Err(err).Msg("telegram client failed")
		}
		handler := bot.NewUpdateHandler(bot.NewDispatcher(svc, cfg.Bot.IsAdmin), client)
		switch cfg.Bot.Mode {
		case config.BotModeWebhook:
			if err := client.SetWebhook(ctx, cfg.Bot.WebhookURL, cfg.Bot.WebhookSecret); err != nil {
				log.Fatal().Err(err).Msg("set webhook failed")
			}
			webhook = telegram.WebhookHandler(cfg.Bot.WebhookSecret, handler)
			log.Info().Str("url", cfg.Bot.WebhookURL).Msg("telegram webhook registered")
		default:
			// getUpdates is refused while a webhook is set.
			if err := client.DeleteWebhook(ctx, false); err != nil {
				log.Fatal().Err(err).Msg("delete webhook failed")
			}
			poller = telegram.NewPoller(client, handler, telegram.PollerConfig{
				Timeout: time.Duration(cfg.Bot.PollTimeout) * time.Second,
				Workers: cfg.Bot.Workers,
				Backoff: telegram.Backoff{
					Base: time.Duration(cfg.Bot.BackoffBaseMS) * time.Millisecond,
					Max:  time.Duration(cfg.Bot.BackoffMaxMS) * time.Millisecond,
				},
			})
		}
	}

	if cfg.Server.AdminAPIKey == "" {
		log.Warn().Msg("ADMIN_API_KEY not set; /api is open to anyone who can reach it and serves reads only")
	}
	r := httptransport.NewRouter(svc, backend, cfg.Server, webhook)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		if poller == nil {
			return
		}
		log.Info().Int("workers", cfg.Bot.Workers).Msg("telegram polling started")
		if err := poller.Run(ctx); err != nil {
			log.Error().Err(err).Msg("telegram poller stopped")
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	<-pollDone
	log.Info().Msg("bye")
}
