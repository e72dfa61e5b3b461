package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"golang.org/x/time/rate"

	"botsub/internal/bot"
	"botsub/internal/config"
	"botsub/internal/db"
	"botsub/internal/handlers"
	"botsub/internal/logger"
	"botsub/internal/middleware"
	"botsub/internal/triggers"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New("info")
		l.Fatal().Err(err).Msg("loading config")
	}
	log := logger.New(cfg.LogLevel)

	conn, err := db.Connect(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to database")
	}
	defer conn.Close()
	log.Info().Str("driver", cfg.Database.Driver).Msg("database connection established")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := db.NewStore(conn, log)
	if err := store.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("bootstrapping schema")
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr})
	defer asynqClient.Close()

	if cfg.Telegram.BotToken != "" {
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			log.Fatal().Err(err).Msg("connecting to telegram")
		}
		log.Info().Str("account", api.Self.UserName).Msg("telegram bot authorized")
		go bot.New(api, store, triggers.New(store, log), log).Run(ctx)
	} else {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN is not set, bot disabled")
	}

	h := handlers.New(store, asynqClient, log)
	limiter := middleware.NewRateLimiter(rate.Limit(cfg.Server.RateLimitRPS), cfg.Server.RateLimitBurst, log)
	router := handlers.NewRouter(h,
		middleware.Auth(cfg.Telegram.BotToken, cfg.Telegram.AdminIDs, log),
		limiter.Middleware,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutting down server")
		}
	}()

	log.Info().Str("port", cfg.Server.Port).Str("commit", CommitSHA).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("serving")
	}
}
