package main

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"

	"botsub/internal/bot"
	"botsub/internal/config"
	"botsub/internal/db"
	"botsub/internal/logger"
	"botsub/internal/worker"
	"botsub/pkg/tasks"
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
	store := db.NewStore(conn, log)

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to telegram")
	}
	sender := bot.New(api, store, nil, log)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Redis.Addr},
		asynq.Config{
			Concurrency: 2,
			// Exponential backoff: 1min, 2min, 4min, ... capped at 1h.
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := time.Minute
				for i := 0; i < n && delay < time.Hour; i++ {
					delay *= 2
				}
				if delay > time.Hour {
					delay = time.Hour
				}
				log.Warn().Err(err).Str("task", task.Type()).Int("attempt", n+1).Dur("retry_in", delay).Msg("task failed")
				return delay
			},
		},
	)

	mux := asynq.NewServeMux()
	taskHandler := worker.NewTaskHandler(store, sender, log)
	mux.HandleFunc(tasks.TypeAnnounce, taskHandler.HandleAnnounceTask)

	log.Info().Str("commit", CommitSHA).Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		log.Fatal().Err(err).Msg("could not run worker")
	}
}
