package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"navigator-bot/internal/analytics"
	"navigator-bot/internal/assistant"
	"navigator-bot/internal/auth"
	"navigator-bot/internal/broadcast"
	"navigator-bot/internal/config"
	"navigator-bot/internal/content"
	"navigator-bot/internal/dialogue"
	"navigator-bot/internal/journal"
	"navigator-bot/internal/llm"
	"navigator-bot/internal/router"
	"navigator-bot/internal/scheduler"
	"navigator-bot/internal/session"
	"navigator-bot/internal/store"
	"navigator-bot/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Warn(".env file not loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("bot failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := store.NewSQLiteStore(cfg.DatabasePath, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	texts, err := content.Load(cfg.ContentPath, cfg.MediaDir)
	if err != nil {
		return err
	}

	factory := &llm.Factory{
		OpenAIAPIKey:       cfg.OpenAIAPIKey,
		OpenAIBaseURL:      cfg.OpenAIBaseURL,
		OpenRouterReferrer: cfg.OpenRouterReferrer,
		OpenRouterTitle:    cfg.OpenRouterTitle,
		YandexOAuthToken:   cfg.YandexOAuthToken,
		YandexFolderID:     cfg.YandexFolderID,
	}
	client, err := factory.CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
	if err != nil {
		return fmt.Errorf("creating llm client: %w", err)
	}

	var rec journal.Recorder
	if cfg.JournalPath != "" {
		fr, err := journal.NewFileRecorder(cfg.JournalPath)
		if err != nil {
			logger.Warn("question journal disabled", "path", cfg.JournalPath, "error", err)
		} else {
			rec = fr
		}
	}

	bot, err := telegram.New(cfg.TelegramBotToken,
		telegram.WithParseMode(cfg.MessageParseMode),
		telegram.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("connecting to telegram: %w", err)
	}
	transport := bot.Transport()

	admins := auth.New(cfg.AdminChatIDs, cfg.AdminUserIDs)
	env := &dialogue.Env{
		Transport: transport,
		Sessions:  session.NewMemoryStore(),
		Locks:     session.NewLocks(),
		Events:    db,
		Users:     db,
		Broadcaster: broadcast.New(transport,
			broadcast.WithWorkers(cfg.BroadcastWorkers),
			broadcast.WithRecipientTimeout(cfg.BroadcastTimeout),
			broadcast.WithLogger(logger)),
		Assistant:  assistant.New(client, logger),
		Journal:    rec,
		AdminChat:  admins.NotifyChat(),
		BasePrompt: texts.SystemPrompt,
		Logger:     logger,
	}

	stats := analytics.New(db, rec)
	r := router.New(env, dialogue.NewEngine(), texts, admins, router.WithStats(stats))

	if cfg.ReportSchedule != "" {
		sched := scheduler.New(logger)
		err := sched.Add("daily_report", cfg.ReportSchedule, func(ctx context.Context) error {
			rep, err := stats.Build(ctx)
			if err != nil {
				return err
			}
			_, err = transport.SendText(ctx, env.AdminChat, rep.Format(), nil)
			return err
		})
		if err != nil {
			return fmt.Errorf("scheduling daily report: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	logger.Info("navigator bot started",
		"provider", cfg.LLMProvider,
		"admin_chats", len(cfg.AdminChatIDs),
		"sections", len(texts.Sections))
	bot.Start(ctx, r)
	return nil
}
