// Command fishshop runs the Telegram storefront bot.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fishshop-bot/internal/bot"
	"fishshop-bot/internal/flow"
	"fishshop-bot/internal/moltin"
	"fishshop-bot/internal/store"
	"fishshop-bot/internal/util"
)

// Config holds environment configuration.
type Config struct {
	BotToken           string
	AdminChatID        int64
	MoltinClientID     string
	MoltinClientSecret string
	MoltinBaseURL      string
	SessionDSN         string
	Debug              bool
}

func main() {
	config := loadEnvironmentConfig()
	initializeLogger(config.Debug)

	flag.StringVar(&config.SessionDSN, "session-dsn", config.SessionDSN, "session store DSN (empty: in-memory, redis://, postgres://, or an SQLite file path)")
	flag.StringVar(&config.MoltinBaseURL, "api-base", config.MoltinBaseURL, "commerce API base URL")
	flag.BoolVar(&config.Debug, "debug", config.Debug, "enable debug logging")
	flag.Parse()

	if config.BotToken == "" {
		slog.Error("TLGM_BOT_TOKEN is required")
		os.Exit(1)
	}
	if config.MoltinClientID == "" || config.MoltinClientSecret == "" {
		slog.Error("MOLTIN_CLIENT_ID and MOLTIN_CLIENT_SECRET are required")
		os.Exit(1)
	}

	sessionStore, err := store.NewFromDSN(config.SessionDSN)
	if err != nil {
		slog.Error("Failed to open session store", "error", err)
		os.Exit(1)
	}
	defer sessionStore.Close()

	commerce := moltin.NewClient(
		config.MoltinClientID,
		config.MoltinClientSecret,
		moltin.WithBaseURL(config.MoltinBaseURL),
	)

	controller := flow.NewController(sessionStore, commerce)

	b, err := bot.New(config.BotToken, controller)
	if err != nil {
		slog.Error("Failed to create Telegram bot", "error", err)
		os.Exit(1)
	}

	// Route error-level records to the admin chat once the bot exists.
	if config.AdminChatID != 0 {
		handler := bot.NewAdminLogHandler(baseLogHandler(config.Debug), b.Sender(), config.AdminChatID)
		slog.SetDefault(slog.New(handler))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping fishshop bot",
		"session_backend_dsn_set", config.SessionDSN != "",
		"api_base", config.MoltinBaseURL,
		"admin_notifications", config.AdminChatID != 0)
	b.Start(ctx)
	slog.Info("fishshop bot exited")
}

// loadEnvironmentConfig loads configuration from environment variables and .env file.
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	return Config{
		BotToken:           os.Getenv("TLGM_BOT_TOKEN"),
		AdminChatID:        util.ParseInt64Env("ADMIN_TLGM_CHAT_ID", 0),
		MoltinClientID:     os.Getenv("MOLTIN_CLIENT_ID"),
		MoltinClientSecret: os.Getenv("MOLTIN_CLIENT_SECRET"),
		MoltinBaseURL:      util.GetenvDefault("MOLTIN_BASE_URL", moltin.DefaultBaseURL),
		SessionDSN:         os.Getenv("SESSION_DSN"),
		Debug:              util.ParseBoolEnv("FISHSHOP_DEBUG", false),
	}
}

// initializeLogger sets up structured logging on stdout.
func initializeLogger(debug bool) {
	slog.SetDefault(slog.New(baseLogHandler(debug)))
}

func baseLogHandler(debug bool) slog.Handler {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
}
