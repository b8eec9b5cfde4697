package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/fieldops/taskbot/internal/bot"
	"github.com/fieldops/taskbot/internal/lockfile"
	"github.com/fieldops/taskbot/internal/store"
	"github.com/fieldops/taskbot/internal/telegram"
	"github.com/fieldops/taskbot/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for TaskBot state data
	DefaultStateDir = "/var/lib/taskbot"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "taskbot.db"
)

func main() {
	config := loadEnvironmentConfig()
	initializeLogger(config.Debug)

	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// One TaskBot instance per state directory.
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	telegramOpts := buildTelegramOptions(flags)
	storeOpts := buildStoreOptions(flags)
	botOpts := buildBotOptions(flags)

	slog.Info("Bootstrapping TaskBot with configured modules")
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "chat_id", *flags.chatID)
	if err := bot.Run(telegramOpts, storeOpts, botOpts...); err != nil {
		slog.Error("TaskBot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("TaskBot exited successfully")
}

// Config holds environment configuration
type Config struct {
	BotToken    string
	StateDir    string
	DatabaseDSN string
	ChatID      int64
	Debug       bool
}

// Flags holds command line flag values
type Flags struct {
	botToken *string
	stateDir *string
	dbDSN    *string
	chatID   *int64
	debug    *bool
}

// initializeLogger sets up structured logging.
func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	config := Config{
		BotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		StateDir:    os.Getenv("TASKBOT_STATE_DIR"),
		DatabaseDSN: os.Getenv("DATABASE_DSN"),
		ChatID:      util.ParseInt64Env("TASKBOT_CHAT_ID", 0),
		Debug:       util.ParseBoolEnv("TASKBOT_DEBUG", false),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
	}

	// Legacy DATABASE_URL support when DATABASE_DSN is not set.
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = os.Getenv("DATABASE_URL")
	}

	// Default to SQLite in the state directory when no DSN is provided.
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = filepath.Join(config.StateDir, DefaultDBFileName)
	}

	slog.Debug("environment variables loaded",
		"TELEGRAM_BOT_TOKEN_SET", config.BotToken != "",
		"TASKBOT_STATE_DIR", config.StateDir,
		"DATABASE_DSN_SET", config.DatabaseDSN != "",
		"TASKBOT_CHAT_ID", config.ChatID,
		"TASKBOT_DEBUG", config.Debug)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		botToken: flag.String("bot-token", config.BotToken, "Telegram bot token (overrides $TELEGRAM_BOT_TOKEN)"),
		stateDir: flag.String("state-dir", config.StateDir, "state directory for TaskBot data (overrides $TASKBOT_STATE_DIR)"),
		dbDSN:    flag.String("db-dsn", config.DatabaseDSN, "database DSN for the record store (overrides $DATABASE_DSN or $DATABASE_URL)"),
		chatID:   flag.Int64("chat-id", config.ChatID, "chat id the message ledger is scoped to (overrides $TASKBOT_CHAT_ID)"),
		debug:    flag.Bool("debug", config.Debug, "enable debug logging (overrides $TASKBOT_DEBUG)"),
	}
	flag.Parse()

	// A changed state directory moves the default SQLite database with it.
	if *flags.dbDSN == config.DatabaseDSN && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
	}

	return flags
}

// ensureDirectoriesExist creates the state and database directories.
func ensureDirectoriesExist(flags Flags) error {
	if err := os.MkdirAll(*flags.stateDir, 0755); err != nil {
		return err
	}
	if store.DetectDSNType(*flags.dbDSN) == "sqlite3" {
		if err := os.MkdirAll(filepath.Dir(*flags.dbDSN), 0755); err != nil {
			return err
		}
	}
	return nil
}

// buildTelegramOptions builds telegram client options from flags.
func buildTelegramOptions(flags Flags) []telegram.Option {
	var opts []telegram.Option
	if *flags.botToken != "" {
		opts = append(opts, telegram.WithToken(*flags.botToken))
	}
	if *flags.debug {
		opts = append(opts, telegram.WithDebug())
	}
	return opts
}

// buildStoreOptions builds record store options from flags.
func buildStoreOptions(flags Flags) []store.Option {
	var opts []store.Option
	if *flags.dbDSN != "" {
		opts = append(opts, store.WithDSN(*flags.dbDSN))
	}
	return opts
}

// buildBotOptions builds bot service options from flags.
func buildBotOptions(flags Flags) []bot.Option {
	var opts []bot.Option
	if *flags.chatID != 0 {
		opts = append(opts, bot.WithChatID(*flags.chatID))
	}
	return opts
}
