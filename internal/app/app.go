package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"library/internal/bot"
	"library/internal/config"
	"library/internal/httpapi"
	"library/internal/library"
	"library/internal/logging"
	"library/internal/schema"
	"library/internal/seed"
	"library/internal/storage"
	"library/internal/storage/ch"
	"library/internal/storage/file"
	"library/internal/storage/kv"
	"library/internal/storage/stubs"
	"library/internal/store"
)

// App represents the application
type App struct {
	config  *config.Config
	logger  *zap.Logger
	backend storage.Backend
	store   *store.Store
	library *library.Library
	bot     *bot.Bot
	server  *http.Server
}

// LoadEnv reads .env (if present) and the environment into a config and logger.
func LoadEnv() (*config.Config, *zap.Logger, error) {
	// Load .env file if it exists
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if envErr != nil {
		logger.Debug("No .env file found, using system environment variables")
	}
	return cfg, logger, nil
}

// New creates and initializes a new application instance from the environment
func New() (*App, error) {
	cfg, logger, err := LoadEnv()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(context.Background(), cfg, logger)
}

// NewWithConfig opens the configured storage and loads the catalog. Front ends
// are started later by Serve.
func NewWithConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{config: cfg, logger: logger}

	logger.Info("Starting library", zap.String("store_backend", cfg.StoreBackend))

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := app.seed(ctx); err != nil {
		app.backend.Close()
		return nil, err
	}

	app.library = library.New(app.store, logger)
	return app, nil
}

// OpenBackend builds the storage backend selected by cfg.
func OpenBackend(cfg *config.Config, logger *zap.Logger) (storage.Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendFile:
		logger.Info("Using fact file", zap.String("path", cfg.StorePath))
		return file.NewFileDB(cfg.StorePath), nil
	case config.BackendBadger:
		logger.Info("Using badger", zap.String("dir", cfg.BadgerDir))
		return kv.NewBadgerDB(cfg.BadgerDir)
	case config.BackendMemory:
		logger.Info("Using in-memory store")
		return stubs.NewMockDB(), nil
	case config.BackendClickHouse:
		logger.Info("Connecting to ClickHouse",
			zap.String("host", cfg.ClickHouseHost),
			zap.Int("port", cfg.ClickHousePort),
			zap.String("database", cfg.ClickHouseDatabase),
			zap.String("user", cfg.ClickHouseUser),
			zap.Bool("tls", cfg.ClickHouseUseTLS),
		)
		db, err := ch.NewClickHouseDB(
			cfg.ClickHouseHost,
			cfg.ClickHousePort,
			cfg.ClickHouseDatabase,
			cfg.ClickHouseUser,
			cfg.ClickHousePassword,
			cfg.ClickHouseUseTLS,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// initDatabase opens the backend and loads the fact graph
func (a *App) initDatabase(ctx context.Context) error {
	backend, err := OpenBackend(a.config, a.logger)
	if err != nil {
		return err
	}
	if err := backend.Initialize(ctx); err != nil {
		backend.Close()
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	a.backend = backend
	a.store = store.New(backend, a.logger.Named("store"))
	a.store.Load(ctx)

	var issues []schema.Issue
	a.store.View(func(g *store.Graph) { issues = schema.Validate(g) })
	for _, issue := range issues {
		a.logger.Warn("Schema issue", zap.String("issue", issue.String()))
	}
	return nil
}

// seed applies the configured roster once, while the store has no administrators
func (a *App) seed(ctx context.Context) error {
	if a.config.SeedFile == "" {
		return nil
	}

	var admins int
	a.store.View(func(g *store.Graph) { admins = len(schema.InstancesOf(g, schema.Admin)) })
	if admins > 0 {
		a.logger.Debug("Store already has administrators, skipping seed", zap.String("seed_file", a.config.SeedFile))
		return nil
	}

	roster, err := seed.LoadFile(a.config.SeedFile)
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, a.store, roster)
	if err != nil {
		return fmt.Errorf("failed to seed %s: %w", a.config.SeedFile, err)
	}
	a.logger.Info("Seeded roster", zap.Int("admins", res.Admins), zap.Int("members", res.Members))
	return nil
}

// initBot initializes the Telegram bot
func (a *App) initBot() error {
	telegramBot, err := bot.NewBot(a.config.TelegramToken, a.library, a.config.AllowedUserIDs, a.logger.Named("bot"))
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	a.logger.Info("Bot created", zap.Int64s("allowed_users", a.config.AllowedUserIDs))
	a.bot = telegramBot
	return nil
}

// initHTTPServer builds the HTTP server for the API, health checks and webhook
func (a *App) initHTTPServer() {
	mux := http.NewServeMux()
	api := httpapi.NewServer(a.library, a.logger.Named("http"))
	api.RegisterRoutes(mux)

	// Webhook endpoint (only used in webhook mode)
	if a.bot != nil && a.config.WebhookMode {
		mux.HandleFunc("POST /telegram-webhook", a.handleWebhook)
	}

	a.server = &http.Server{
		Addr:         ":" + a.config.HTTPPort,
		Handler:      api.LogRequests(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

func (a *App) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(r.Body).Decode(&update); err != nil {
		a.logger.Warn("Error decoding webhook update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Process update in background to respond quickly to Telegram
	go a.bot.HandleWebhookUpdate(update)

	w.WriteHeader(http.StatusOK)
}

// Serve starts the HTTP server and, when configured, the Telegram bot. It
// blocks until ctx is cancelled or the server fails.
func (a *App) Serve(ctx context.Context) error {
	if a.config.BotEnabled() {
		if err := a.initBot(); err != nil {
			return err
		}
	}
	a.initHTTPServer()

	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.server.Addr, err)
	}

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", listener.Addr().String()))
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	if a.bot != nil {
		if a.config.WebhookMode {
			if err := a.bot.StartWebhook(a.config.WebhookURL); err != nil {
				return fmt.Errorf("failed to setup webhook: %w", err)
			}
		} else {
			go func() {
				if err := a.bot.Start(ctx); err != nil {
					a.logger.Error("Bot stopped", zap.Error(err))
				}
			}()
		}
	}

	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down...")
		return nil
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	}
}

// Run serves until SIGINT or SIGTERM, then shuts down
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := a.Serve(ctx)
	if err := a.Shutdown(); err != nil && serveErr == nil {
		return err
	}
	return serveErr
}

// Shutdown stops the HTTP server and closes storage
func (a *App) Shutdown() error {
	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("HTTP server shutdown error", zap.Error(err))
		}
	}

	if err := a.store.Close(); err != nil {
		a.logger.Error("Error closing database", zap.Error(err))
		return err
	}

	a.logger.Info("Shutdown complete")
	return nil
}

// Library returns the catalog core.
func (a *App) Library() *library.Library { return a.library }

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Exit flushes the logger and terminates with code.
func (a *App) Exit(code int) {
	_ = a.logger.Sync()
	os.Exit(code)
}
