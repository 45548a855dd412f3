package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatassist.app/api/common/arangodb"
	"chatassist.app/api/common/id"
	"chatassist.app/api/common/llm"
	"chatassist.app/api/common/logger"
	"chatassist.app/api/common/otel"
	"chatassist.app/api/common/redis"
	"chatassist.app/api/core/config"
	"chatassist.app/api/core/db"
	"chatassist.app/api/internal/chat"
	"chatassist.app/api/internal/http/middleware"
	httprouter "chatassist.app/api/internal/http/router"
	"chatassist.app/api/internal/lock"
	"chatassist.app/api/internal/service"
	"chatassist.app/api/internal/store"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "chat api starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	locker := lock.NewLocalLocker()
	var denylist service.TokenDenylist = service.NoopDenylist{}
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis.URL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		locker = lock.NewRedisLocker(redisClient, cfg.Chat.LockTTL)
		denylist = service.NewRedisDenylist(redisClient)
		slog.InfoContext(ctx, "redis connected, using shared conversation locks and token revocation")
	} else {
		slog.InfoContext(ctx, "redis disabled, conversation locks are process-local")
	}

	provider, err := llm.New(llm.Config{
		Provider:  cfg.LLM.Provider,
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create completion provider", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "completion provider ready", "provider", cfg.LLM.Provider, "model", provider.Model())

	pgStores := store.NewStores(database.Queries())

	var chatStores store.StoreProvider = pgStores
	var txRunner store.TxRunner = store.NewTxRunner(database)
	if cfg.ChatStore == config.ChatStoreArangoDB {
		arangoClient, err := setupArango(ctx, cfg.ArangoDB)
		if err != nil {
			slog.ErrorContext(ctx, "failed to set up arangodb", "error", err)
			os.Exit(1)
		}
		defer arangoClient.Close()

		arangoStores := store.NewArangoStores(arangoClient)
		chatStores = arangoStores
		txRunner = arangoStores
		slog.InfoContext(ctx, "conversations stored in arangodb", "database", cfg.ArangoDB.Database)
	}

	services := service.NewServices(service.ServicesConfig{
		Users:    pgStores.Users(),
		Chat:     chatStores,
		TxRunner: txRunner,
		Provider: provider,
		Locker:   locker,
		Denylist: denylist,
		Auth: service.AuthConfig{
			Secret:   cfg.Auth.JWTSecret,
			TokenTTL: cfg.Auth.TokenTTL,
		},
		Relay: chat.Config{WindowSize: cfg.Chat.HistoryWindow},
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services)
	// no WriteTimeout: streamed replies end on completion or client disconnect
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownIn)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupArango(ctx context.Context, cfg config.ArangoDBConfig) (arangodb.Client, error) {
	client, err := arangodb.New(ctx, arangodb.Config{
		URL:      cfg.URL,
		Username: cfg.Username,
		Password: cfg.Password,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	if err := client.EnsureDatabase(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ensuring database: %w", err)
	}
	if err := client.EnsureCollections(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ensuring collections: %w", err)
	}
	return client, nil
}

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.ClientURL))

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		IsProduction: cfg.IsProduction(),
		TokenTTL:     cfg.Auth.TokenTTL,
	})

	return router
}

const banner = `
 ██████╗██╗  ██╗ █████╗ ████████╗     █████╗ ██████╗ ██╗
██╔════╝██║  ██║██╔══██╗╚══██╔══╝    ██╔══██╗██╔══██╗██║
██║     ███████║███████║   ██║       ███████║██████╔╝██║
██║     ██╔══██║██╔══██║   ██║       ██╔══██║██╔═══╝ ██║
╚██████╗██║  ██║██║  ██║   ██║       ██║  ██║██║     ██║
 ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝       ╚═╝  ╚═╝╚═╝     ╚═╝
`
