package main

import (
	"chester/internal/engine"
	"chester/internal/models"
	"chester/internal/pkg/config"
	"chester/internal/pkg/cookies"
	"chester/internal/pkg/httpHandlers"
	"chester/internal/pkg/sessions"
	"chester/internal/pkg/store"
	"chester/internal/pkg/web"
	"chester/internal/pkg/websocketServer"
	"context"
	"errors"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

// Linux configuration examples
// CHESTER_PORT=321 ./chester
// ./chester --Port 123 --ModelName anthropic:claude-3-5-sonnet-latest

const applicationName = "chester"
const serverShutdownTimeout = 5 * time.Second

func main() {
	setupZerolog()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	log.Info().Msg("Parsing configuration")
	appConfig := &applicationConfig{}
	config.Parse(appConfig, applicationName)

	log.Info().Msg("Starting up")

	cookies.Configure(appConfig.CookieSecret, int(appConfig.SessionTTL.Seconds()), appConfig.CookieSecure)

	modelConfig := newProviderConfig(appConfig)

	ctx := context.Background()
	chessAdvisor, err := engine.NewAdvisor(ctx, &engine.EngineConfig{
		ModelConfig:    modelConfig,
		TemplatesFile:  appConfig.TemplatesFile,
		RequestTimeout: appConfig.RequestTimeout,
		StrictMoves:    appConfig.StrictMoves,
	})
	if err != nil {
		log.Panic().Err(err).Msg("failed to create advisor")
	}

	sessionStore := createStore(ctx, appConfig)
	defer func() {
		if err := sessionStore.Close(); err != nil {
			log.Error().Err(err).Msg("sessionStore.Close() failed")
		}
	}()

	sessionManager := sessions.New(chessAdvisor, sessionStore)
	notificationServer := websocketServer.New()
	handlers := httpHandlers.New(chessAdvisor, sessionManager, notificationServer, func(ctx context.Context) error {
		return models.Probe(ctx, modelConfig)
	})

	listener := createNetListener(appConfig)
	server := startHttpServer(listener, handlers, notificationServer, appConfig.SimulatedDelay)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info().Msg("Application stopping")

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer func() {
		cancel()
	}()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server.Shutdown failed")
	}

	sessionManager.Shutdown()

	log.Info().Msg("Application stopped")
}

func newProviderConfig(appConfig *applicationConfig) *models.ProviderConfig {
	return &models.ProviderConfig{
		ModelString:      appConfig.ModelName,
		SystemPrompt:     appConfig.SystemPrompt,
		Temperature:      appConfig.Temperature,
		MaxTokens:        appConfig.MaxTokens,
		AnthropicAPIKey:  appConfig.AnthropicAPIKey,
		AnthropicBaseURL: appConfig.AnthropicBaseURL,
		OpenAIAPIKey:     appConfig.OpenAIAPIKey,
		OpenAIBaseURL:    appConfig.OpenAIBaseURL,
		GoogleAPIKey:     appConfig.GoogleAPIKey,
		OllamaBaseURL:    appConfig.OllamaBaseURL,
	}
}

func createStore(ctx context.Context, appConfig *applicationConfig) store.Store {
	switch strings.ToLower(appConfig.StoreBackend) {
	case "redis":
		redisStore, err := store.NewRedisStore(ctx, store.RedisConfig{
			Addr:     appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
			TTL:      appConfig.SessionTTL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("store.NewRedisStore() failed")
		}
		log.Info().Str("addr", appConfig.RedisAddr).Msg("using redis session store")
		return redisStore
	case "memory", "":
		return store.NewMemoryStore()
	default:
		log.Fatal().Str("store_backend", appConfig.StoreBackend).Msg("unknown session store backend")
		return nil
	}
}

func startHttpServer(listener net.Listener, handlers *httpHandlers.ChatHandlers,
	notificationServer websocketServer.WebsocketServer,
	simulatedDelay int) *http.Server {

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	httpLogger := httplog.NewLogger("chester-api", httplog.Options{
		LogLevel: slog.LevelDebug,
		JSON:     true,
		Concise:  true,
	})

	router := chi.NewRouter()
	router.Use(httplog.RequestLogger(httpLogger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"https://*",
			"http://*",
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}))

	router.HandleFunc("/api/notifications", notificationServer.Handler)

	router.Handle("POST /api/next-move", web.Handler{Request: handlers.NextMove,
		SimulatedDelay: simulatedDelay})

	router.Handle("GET /api/session", web.Handler{Request: handlers.Session,
		SimulatedDelay: simulatedDelay})

	router.Handle("POST /api/ask", web.Handler{Request: handlers.Ask,
		SimulatedDelay: simulatedDelay})

	router.Handle("POST /api/reask", web.Handler{Request: handlers.Reask,
		SimulatedDelay: simulatedDelay})

	router.Handle("POST /api/move", web.Handler{Request: handlers.Move,
		SimulatedDelay: simulatedDelay})

	router.Handle("POST /api/skill-level", web.Handler{Request: handlers.SkillLevel,
		SimulatedDelay: simulatedDelay})

	router.Handle("POST /api/clear", web.Handler{Request: handlers.Clear,
		SimulatedDelay: simulatedDelay})

	router.Handle("GET /healthz", web.Handler{Request: handlers.Healthz})

	server := &http.Server{
		Handler: router,
	}

	go func() {
		log.Info().Msg("Server is about to start")

		err := server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server.Serve failed")
		}

		log.Info().Msg("Server stopped")
	}()
	return server
}

func createNetListener(appConfig *applicationConfig) net.Listener {
	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", appConfig.Host, appConfig.Port))
	if err != nil {
		log.Fatal().Err(err).Msg("net.Listen failed")
	}

	return listener
}

func setupZerolog() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = zerolog.New(os.Stderr).
		With().
		Timestamp().
		Logger()
}
