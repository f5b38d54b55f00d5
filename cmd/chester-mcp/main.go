package main

import (
	"chester/internal/engine"
	"chester/internal/models"
	"chester/internal/pkg/config"
	"context"
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const applicationName = "chester-mcp"
const serverShutdownTimeout = 5 * time.Second

func main() {
	setupZerolog()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	log.Info().Msg("Parsing configuration")
	appConfig := &applicationConfig{}
	config.Parse(appConfig, applicationName)

	log.Info().Msg("Starting up chess advisor MCP service")

	chessAdvisor, err := engine.NewAdvisor(context.Background(), &engine.EngineConfig{
		ModelConfig: &models.ProviderConfig{
			ModelString:      appConfig.ModelName,
			Temperature:      appConfig.Temperature,
			MaxTokens:        appConfig.MaxTokens,
			AnthropicAPIKey:  appConfig.AnthropicAPIKey,
			AnthropicBaseURL: appConfig.AnthropicBaseURL,
			OpenAIAPIKey:     appConfig.OpenAIAPIKey,
			OpenAIBaseURL:    appConfig.OpenAIBaseURL,
			GoogleAPIKey:     appConfig.GoogleAPIKey,
			OllamaBaseURL:    appConfig.OllamaBaseURL,
		},
		TemplatesFile:  appConfig.TemplatesFile,
		RequestTimeout: appConfig.RequestTimeout,
		StrictMoves:    appConfig.StrictMoves,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create advisor")
	}

	mcpServer := newMCPServer(chessAdvisor)

	switch appConfig.Transport {
	case "stdio":
		if err := server.ServeStdio(mcpServer); err != nil {
			log.Fatal().Err(err).Msg("server.ServeStdio failed")
		}
	case "sse":
		serveSSE(mcpServer, appConfig)
	default:
		log.Fatal().Str("transport", appConfig.Transport).Msg("unknown MCP transport")
	}

	log.Info().Msg("Application stopped")
}

func serveSSE(mcpServer *server.MCPServer, appConfig *applicationConfig) {
	address := fmt.Sprintf("%s:%d", appConfig.Host, appConfig.Port)
	sseServer := server.NewSSEServer(mcpServer, server.WithBaseURL("http://"+address))

	go func() {
		log.Info().Str("address", address).Msg("Server is about to start")

		err := sseServer.Start(address)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("sseServer.Start failed")
		}

		log.Info().Msg("Server stopped")
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info().Msg("Application stopping")

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := sseServer.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("sseServer.Shutdown failed")
	}
}

func setupZerolog() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = zerolog.New(os.Stderr).
		With().
		Timestamp().
		Logger()
}
