package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Lea43010/baustructura-chat/config"
	"github.com/Lea43010/baustructura-chat/internal/queue"
	"github.com/Lea43010/baustructura-chat/internal/routers"
	chat_service "github.com/Lea43010/baustructura-chat/internal/use-case/chat-case"
	"github.com/Lea43010/baustructura-chat/internal/websocket"
	"github.com/Lea43010/baustructura-chat/internal/worker"
	"github.com/Lea43010/baustructura-chat/state"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// initialize the application
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appState, err := state.InitAppState(ctx, stop)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application state")
	}
	defer appState.Close()

	wsHub := websocket.NewHub()
	log.Info().Msg("Websocket hub initialized")

	producer := queue.NewProducer(appState.Redis)
	service := chat_service.NewChatService(appState, producer)

	authFunc := websocket.SessionAuthenticator(appState.Redis, appState.SessionSecret)
	dispatcher := websocket.NewDispatcher(service, wsHub, authFunc)

	wsHandler := websocket.NewWebSocketHandler(wsHub, dispatcher)
	log.Info().Msg("Websocket handler initialized")

	workerPool := worker.NewWorkerPool(appState.Redis, appState.Mongo, 5)
	workerPool.Start(ctx)
	workerPool.StartDLQWorker(ctx)
	workerPool.StartDLQRetryConsumer(ctx)

	r := routers.NewRouter(appState, service, wsHub, wsHandler, workerPool)

	server := &http.Server{
		Addr:         config.Conf.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// serve the application
	go func() {
		log.Info().Msgf("Starting server on http://localhost%s", config.Conf.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(fmt.Sprintf("ListenAndServe failed: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown initiated...")
	// gracefully shutdown the application
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("Graceful shutdown failed: %v\n", err)
	} else {
		fmt.Println("Server exited gracefully.")
	}

	wsHub.Close()
	workerPool.Wait()
}
