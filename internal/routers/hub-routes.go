package routers

import (
	"github.com/go-chi/chi/v5"

	"github.com/Lea43010/baustructura-chat/internal/handlers"
	hub_handler "github.com/Lea43010/baustructura-chat/internal/handlers/hub-handler"
	"github.com/Lea43010/baustructura-chat/internal/websocket"
	"github.com/Lea43010/baustructura-chat/internal/worker"
)

func HubRouter(r chi.Router, wsHub *websocket.Hub, workerPool *worker.WorkerPool) {
	hubHandler := hub_handler.NewHubHandler(wsHub, workerPool)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", hubHandler.HandleHealth)
		r.Get("/stats", handlers.WrapHandler(hubHandler.HandleGetStats))
		r.Get("/channels/{channel}/stats", handlers.WrapHandler(hubHandler.HandleGetChannelStats))
		r.Get("/queue/dlq/stats", handlers.WrapHandler(hubHandler.HandleGetDLQStats))
	})
}
