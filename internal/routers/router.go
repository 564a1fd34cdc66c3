package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lea43010/baustructura-chat/internal/middleware"
	chat_service "github.com/Lea43010/baustructura-chat/internal/use-case/chat-case"
	"github.com/Lea43010/baustructura-chat/internal/websocket"
	"github.com/Lea43010/baustructura-chat/internal/worker"
	"github.com/Lea43010/baustructura-chat/state"
)

func NewRouter(appState *state.AppState, service chat_service.ChatServiceContract, wsHub *websocket.Hub, wsHandler *websocket.WebSocketHandler, workerPool *worker.WorkerPool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.WithRequestId)

	HubRouter(r, wsHub, workerPool)
	ChatRouter(r, appState, service, wsHub)

	// socket endpoint; authentication happens over the socket itself
	r.Get("/ws/chat", wsHandler.HandleWS)

	return r
}
