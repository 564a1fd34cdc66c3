package routers

import (
	"github.com/go-chi/chi/v5"

	"github.com/Lea43010/baustructura-chat/internal/handlers"
	chat_handler "github.com/Lea43010/baustructura-chat/internal/handlers/chat-handler"
	"github.com/Lea43010/baustructura-chat/internal/middleware"
	chat_service "github.com/Lea43010/baustructura-chat/internal/use-case/chat-case"
	"github.com/Lea43010/baustructura-chat/internal/websocket"
	"github.com/Lea43010/baustructura-chat/state"
)

func ChatRouter(r chi.Router, appState *state.AppState, service chat_service.ChatServiceContract, wsHub *websocket.Hub) {
	chatHandler := chat_handler.NewChatHandler(service, wsHub)
	r.Group(func(protected chi.Router) {
		protected.Use(middleware.SessionAuth(appState.Redis, appState.SessionSecret))
		protected.Get("/api/v1/chat/rooms/{roomId}/messages", handlers.WrapHandler(chatHandler.GetRoomMessages))
		protected.Get("/api/v1/chat/rooms/{roomId}/members", handlers.WrapHandler(chatHandler.GetRoomMembers))
		protected.Delete("/api/v1/chat/messages/{messageId}", handlers.WrapHandler(chatHandler.DeleteMessage))
	})
}
