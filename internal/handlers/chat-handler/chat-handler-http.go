package chat_handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Lea43010/baustructura-chat/internal/dtos/chat_dto"
	app_error "github.com/Lea43010/baustructura-chat/internal/errors"
	"github.com/Lea43010/baustructura-chat/internal/handlers"
	"github.com/Lea43010/baustructura-chat/internal/middleware"
	chat_service "github.com/Lea43010/baustructura-chat/internal/use-case/chat-case"
	"github.com/Lea43010/baustructura-chat/internal/websocket"
)

// ChatHandler is the REST companion to the socket protocol: history reads,
// member listings and message deletion for clients without a live socket.
type ChatHandler struct {
	Service chat_service.ChatServiceContract
	Hub     *websocket.Hub
}

func NewChatHandler(service chat_service.ChatServiceContract, hub *websocket.Hub) *ChatHandler {
	return &ChatHandler{
		Service: service,
		Hub:     hub,
	}
}

func (h *ChatHandler) GetRoomMessages(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")

	userID, appErr := contextUserID(r)
	if appErr != nil {
		return appErr
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			return app_error.NewAppError(http.StatusBadRequest, "limit must be between 1 and 100", "limit")
		}
		limit = parsed
	}

	messages, appErr := h.Service.RoomMessages(r.Context(), roomID, userID, limit)
	if appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, "messages fetched successfully", messages, requestID(r))
	return nil
}

func (h *ChatHandler) GetRoomMembers(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")

	userID, appErr := contextUserID(r)
	if appErr != nil {
		return appErr
	}

	members, appErr := h.Service.RoomMembers(r.Context(), roomID, userID)
	if appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, "members fetched successfully", members, requestID(r))
	return nil
}

func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	messageID, err := strconv.ParseInt(chi.URLParam(r, "messageId"), 10, 64)
	if err != nil || messageID <= 0 {
		return app_error.NewAppError(http.StatusBadRequest, "invalid message id", "messageId")
	}

	userID, appErr := contextUserID(r)
	if appErr != nil {
		return appErr
	}

	result, svcErr := h.Service.DeleteMessage(r.Context(), messageID, userID)
	if svcErr != nil {
		return svcErr
	}

	// Keep live subscribers in sync with deletions made over REST.
	h.Hub.BroadcastToChannel(result.Channel, websocket.OutgoingEvent{
		Event: websocket.EventMessageDeleted,
		Data: chat_dto.MessageDeletedEvent{
			MessageID: result.MessageID,
			RoomID:    result.RoomID,
		},
	})

	handlers.WriteResponse(w, "message deleted successfully", result, requestID(r))
	return nil
}

func contextUserID(r *http.Request) (string, *app_error.AppError) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		return "", app_error.NewAppError(http.StatusUnauthorized, "user id is not found in context", "context")
	}
	return userID, nil
}

func requestID(r *http.Request) string {
	reqID, ok := r.Context().Value(middleware.RequestIdKey).(string)
	if !ok {
		return "unknown"
	}
	return reqID
}
