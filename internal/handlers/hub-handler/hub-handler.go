package hub_handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"

	app_error "github.com/Lea43010/baustructura-chat/internal/errors"
	"github.com/Lea43010/baustructura-chat/internal/handlers"
	"github.com/Lea43010/baustructura-chat/internal/middleware"
	"github.com/Lea43010/baustructura-chat/internal/websocket"
	"github.com/Lea43010/baustructura-chat/internal/worker"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type HubHandler struct {
	Hub        *websocket.Hub
	WorkerPool *worker.WorkerPool
}

func NewHubHandler(hub *websocket.Hub, workerPool *worker.WorkerPool) *HubHandler {
	return &HubHandler{
		Hub:        hub,
		WorkerPool: workerPool,
	}
}

func (h *HubHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "bau-structura-chat",
	})
}

func (h *HubHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	stats := h.Hub.GetHubStats()
	handlers.WriteResponse(w, "hub stats", stats, requestID(r))
	return nil
}

func (h *HubHandler) HandleGetChannelStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	channel := chi.URLParam(r, "channel")
	if channel == "" {
		return app_error.NewAppError(http.StatusBadRequest, "channel is required", "channel")
	}

	stats := h.Hub.ChannelStats(channel)
	handlers.WriteResponse(w, "channel stats", stats, requestID(r))
	return nil
}

func (h *HubHandler) HandleGetDLQStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	stats, err := h.WorkerPool.GetDLQStats(r.Context())
	if err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to fetch DLQ stats", "dlq")
	}

	handlers.WriteResponse(w, "dlq stats", stats, requestID(r))
	return nil
}

func requestID(r *http.Request) string {
	reqID, ok := r.Context().Value(middleware.RequestIdKey).(string)
	if !ok {
		return "unknown"
	}
	return reqID
}
