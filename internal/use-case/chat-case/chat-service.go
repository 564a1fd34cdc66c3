package chat_service

import (
	"context"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Lea43010/baustructura-chat/internal/dtos/chat_dto"
	"github.com/Lea43010/baustructura-chat/internal/entity"
	app_error "github.com/Lea43010/baustructura-chat/internal/errors"
	"github.com/Lea43010/baustructura-chat/internal/queue"
	chat_repo "github.com/Lea43010/baustructura-chat/internal/repo/chat"
	"github.com/Lea43010/baustructura-chat/internal/utils/types"
	"github.com/Lea43010/baustructura-chat/state"
)

// historyLimit is the fixed most-recent-N window delivered on join.
const historyLimit = 50

const messagePreviewLen = 200

type ChatService struct {
	AppState *state.AppState
	ChatRepo chat_repo.ChatRepoContract
	Producer queue.Producer
}

func NewChatService(appState *state.AppState, producer queue.Producer) ChatServiceContract {
	return &ChatService{
		AppState: appState,
		ChatRepo: chat_repo.NewChatRepo(appState),
		Producer: producer,
	}
}

// JoinRoom resolves (or lazily creates) the room, upserts the caller's
// membership and returns the room plus the recent history in chronological
// order. Joining twice is a no-op on the membership row.
func (c *ChatService) JoinRoom(ctx context.Context, roomType string, refID *int64, userID string) (*chat_dto.JoinRoomResult, *app_error.AppError) {
	room, err := c.ChatRepo.FindOrCreateRoom(ctx, roomType, refID, userID)
	if err != nil {
		return nil, err
	}

	if err := c.ChatRepo.EnsureMembership(ctx, room.ID, userID, entity.RoleMember); err != nil {
		return nil, err
	}

	messages, err := c.ChatRepo.RecentMessages(ctx, room.ID, historyLimit)
	if err != nil {
		return nil, err
	}

	respMessages := make([]chat_dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		respMessages = append(respMessages, toMessageResponse(msg))
	}

	return &chat_dto.JoinRoomResult{
		Room:     toRoomResponse(room),
		Messages: respMessages,
		Channel:  room.Channel(),
	}, nil
}

// SendMessage persists first, then hands the stored row (with server id and
// timestamp) back for broadcast. Support-room messages additionally enqueue
// an operator email, best-effort: a failed enqueue never unwinds the row.
func (c *ChatService) SendMessage(ctx context.Context, req chat_dto.SendMessagePayload, userID string) (*chat_dto.SendMessageResult, *app_error.AppError) {
	roomID, parseErr := uuid.Parse(req.RoomID)
	if parseErr != nil {
		return nil, app_error.NewAppError(http.StatusBadRequest, "invalid room id", "roomId")
	}

	room, err := c.ChatRepo.FindRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if _, err := c.ChatRepo.FindMembership(ctx, room.ID, userID); err != nil {
		return nil, err
	}

	messageType := req.MessageType
	if messageType == "" {
		messageType = entity.MessageTypeText
	}

	if req.Message == "" && messageType == entity.MessageTypeText {
		return nil, app_error.NewAppError(http.StatusBadRequest, "message text is required", "message")
	}

	if req.ReplyToMessageID != nil {
		if _, err := c.ChatRepo.FindMessageByID(ctx, *req.ReplyToMessageID); err != nil {
			return nil, err
		}
	}

	msg := &entity.ChatMessage{
		RoomID:           room.ID,
		UserID:           userID,
		Message:          req.Message,
		MessageType:      messageType,
		FileName:         req.FileName,
		FilePath:         req.FilePath,
		FileSize:         req.FileSize,
		MimeType:         req.MimeType,
		ReplyToMessageID: req.ReplyToMessageID,
	}

	if err := c.ChatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	if room.RoomType == entity.RoomTypeSupport {
		c.enqueueSupportNotification(ctx, room, msg)
	}

	return &chat_dto.SendMessageResult{
		Message:  toMessageResponse(msg),
		RoomType: room.RoomType,
		Channel:  room.Channel(),
	}, nil
}

func (c *ChatService) enqueueSupportNotification(ctx context.Context, room *entity.ChatRoom, msg *entity.ChatMessage) {
	preview := truncateOnRuneBoundary(msg.Message, messagePreviewLen)

	now := time.Now()
	job := queue.Job{
		ID:   uuid.New().String(),
		Type: queue.JobTypeSupportEmail,
		Payload: queue.MustMarshal(types.SupportEmailPayload{
			RoomID:    room.ID.String(),
			MessageID: msg.ID,
			SenderID:  msg.UserID,
			Preview:   preview,
			SentAt:    msg.CreatedAt,
		}),
		Priority:  1,
		MaxRetry:  3,
		CreatedAt: now.Unix(),
		ExpireAt:  now.Add(24 * time.Hour).Unix(),
	}

	if err := c.Producer.Enqueue(ctx, job); err != nil {
		log.Error().Err(err).Int64("messageID", msg.ID).Msg("failed to enqueue support notification")
	}
}

func (c *ChatService) ToggleReaction(ctx context.Context, req chat_dto.ReactToMessagePayload, userID string) (*chat_dto.ReactionResult, *app_error.AppError) {
	msg, err := c.ChatRepo.FindMessageByID(ctx, req.MessageID)
	if err != nil {
		return nil, err
	}

	room, err := c.ChatRepo.FindRoomByID(ctx, msg.RoomID)
	if err != nil {
		return nil, err
	}

	if _, err := c.ChatRepo.FindMembership(ctx, room.ID, userID); err != nil {
		return nil, err
	}

	action, err := c.ChatRepo.ToggleReaction(ctx, req.MessageID, userID, req.Emoji)
	if err != nil {
		return nil, err
	}

	return &chat_dto.ReactionResult{
		MessageID: req.MessageID,
		Emoji:     req.Emoji,
		UserID:    userID,
		Action:    action,
		RoomID:    room.ID.String(),
		Channel:   room.Channel(),
	}, nil
}

// DeleteMessage allows the author, or a moderator/admin of the message's
// room, to hard-delete. Everyone else gets a permission error and the row
// stays.
func (c *ChatService) DeleteMessage(ctx context.Context, messageID int64, userID string) (*chat_dto.DeleteMessageResult, *app_error.AppError) {
	msg, err := c.ChatRepo.FindMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	room, err := c.ChatRepo.FindRoomByID(ctx, msg.RoomID)
	if err != nil {
		return nil, err
	}

	if msg.UserID != userID {
		member, err := c.ChatRepo.FindMembership(ctx, room.ID, userID)
		if err != nil {
			return nil, app_error.NewAppError(http.StatusForbidden, "no permission to delete this message", "permission")
		}
		if !member.CanModerate() {
			return nil, app_error.NewAppError(http.StatusForbidden, "no permission to delete this message", "permission")
		}
	}

	if err := c.ChatRepo.DeleteMessage(ctx, messageID); err != nil {
		return nil, err
	}

	return &chat_dto.DeleteMessageResult{
		MessageID: messageID,
		RoomID:    room.ID.String(),
		Channel:   room.Channel(),
	}, nil
}

func (c *ChatService) MarkRead(ctx context.Context, req chat_dto.MarkReadPayload, userID string) *app_error.AppError {
	roomID, parseErr := uuid.Parse(req.RoomID)
	if parseErr != nil {
		return app_error.NewAppError(http.StatusBadRequest, "invalid room id", "roomId")
	}

	if _, err := c.ChatRepo.FindMembership(ctx, roomID, userID); err != nil {
		return err
	}

	return c.ChatRepo.UpdateReadPosition(ctx, roomID, userID, req.MessageID)
}

// RoomChannel resolves the broadcast channel for a room the caller belongs
// to. Used for ephemeral events that carry only a roomId.
func (c *ChatService) RoomChannel(ctx context.Context, roomID, userID string) (string, *app_error.AppError) {
	id, parseErr := uuid.Parse(roomID)
	if parseErr != nil {
		return "", app_error.NewAppError(http.StatusBadRequest, "invalid room id", "roomId")
	}

	room, err := c.ChatRepo.FindRoomByID(ctx, id)
	if err != nil {
		return "", err
	}

	if _, err := c.ChatRepo.FindMembership(ctx, room.ID, userID); err != nil {
		return "", err
	}

	return room.Channel(), nil
}

// RoomMessages serves the REST history fetch with the same membership gate
// as the socket path.
func (c *ChatService) RoomMessages(ctx context.Context, roomID, userID string, limit int) ([]chat_dto.MessageResponse, *app_error.AppError) {
	id, parseErr := uuid.Parse(roomID)
	if parseErr != nil {
		return nil, app_error.NewAppError(http.StatusBadRequest, "invalid room id", "roomId")
	}

	if limit <= 0 || limit > 100 {
		limit = historyLimit
	}

	room, err := c.ChatRepo.FindRoomByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := c.ChatRepo.FindMembership(ctx, room.ID, userID); err != nil {
		return nil, err
	}

	messages, err := c.ChatRepo.RecentMessages(ctx, room.ID, limit)
	if err != nil {
		return nil, err
	}

	resp := make([]chat_dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		resp = append(resp, toMessageResponse(msg))
	}

	return resp, nil
}

func (c *ChatService) RoomMembers(ctx context.Context, roomID, userID string) ([]chat_dto.MemberResponse, *app_error.AppError) {
	id, parseErr := uuid.Parse(roomID)
	if parseErr != nil {
		return nil, app_error.NewAppError(http.StatusBadRequest, "invalid room id", "roomId")
	}

	if _, err := c.ChatRepo.FindMembership(ctx, id, userID); err != nil {
		return nil, err
	}

	members, err := c.ChatRepo.RoomMembers(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := make([]chat_dto.MemberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, chat_dto.MemberResponse{
			RoomID:            m.RoomID.String(),
			UserID:            m.UserID,
			Role:              m.Role,
			LastSeenAt:        m.LastSeenAt,
			LastReadMessageID: m.LastReadMessageID,
		})
	}

	return resp, nil
}

// truncateOnRuneBoundary cuts s to at most max bytes without splitting a
// multi-byte rune.
func truncateOnRuneBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func toRoomResponse(room *entity.ChatRoom) chat_dto.RoomResponse {
	return chat_dto.RoomResponse{
		ID:          room.ID.String(),
		Type:        room.RoomType,
		ProjectID:   room.ProjectID,
		DocumentID:  room.DocumentID,
		Name:        room.Name,
		Description: room.Description,
		CreatedBy:   room.CreatedBy,
		CreatedAt:   room.CreatedAt,
	}
}

func toMessageResponse(msg *entity.ChatMessage) chat_dto.MessageResponse {
	return chat_dto.MessageResponse{
		ID:               msg.ID,
		RoomID:           msg.RoomID.String(),
		UserID:           msg.UserID,
		Message:          msg.Message,
		MessageType:      msg.MessageType,
		FileName:         msg.FileName,
		FilePath:         msg.FilePath,
		FileSize:         msg.FileSize,
		MimeType:         msg.MimeType,
		ReplyToMessageID: msg.ReplyToMessageID,
		CreatedAt:        msg.CreatedAt,
	}
}
