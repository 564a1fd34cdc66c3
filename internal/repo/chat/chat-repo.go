package chat_repo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Lea43010/baustructura-chat/internal/entity"
	app_error "github.com/Lea43010/baustructura-chat/internal/errors"
	"github.com/Lea43010/baustructura-chat/internal/utils"
	"github.com/Lea43010/baustructura-chat/state"
)

const (
	ReactionAdded   = "added"
	ReactionRemoved = "removed"
)

// Rooms are immutable after creation, so a cached row never goes stale.
const roomCacheTTL = 10 * time.Minute

func roomCacheKey(roomID uuid.UUID) string {
	return "chat:room:" + roomID.String()
}

type ChatRepo struct {
	AppState *state.AppState
}

func NewChatRepo(appState *state.AppState) ChatRepoContract {
	return &ChatRepo{
		AppState: appState,
	}
}

// FindOrCreateRoom resolves the room for (type, key), creating it lazily on
// first join. Concurrent creators race on the unique index; the loser falls
// back to a second lookup.
func (r *ChatRepo) FindOrCreateRoom(ctx context.Context, roomType string, refID *int64, creatorID string) (*entity.ChatRoom, *app_error.AppError) {
	room, err := r.findRoom(ctx, roomType, refID)
	if err == nil {
		return room, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to query room", "db-error")
	}

	newRoom, appErr := r.createRoom(ctx, roomType, refID, creatorID)
	if appErr != nil {
		if strings.Contains(appErr.Message, "duplicate") || strings.Contains(appErr.Message, "unique") {
			room, err := r.findRoom(ctx, roomType, refID)
			if err == nil {
				return room, nil
			}
		}
		return nil, appErr
	}

	return newRoom, nil
}

func (r *ChatRepo) findRoom(ctx context.Context, roomType string, refID *int64) (*entity.ChatRoom, error) {
	var room entity.ChatRoom

	q := r.AppState.DB.WithContext(ctx).Where("room_type = ?", roomType)
	switch roomType {
	case entity.RoomTypeProject:
		q = q.Where("project_id = ?", refID)
	case entity.RoomTypeDocument:
		q = q.Where("document_id = ?", refID)
	}

	err := q.First(&room).Error
	return &room, err
}

func (r *ChatRepo) createRoom(ctx context.Context, roomType string, refID *int64, creatorID string) (*entity.ChatRoom, *app_error.AppError) {
	newRoom := &entity.ChatRoom{
		ID:        uuid.New(),
		RoomType:  roomType,
		CreatedBy: creatorID,
	}

	switch roomType {
	case entity.RoomTypeProject:
		newRoom.ProjectID = refID
		newRoom.Name = fmt.Sprintf("Project %d", *refID)
	case entity.RoomTypeDocument:
		newRoom.DocumentID = refID
		newRoom.Name = fmt.Sprintf("Document %d", *refID)
	case entity.RoomTypeSupport:
		newRoom.Name = "Support"
		newRoom.Description = "Support channel for all users"
	default:
		return nil, app_error.NewAppError(http.StatusBadRequest, fmt.Sprintf("unknown room type: %s", roomType), "room-type")
	}

	if err := r.AppState.DB.WithContext(ctx).Create(newRoom).Error; err != nil {
		return nil, app_error.NewAppError(http.StatusInternalServerError, fmt.Sprintf("failed to create room: %v", err), "db-error")
	}

	return newRoom, nil
}

// FindRoomByID is on the hot path of every send/reaction/typing event, so
// resolved rooms are cached in Redis. A cache failure falls through to the
// database.
func (r *ChatRepo) FindRoomByID(ctx context.Context, roomID uuid.UUID) (*entity.ChatRoom, *app_error.AppError) {
	if cached, appErr := utils.GetCacheData[entity.ChatRoom](ctx, r.AppState.Redis, roomCacheKey(roomID)); appErr == nil && cached != nil {
		return cached, nil
	}

	var room entity.ChatRoom
	if err := r.AppState.DB.WithContext(ctx).Where("id = ?", roomID).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewAppError(http.StatusNotFound, "room not found", "not-found")
		}
		log.Error().Err(err).Msgf("failed to fetch room: %v", err)
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to fetch room", "db-error")
	}

	if err := utils.SetCacheData(ctx, r.AppState.Redis, roomCacheKey(roomID), &room, roomCacheTTL); err != nil {
		log.Warn().Err(err).Str("roomID", roomID.String()).Msg("failed to cache room")
	}

	return &room, nil
}

// EnsureMembership is an insert-or-ignore on (room_id, user_id). Joining
// twice, including concurrently, leaves exactly one row.
func (r *ChatRepo) EnsureMembership(ctx context.Context, roomID uuid.UUID, userID, role string) *app_error.AppError {
	member := &entity.ChatRoomMember{
		RoomID:     roomID,
		UserID:     userID,
		Role:       role,
		LastSeenAt: time.Now(),
		JoinedAt:   time.Now(),
	}

	err := r.AppState.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(member).Error
	if err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to ensure room membership", "db-error")
	}

	return nil
}

func (r *ChatRepo) FindMembership(ctx context.Context, roomID uuid.UUID, userID string) (*entity.ChatRoomMember, *app_error.AppError) {
	var member entity.ChatRoomMember
	err := r.AppState.DB.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewAppError(http.StatusForbidden, "not a member of this room", "membership")
		}
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to fetch room membership", "db-error")
	}

	return &member, nil
}

func (r *ChatRepo) RoomMembers(ctx context.Context, roomID uuid.UUID) ([]*entity.ChatRoomMember, *app_error.AppError) {
	var members []*entity.ChatRoomMember
	if err := r.AppState.DB.WithContext(ctx).Where("room_id = ?", roomID).Find(&members).Error; err != nil {
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to fetch room members", "db-error")
	}

	return members, nil
}

// RecentMessages fetches the newest N rows, then reverses so the caller gets
// chronological order.
func (r *ChatRepo) RecentMessages(ctx context.Context, roomID uuid.UUID, limit int) ([]*entity.ChatMessage, *app_error.AppError) {
	var messages []*entity.ChatMessage
	err := r.AppState.DB.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to fetch messages", "db-error")
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *ChatRepo) CreateMessage(ctx context.Context, msg *entity.ChatMessage) *app_error.AppError {
	if err := r.AppState.DB.WithContext(ctx).Create(msg).Error; err != nil {
		log.Error().Err(err).Str("roomID", msg.RoomID.String()).Msg("failed to persist message")
		return app_error.NewAppError(http.StatusInternalServerError, "failed to create message", "db-error")
	}
	return nil
}

func (r *ChatRepo) FindMessageByID(ctx context.Context, messageID int64) (*entity.ChatMessage, *app_error.AppError) {
	var message entity.ChatMessage
	if err := r.AppState.DB.WithContext(ctx).Where("id = ?", messageID).First(&message).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewAppError(http.StatusNotFound, "message not found or has been deleted", "not-found")
		}
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to fetch message", "db-error")
	}

	return &message, nil
}

// DeleteMessage is a hard delete. Reactions on the message go with it.
func (r *ChatRepo) DeleteMessage(ctx context.Context, messageID int64) *app_error.AppError {
	tx := r.AppState.DB.WithContext(ctx).Begin()
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("message_id = ?", messageID).Delete(&entity.ChatMessageReaction{}).Error; err != nil {
		tx.Rollback()
		return app_error.NewAppError(http.StatusInternalServerError, "failed to delete message reactions", "db-error")
	}

	if err := tx.Where("id = ?", messageID).Delete(&entity.ChatMessage{}).Error; err != nil {
		tx.Rollback()
		return app_error.NewAppError(http.StatusInternalServerError, "failed to delete message", "db-error")
	}

	if err := tx.Commit().Error; err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to commit message deletion", "db-error")
	}

	return nil
}

// ToggleReaction removes the (message, user, emoji) triple when present,
// inserts it otherwise. The delete-then-insert runs against the unique index
// so a concurrent identical toggle collapses into a no-op insert instead of
// a duplicate row.
func (r *ChatRepo) ToggleReaction(ctx context.Context, messageID int64, userID, emoji string) (string, *app_error.AppError) {
	res := r.AppState.DB.WithContext(ctx).
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		Delete(&entity.ChatMessageReaction{})
	if res.Error != nil {
		return "", app_error.NewAppError(http.StatusInternalServerError, "failed to toggle reaction", "db-error")
	}

	if res.RowsAffected > 0 {
		return ReactionRemoved, nil
	}

	reaction := &entity.ChatMessageReaction{
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: time.Now(),
	}

	err := r.AppState.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}, {Name: "emoji"}},
			DoNothing: true,
		}).
		Create(reaction).Error
	if err != nil {
		return "", app_error.NewAppError(http.StatusInternalServerError, "failed to add reaction", "db-error")
	}

	return ReactionAdded, nil
}

func (r *ChatRepo) UpdateReadPosition(ctx context.Context, roomID uuid.UUID, userID string, messageID int64) *app_error.AppError {
	err := r.AppState.DB.WithContext(ctx).
		Model(&entity.ChatRoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Updates(map[string]any{
			"last_read_message_id": messageID,
			"last_seen_at":         time.Now(),
		}).Error
	if err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to update read position", "db-error")
	}

	return nil
}
