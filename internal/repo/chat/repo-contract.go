package chat_repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Lea43010/baustructura-chat/internal/entity"
	app_error "github.com/Lea43010/baustructura-chat/internal/errors"
)

type ChatRepoContract interface {
	FindOrCreateRoom(ctx context.Context, roomType string, refID *int64, creatorID string) (*entity.ChatRoom, *app_error.AppError)
	FindRoomByID(ctx context.Context, roomID uuid.UUID) (*entity.ChatRoom, *app_error.AppError)
	EnsureMembership(ctx context.Context, roomID uuid.UUID, userID, role string) *app_error.AppError
	FindMembership(ctx context.Context, roomID uuid.UUID, userID string) (*entity.ChatRoomMember, *app_error.AppError)
	RoomMembers(ctx context.Context, roomID uuid.UUID) ([]*entity.ChatRoomMember, *app_error.AppError)
	RecentMessages(ctx context.Context, roomID uuid.UUID, limit int) ([]*entity.ChatMessage, *app_error.AppError)
	CreateMessage(ctx context.Context, msg *entity.ChatMessage) *app_error.AppError
	FindMessageByID(ctx context.Context, messageID int64) (*entity.ChatMessage, *app_error.AppError)
	DeleteMessage(ctx context.Context, messageID int64) *app_error.AppError
	ToggleReaction(ctx context.Context, messageID int64, userID, emoji string) (string, *app_error.AppError)
	UpdateReadPosition(ctx context.Context, roomID uuid.UUID, userID string, messageID int64) *app_error.AppError
}
