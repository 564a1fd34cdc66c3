package chat_service

import (
	"context"

	"github.com/Lea43010/baustructura-chat/internal/dtos/chat_dto"
	app_error "github.com/Lea43010/baustructura-chat/internal/errors"
)

type ChatServiceContract interface {
	JoinRoom(ctx context.Context, roomType string, refID *int64, userID string) (*chat_dto.JoinRoomResult, *app_error.AppError)
	SendMessage(ctx context.Context, req chat_dto.SendMessagePayload, userID string) (*chat_dto.SendMessageResult, *app_error.AppError)
	ToggleReaction(ctx context.Context, req chat_dto.ReactToMessagePayload, userID string) (*chat_dto.ReactionResult, *app_error.AppError)
	DeleteMessage(ctx context.Context, messageID int64, userID string) (*chat_dto.DeleteMessageResult, *app_error.AppError)
	MarkRead(ctx context.Context, req chat_dto.MarkReadPayload, userID string) *app_error.AppError
	RoomChannel(ctx context.Context, roomID, userID string) (string, *app_error.AppError)
	RoomMessages(ctx context.Context, roomID, userID string, limit int) ([]chat_dto.MessageResponse, *app_error.AppError)
	RoomMembers(ctx context.Context, roomID, userID string) ([]chat_dto.MemberResponse, *app_error.AppError)
}
