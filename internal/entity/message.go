package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	MessageTypeText  = "text"
	MessageTypeFile  = "file"
	MessageTypeImage = "image"
)

// ChatMessage rows are append-only; the only mutation is a hard delete by
// the author or a room moderator/admin.
type ChatMessage struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID           uuid.UUID `gorm:"not null;index" json:"roomId"`
	UserID           string    `gorm:"not null" json:"userId"`
	Message          string    `json:"message"`
	MessageType      string    `gorm:"not null;default:text" json:"messageType"`
	FileName         *string   `json:"fileName,omitempty"`
	FilePath         *string   `json:"filePath,omitempty"`
	FileSize         *int64    `json:"fileSize,omitempty"`
	MimeType         *string   `json:"mimeType,omitempty"`
	ReplyToMessageID *int64    `json:"replyToMessageId,omitempty"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

type ChatMessageReaction struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	MessageID int64     `gorm:"not null;uniqueIndex:idx_reactions_msg_user_emoji" json:"messageId"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_reactions_msg_user_emoji" json:"userId"`
	Emoji     string    `gorm:"not null;uniqueIndex:idx_reactions_msg_user_emoji" json:"emoji"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
