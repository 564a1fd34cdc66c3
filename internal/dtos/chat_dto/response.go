package chat_dto

import "time"

type RoomResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	ProjectID   *int64    `json:"projectId,omitempty"`
	DocumentID  *int64    `json:"documentId,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

type MessageResponse struct {
	ID               int64     `json:"id"`
	RoomID           string    `json:"roomId"`
	UserID           string    `json:"userId"`
	Message          string    `json:"message"`
	MessageType      string    `json:"messageType"`
	FileName         *string   `json:"fileName,omitempty"`
	FilePath         *string   `json:"filePath,omitempty"`
	FileSize         *int64    `json:"fileSize,omitempty"`
	MimeType         *string   `json:"mimeType,omitempty"`
	ReplyToMessageID *int64    `json:"replyToMessageId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

type MemberResponse struct {
	RoomID            string    `json:"roomId"`
	UserID            string    `json:"userId"`
	Role              string    `json:"role"`
	LastSeenAt        time.Time `json:"lastSeenAt"`
	LastReadMessageID *int64    `json:"lastReadMessageId,omitempty"`
}

// JoinRoomResult carries everything the socket layer needs after a join: the
// payload for the caller plus the channel to subscribe to.
type JoinRoomResult struct {
	Room     RoomResponse      `json:"room"`
	Messages []MessageResponse `json:"messages"`
	Channel  string            `json:"-"`
}

type SendMessageResult struct {
	Message  MessageResponse `json:"message"`
	RoomType string          `json:"-"`
	Channel  string          `json:"-"`
}

type ReactionResult struct {
	MessageID int64  `json:"messageId"`
	Emoji     string `json:"emoji"`
	UserID    string `json:"userId"`
	Action    string `json:"action"`
	RoomID    string `json:"roomId"`
	Channel   string `json:"-"`
}

type DeleteMessageResult struct {
	MessageID int64  `json:"messageId"`
	RoomID    string `json:"roomId"`
	Channel   string `json:"-"`
}
