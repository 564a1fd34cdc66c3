package chat_dto

import "encoding/json"

// Envelope frames every client event. Data is decoded into the typed payload
// for the event name, so malformed input is rejected at the boundary instead
// of leaking into handlers.
type Envelope struct {
	Event string          `json:"event" validate:"required"`
	Data  json.RawMessage `json:"data"`
}

type AuthenticatePayload struct {
	UserID string `json:"userId" validate:"required"`
	Token  string `json:"token,omitempty"`
}

type JoinProjectRoomPayload struct {
	ProjectID int64 `json:"projectId" validate:"required,gt=0"`
}

type JoinDocumentRoomPayload struct {
	DocumentID int64 `json:"documentId" validate:"required,gt=0"`
}

type SendMessagePayload struct {
	RoomID           string  `json:"roomId" validate:"required,uuid"`
	Message          string  `json:"message,omitempty"`
	MessageType      string  `json:"messageType,omitempty" validate:"omitempty,oneof=text file image"`
	FileName         *string `json:"fileName,omitempty"`
	FilePath         *string `json:"filePath,omitempty"`
	FileSize         *int64  `json:"fileSize,omitempty" validate:"omitempty,gte=0"`
	MimeType         *string `json:"mimeType,omitempty"`
	ReplyToMessageID *int64  `json:"replyToMessageId,omitempty" validate:"omitempty,gt=0"`
}

type ReactToMessagePayload struct {
	MessageID int64  `json:"messageId" validate:"required,gt=0"`
	Emoji     string `json:"emoji" validate:"required,max=32"`
}

type DeleteMessagePayload struct {
	MessageID int64 `json:"messageId" validate:"required,gt=0"`
}

type TypingPayload struct {
	RoomID string `json:"roomId" validate:"required,uuid"`
}

type MarkReadPayload struct {
	RoomID    string `json:"roomId" validate:"required,uuid"`
	MessageID int64  `json:"messageId" validate:"required,gt=0"`
}
