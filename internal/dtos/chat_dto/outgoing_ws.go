package chat_dto

type AuthenticatedEvent struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
}

type AuthenticationErrorEvent struct {
	Message string `json:"message"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

type RoomJoinedEvent struct {
	Room     RoomResponse      `json:"room"`
	Messages []MessageResponse `json:"messages"`
}

type UserJoinedRoomEvent struct {
	UserID string `json:"userId"`
	RoomID string `json:"roomId"`
}

type ReactionUpdatedEvent struct {
	MessageID int64  `json:"messageId"`
	Emoji     string `json:"emoji"`
	UserID    string `json:"userId"`
	Action    string `json:"action"` // added | removed
}

type UserTypingEvent struct {
	UserID   string `json:"userId"`
	RoomID   string `json:"roomId"`
	IsTyping bool   `json:"isTyping"`
}

type MessageDeletedEvent struct {
	MessageID int64  `json:"messageId"`
	RoomID    string `json:"roomId"`
}
