package websocket

// Events consumed from clients.
const (
	EventAuthenticate     = "authenticate"
	EventJoinProjectRoom  = "join_project_room"
	EventJoinDocumentRoom = "join_document_room"
	EventJoinSupportRoom  = "join_support_room"
	EventSendMessage      = "send_message"
	EventReactToMessage   = "react_to_message"
	EventDeleteMessage    = "delete_message"
	EventTypingStart      = "typing_start"
	EventTypingStop       = "typing_stop"
	EventMarkRead         = "mark_read"
)

// Events emitted to clients.
const (
	EventAuthenticated       = "authenticated"
	EventAuthenticationError = "authentication_error"
	EventRoomJoined          = "room_joined"
	EventDocumentRoomJoined  = "document_room_joined"
	EventUserJoinedRoom      = "user_joined_room"
	EventNewMessage          = "new_message"
	EventReactionUpdated     = "message_reaction_updated"
	EventMessageDeleted      = "message_deleted"
	EventUserTyping          = "user_typing"
	EventError               = "error"
)

// OutgoingEvent is the frame written to clients. Channel is filled in by the
// hub on broadcast so multiplexing clients can route without inspecting Data.
type OutgoingEvent struct {
	Event     string `json:"event"`
	Channel   string `json:"channel,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}
