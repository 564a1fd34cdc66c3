package types

import "time"

// SupportEmailPayload is the queue payload for the operator notification
// dispatched when a message lands in the support room.
type SupportEmailPayload struct {
	RoomID    string    `json:"room_id"`
	MessageID int64     `json:"message_id"`
	SenderID  string    `json:"sender_id"`
	Preview   string    `json:"preview"`
	SentAt    time.Time `json:"sent_at"`
}
