package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RoomTypeProject  = "project"
	RoomTypeDocument = "document"
	RoomTypeSupport  = "support"
)

const (
	RoleMember    = "member"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ChatRoom is created lazily on first join. The unique indexes keep one room
// per (type, project) and (type, document). Support rows carry NULL in both
// reference columns, which Postgres treats as distinct, so the singleton
// needs its own partial index on the type alone.
type ChatRoom struct {
	ID          uuid.UUID `gorm:"primaryKey" json:"id"`
	RoomType    string    `gorm:"not null;uniqueIndex:idx_rooms_type_project;uniqueIndex:idx_rooms_type_document;uniqueIndex:idx_rooms_support_singleton,where:room_type = 'support'" json:"type"`
	ProjectID   *int64    `gorm:"uniqueIndex:idx_rooms_type_project" json:"projectId,omitempty"`
	DocumentID  *int64    `gorm:"uniqueIndex:idx_rooms_type_document" json:"documentId,omitempty"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `gorm:"not null" json:"createdBy"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// Channel is the hub channel the room broadcasts on: project_<id>,
// document_<id>, or the shared support channel.
func (r *ChatRoom) Channel() string {
	switch r.RoomType {
	case RoomTypeProject:
		if r.ProjectID != nil {
			return fmt.Sprintf("project_%d", *r.ProjectID)
		}
	case RoomTypeDocument:
		if r.DocumentID != nil {
			return fmt.Sprintf("document_%d", *r.DocumentID)
		}
	case RoomTypeSupport:
		return "support"
	}
	return "room_" + r.ID.String()
}

type ChatRoomMember struct {
	ID                int64      `gorm:"primaryKey" json:"id"`
	RoomID            uuid.UUID  `gorm:"not null;uniqueIndex:idx_members_room_user" json:"roomId"`
	UserID            string     `gorm:"not null;uniqueIndex:idx_members_room_user" json:"userId"`
	Role              string     `gorm:"not null;default:member" json:"role"`
	LastSeenAt        time.Time  `gorm:"autoCreateTime" json:"lastSeenAt"`
	LastReadMessageID *int64     `json:"lastReadMessageId,omitempty"`
	JoinedAt          time.Time  `gorm:"autoCreateTime" json:"joinedAt"`
}

func (m *ChatRoomMember) CanModerate() bool {
	return m.Role == RoleAdmin || m.Role == RoleModerator
}
