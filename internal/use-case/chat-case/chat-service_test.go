package chat_service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lea43010/baustructura-chat/internal/dtos/chat_dto"
	"github.com/Lea43010/baustructura-chat/internal/entity"
	app_error "github.com/Lea43010/baustructura-chat/internal/errors"
	"github.com/Lea43010/baustructura-chat/internal/queue"
	chat_repo "github.com/Lea43010/baustructura-chat/internal/repo/chat"
	"github.com/Lea43010/baustructura-chat/internal/utils/types"
)

// fakeChatRepo is an in-memory ChatRepoContract so the service can be
// exercised without Postgres.
type fakeChatRepo struct {
	rooms     map[uuid.UUID]*entity.ChatRoom
	members   map[string]*entity.ChatRoomMember // key: roomID|userID
	messages  map[int64]*entity.ChatMessage
	reactions map[string]bool // key: messageID|userID|emoji
	nextMsgID int64

	ensureCalls int
	createCalls int
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		rooms:     make(map[uuid.UUID]*entity.ChatRoom),
		members:   make(map[string]*entity.ChatRoomMember),
		messages:  make(map[int64]*entity.ChatMessage),
		reactions: make(map[string]bool),
	}
}

func memberKey(roomID uuid.UUID, userID string) string {
	return roomID.String() + "|" + userID
}

func (f *fakeChatRepo) FindOrCreateRoom(ctx context.Context, roomType string, refID *int64, creatorID string) (*entity.ChatRoom, *app_error.AppError) {
	for _, r := range f.rooms {
		if r.RoomType != roomType {
			continue
		}
		switch roomType {
		case entity.RoomTypeProject:
			if r.ProjectID != nil && refID != nil && *r.ProjectID == *refID {
				return r, nil
			}
		case entity.RoomTypeDocument:
			if r.DocumentID != nil && refID != nil && *r.DocumentID == *refID {
				return r, nil
			}
		case entity.RoomTypeSupport:
			return r, nil
		}
	}

	room := &entity.ChatRoom{
		ID:        uuid.New(),
		RoomType:  roomType,
		CreatedBy: creatorID,
	}
	switch roomType {
	case entity.RoomTypeProject:
		room.ProjectID = refID
	case entity.RoomTypeDocument:
		room.DocumentID = refID
	}
	f.rooms[room.ID] = room
	return room, nil
}

func (f *fakeChatRepo) FindRoomByID(ctx context.Context, roomID uuid.UUID) (*entity.ChatRoom, *app_error.AppError) {
	room, ok := f.rooms[roomID]
	if !ok {
		return nil, app_error.NewAppError(http.StatusNotFound, "room not found", "roomId")
	}
	return room, nil
}

func (f *fakeChatRepo) EnsureMembership(ctx context.Context, roomID uuid.UUID, userID, role string) *app_error.AppError {
	f.ensureCalls++
	key := memberKey(roomID, userID)
	if _, ok := f.members[key]; ok {
		return nil
	}
	f.members[key] = &entity.ChatRoomMember{
		ID:     int64(len(f.members) + 1),
		RoomID: roomID,
		UserID: userID,
		Role:   role,
	}
	return nil
}

func (f *fakeChatRepo) FindMembership(ctx context.Context, roomID uuid.UUID, userID string) (*entity.ChatRoomMember, *app_error.AppError) {
	member, ok := f.members[memberKey(roomID, userID)]
	if !ok {
		return nil, app_error.NewAppError(http.StatusForbidden, "not a member of this room", "roomId")
	}
	return member, nil
}

func (f *fakeChatRepo) RoomMembers(ctx context.Context, roomID uuid.UUID) ([]*entity.ChatRoomMember, *app_error.AppError) {
	var out []*entity.ChatRoomMember
	for _, m := range f.members {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	return out, nil
}

// RecentMessages mirrors the real query shape: newest N first, then reversed
// into chronological order.
func (f *fakeChatRepo) RecentMessages(ctx context.Context, roomID uuid.UUID, limit int) ([]*entity.ChatMessage, *app_error.AppError) {
	var out []*entity.ChatMessage
	for id := f.nextMsgID; id >= 1 && len(out) < limit; id-- {
		if msg, ok := f.messages[id]; ok && msg.RoomID == roomID {
			out = append(out, msg)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (f *fakeChatRepo) CreateMessage(ctx context.Context, msg *entity.ChatMessage) *app_error.AppError {
	f.createCalls++
	f.nextMsgID++
	msg.ID = f.nextMsgID
	f.messages[msg.ID] = msg
	return nil
}

func (f *fakeChatRepo) FindMessageByID(ctx context.Context, messageID int64) (*entity.ChatMessage, *app_error.AppError) {
	msg, ok := f.messages[messageID]
	if !ok {
		return nil, app_error.NewAppError(http.StatusNotFound, "message not found", "messageId")
	}
	return msg, nil
}

func (f *fakeChatRepo) DeleteMessage(ctx context.Context, messageID int64) *app_error.AppError {
	delete(f.messages, messageID)
	return nil
}

func (f *fakeChatRepo) ToggleReaction(ctx context.Context, messageID int64, userID, emoji string) (string, *app_error.AppError) {
	key := fmt.Sprintf("%d|%s|%s", messageID, userID, emoji)
	if f.reactions[key] {
		delete(f.reactions, key)
		return chat_repo.ReactionRemoved, nil
	}
	f.reactions[key] = true
	return chat_repo.ReactionAdded, nil
}

func (f *fakeChatRepo) UpdateReadPosition(ctx context.Context, roomID uuid.UUID, userID string, messageID int64) *app_error.AppError {
	member, ok := f.members[memberKey(roomID, userID)]
	if !ok {
		return app_error.NewAppError(http.StatusForbidden, "not a member of this room", "roomId")
	}
	member.LastReadMessageID = &messageID
	return nil
}

// recordingProducer captures enqueued jobs instead of touching Redis.
type recordingProducer struct {
	jobs []queue.Job
}

func (r *recordingProducer) Enqueue(ctx context.Context, job queue.Job) error {
	r.jobs = append(r.jobs, job)
	return nil
}

func newTestService() (*ChatService, *fakeChatRepo, *recordingProducer) {
	repo := newFakeChatRepo()
	producer := &recordingProducer{}
	return &ChatService{ChatRepo: repo, Producer: producer}, repo, producer
}

func int64Ptr(v int64) *int64 { return &v }

func TestJoinRoom_CreatesRoomAndMembership(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	result, err := service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(7), "user-1")

	require.Nil(t, err)
	require.NotNil(t, result)
	assert.Equal(t, entity.RoomTypeProject, result.Room.Type)
	assert.Equal(t, "project_7", result.Channel)
	assert.Empty(t, result.Messages)
	assert.Len(t, repo.rooms, 1)
	assert.Len(t, repo.members, 1)
}

func TestJoinRoom_SecondJoinIsIdempotent(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	first, err := service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(7), "user-1")
	require.Nil(t, err)

	second, err := service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(7), "user-1")
	require.Nil(t, err)

	assert.Equal(t, first.Room.ID, second.Room.ID, "same project must resolve to the same room")
	assert.Len(t, repo.rooms, 1, "no duplicate room on re-join")
	assert.Len(t, repo.members, 1, "no duplicate membership on re-join")
	assert.Equal(t, 2, repo.ensureCalls)
}

func TestJoinRoom_SupportRoomIsShared(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	a, err := service.JoinRoom(ctx, entity.RoomTypeSupport, nil, "user-a")
	require.Nil(t, err)
	b, err := service.JoinRoom(ctx, entity.RoomTypeSupport, nil, "user-b")
	require.Nil(t, err)

	assert.Equal(t, a.Room.ID, b.Room.ID, "all users share one support room")
	assert.Equal(t, "support", a.Channel)
	assert.Len(t, repo.rooms, 1)
	assert.Len(t, repo.members, 2)
}

func TestSendMessage_PersistsAndReturnsServerFields(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	joined, err := service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(3), "user-1")
	require.Nil(t, err)

	result, err := service.SendMessage(ctx, chat_dto.SendMessagePayload{
		RoomID:  joined.Room.ID,
		Message: "Hallo Baustelle",
	}, "user-1")

	require.Nil(t, err)
	assert.Equal(t, int64(1), result.Message.ID, "server assigns the message id")
	assert.Equal(t, entity.MessageTypeText, result.Message.MessageType)
	assert.Equal(t, "project_3", result.Channel)
	assert.Equal(t, 1, repo.createCalls)
}

func TestSendMessage_RoomNotFound_NothingPersisted(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	result, err := service.SendMessage(ctx, chat_dto.SendMessagePayload{
		RoomID:  uuid.New().String(),
		Message: "hello?",
	}, "user-1")

	require.NotNil(t, err)
	assert.Nil(t, result)
	assert.Equal(t, http.StatusNotFound, err.Code)
	assert.Equal(t, 0, repo.createCalls, "no row may be written for a missing room")
}

func TestSendMessage_NonMemberRejected(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	joined, err := service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(3), "user-1")
	require.Nil(t, err)

	result, err := service.SendMessage(ctx, chat_dto.SendMessagePayload{
		RoomID:  joined.Room.ID,
		Message: "intruder",
	}, "user-2")

	require.NotNil(t, err)
	assert.Nil(t, result)
	assert.Equal(t, http.StatusForbidden, err.Code)
	assert.Equal(t, 0, repo.createCalls)
}

func TestSendMessage_EmptyTextRejected(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	joined, err := service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(3), "user-1")
	require.Nil(t, err)

	result, err := service.SendMessage(ctx, chat_dto.SendMessagePayload{
		RoomID: joined.Room.ID,
	}, "user-1")

	require.NotNil(t, err)
	assert.Nil(t, result)
	assert.Equal(t, http.StatusBadRequest, err.Code)
}

func TestSendMessage_SupportRoomEnqueuesNotification(t *testing.T) {
	service, _, producer := newTestService()
	ctx := context.Background()

	joined, err := service.JoinRoom(ctx, entity.RoomTypeSupport, nil, "user-1")
	require.Nil(t, err)

	_, err = service.SendMessage(ctx, chat_dto.SendMessagePayload{
		RoomID:  joined.Room.ID,
		Message: "Ich brauche Hilfe mit dem Bautagebuch",
	}, "user-1")
	require.Nil(t, err)

	require.Len(t, producer.jobs, 1)
	assert.Equal(t, queue.JobTypeSupportEmail, producer.jobs[0].Type)
}

func TestSendMessage_ProjectRoomDoesNotEnqueue(t *testing.T) {
	service, _, producer := newTestService()
	ctx := context.Background()

	joined, err := service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(9), "user-1")
	require.Nil(t, err)

	_, err = service.SendMessage(ctx, chat_dto.SendMessagePayload{
		RoomID:  joined.Room.ID,
		Message: "normal traffic",
	}, "user-1")
	require.Nil(t, err)

	assert.Empty(t, producer.jobs)
}

func TestSendMessage_ReplyToMissingMessageRejected(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	joined, err := service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(3), "user-1")
	require.Nil(t, err)

	result, err := service.SendMessage(ctx, chat_dto.SendMessagePayload{
		RoomID:           joined.Room.ID,
		Message:          "re: nothing",
		ReplyToMessageID: int64Ptr(999),
	}, "user-1")

	require.NotNil(t, err)
	assert.Nil(t, result)
	assert.Equal(t, http.StatusNotFound, err.Code)
}

func TestToggleReaction_AddThenRemove(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	joined, err := service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(3), "user-1")
	require.Nil(t, err)

	sent, err := service.SendMessage(ctx, chat_dto.SendMessagePayload{
		RoomID:  joined.Room.ID,
		Message: "react to me",
	}, "user-1")
	require.Nil(t, err)

	first, err := service.ToggleReaction(ctx, chat_dto.ReactToMessagePayload{
		MessageID: sent.Message.ID,
		Emoji:     "👍",
	}, "user-1")
	require.Nil(t, err)
	assert.Equal(t, chat_repo.ReactionAdded, first.Action)

	second, err := service.ToggleReaction(ctx, chat_dto.ReactToMessagePayload{
		MessageID: sent.Message.ID,
		Emoji:     "👍",
	}, "user-1")
	require.Nil(t, err)
	assert.Equal(t, chat_repo.ReactionRemoved, second.Action)
}

func TestDeleteMessage_AuthorAllowed(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	joined, err := service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(3), "user-1")
	require.Nil(t, err)

	sent, err := service.SendMessage(ctx, chat_dto.SendMessagePayload{
		RoomID:  joined.Room.ID,
		Message: "delete me",
	}, "user-1")
	require.Nil(t, err)

	result, err := service.DeleteMessage(ctx, sent.Message.ID, "user-1")

	require.Nil(t, err)
	assert.Equal(t, sent.Message.ID, result.MessageID)
	assert.Empty(t, repo.messages, "row must be gone after delete")
}

func TestDeleteMessage_StrangerForbidden(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	joined, err := service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(3), "user-1")
	require.Nil(t, err)

	sent, err := service.SendMessage(ctx, chat_dto.SendMessagePayload{
		RoomID:  joined.Room.ID,
		Message: "keep me",
	}, "user-1")
	require.Nil(t, err)

	// user-2 joins the room but is a plain member
	_, err = service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(3), "user-2")
	require.Nil(t, err)

	result, err := service.DeleteMessage(ctx, sent.Message.ID, "user-2")

	require.NotNil(t, err)
	assert.Nil(t, result)
	assert.Equal(t, http.StatusForbidden, err.Code)
	assert.Len(t, repo.messages, 1, "row must survive a forbidden delete")
}

func TestDeleteMessage_ModeratorAllowed(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	joined, err := service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(3), "user-1")
	require.Nil(t, err)

	sent, err := service.SendMessage(ctx, chat_dto.SendMessagePayload{
		RoomID:  joined.Room.ID,
		Message: "moderated away",
	}, "user-1")
	require.Nil(t, err)

	_, err = service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(3), "mod-1")
	require.Nil(t, err)
	roomID := uuid.MustParse(joined.Room.ID)
	repo.members[memberKey(roomID, "mod-1")].Role = entity.RoleModerator

	result, err := service.DeleteMessage(ctx, sent.Message.ID, "mod-1")

	require.Nil(t, err)
	assert.Equal(t, sent.Message.ID, result.MessageID)
	assert.Empty(t, repo.messages)
}

func TestMarkRead_UpdatesMemberPosition(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	joined, err := service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(3), "user-1")
	require.Nil(t, err)

	sent, err := service.SendMessage(ctx, chat_dto.SendMessagePayload{
		RoomID:  joined.Room.ID,
		Message: "seen",
	}, "user-1")
	require.Nil(t, err)

	err = service.MarkRead(ctx, chat_dto.MarkReadPayload{
		RoomID:    joined.Room.ID,
		MessageID: sent.Message.ID,
	}, "user-1")
	require.Nil(t, err)

	roomID := uuid.MustParse(joined.Room.ID)
	member := repo.members[memberKey(roomID, "user-1")]
	require.NotNil(t, member.LastReadMessageID)
	assert.Equal(t, sent.Message.ID, *member.LastReadMessageID)
}

func TestRoomChannel_MemberResolves(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	joined, err := service.JoinRoom(ctx, entity.RoomTypeDocument, int64Ptr(11), "user-1")
	require.Nil(t, err)

	channel, err := service.RoomChannel(ctx, joined.Room.ID, "user-1")
	require.Nil(t, err)
	assert.Equal(t, "document_11", channel)

	_, err = service.RoomChannel(ctx, joined.Room.ID, "user-2")
	require.NotNil(t, err)
	assert.Equal(t, http.StatusForbidden, err.Code)
}

func TestRoomMessages_InvalidID(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.RoomMessages(context.Background(), "not-a-uuid", "user-1", 50)

	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Code)
}

func TestRoomMessages_NonMemberRejected(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	joined, err := service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(3), "user-1")
	require.Nil(t, err)

	_, err = service.SendMessage(ctx, chat_dto.SendMessagePayload{
		RoomID:  joined.Room.ID,
		Message: "private",
	}, "user-1")
	require.Nil(t, err)

	messages, err := service.RoomMessages(ctx, joined.Room.ID, "outsider", 50)
	require.NotNil(t, err)
	assert.Nil(t, messages)
	assert.Equal(t, http.StatusForbidden, err.Code)

	messages, err = service.RoomMessages(ctx, joined.Room.ID, "user-1", 50)
	require.Nil(t, err)
	assert.Len(t, messages, 1)
}

func TestRoomMembers_NonMemberRejected(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	joined, err := service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(3), "user-1")
	require.Nil(t, err)

	members, err := service.RoomMembers(ctx, joined.Room.ID, "outsider")
	require.NotNil(t, err)
	assert.Nil(t, members)
	assert.Equal(t, http.StatusForbidden, err.Code)

	members, err = service.RoomMembers(ctx, joined.Room.ID, "user-1")
	require.Nil(t, err)
	assert.Len(t, members, 1)
}

func TestJoinRoom_HistoryWindowNewestAscending(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	joined, err := service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(3), "user-1")
	require.Nil(t, err)

	for i := 0; i < 60; i++ {
		_, err := service.SendMessage(ctx, chat_dto.SendMessagePayload{
			RoomID:  joined.Room.ID,
			Message: fmt.Sprintf("message %d", i),
		}, "user-1")
		require.Nil(t, err)
	}

	rejoined, err := service.JoinRoom(ctx, entity.RoomTypeProject, int64Ptr(3), "user-1")
	require.Nil(t, err)

	// the newest 50 of 60, in ascending chronological order
	require.Len(t, rejoined.Messages, 50)
	assert.Equal(t, int64(11), rejoined.Messages[0].ID)
	assert.Equal(t, int64(60), rejoined.Messages[49].ID)
	for i := 1; i < len(rejoined.Messages); i++ {
		assert.Less(t, rejoined.Messages[i-1].ID, rejoined.Messages[i].ID)
	}
}

func TestSendMessage_SupportPreviewKeepsRunesIntact(t *testing.T) {
	service, _, producer := newTestService()
	ctx := context.Background()

	joined, err := service.JoinRoom(ctx, entity.RoomTypeSupport, nil, "user-1")
	require.Nil(t, err)

	// 199 ASCII bytes followed by a two-byte rune straddling the cut point
	text := strings.Repeat("a", 199) + "üchtern, bitte um Rückruf"
	_, err = service.SendMessage(ctx, chat_dto.SendMessagePayload{
		RoomID:  joined.Room.ID,
		Message: text,
	}, "user-1")
	require.Nil(t, err)

	require.Len(t, producer.jobs, 1)
	var payload types.SupportEmailPayload
	require.NoError(t, json.Unmarshal(producer.jobs[0].Payload, &payload))

	assert.LessOrEqual(t, len(payload.Preview), 200)
	assert.True(t, utf8.ValidString(payload.Preview), "preview must not split a rune")
	assert.Equal(t, strings.Repeat("a", 199), payload.Preview)
}
