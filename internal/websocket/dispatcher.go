package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/Lea43010/baustructura-chat/internal/dtos/chat_dto"
	"github.com/Lea43010/baustructura-chat/internal/entity"
	chat_service "github.com/Lea43010/baustructura-chat/internal/use-case/chat-case"
)

// handlerTimeout bounds each event handler independently of the connection:
// a client that disconnects mid-write does not abort the in-flight operation.
const handlerTimeout = 10 * time.Second

type Dispatcher struct {
	Service  chat_service.ChatServiceContract
	Hub      *Hub
	Auth     AuthenticatorFunc
	Validate *validator.Validate
}

func NewDispatcher(service chat_service.ChatServiceContract, hub *Hub, auth AuthenticatorFunc) *Dispatcher {
	return &Dispatcher{
		Service:  service,
		Hub:      hub,
		Auth:     auth,
		Validate: validator.New(),
	}
}

// Dispatch routes one inbound frame. Every failure is converted into an
// error event to the offending connection only; a panic in one handler must
// not take the read loop or any other client down with it.
func (d *Dispatcher) Dispatch(client *Client, raw []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("clientID", client.ID).Msg("ws: event handler panicked")
			d.emitError(client, "internal error")
		}
	}()

	var env chat_dto.Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
		d.emitError(client, "malformed event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if env.Event == EventAuthenticate {
		d.handleAuthenticate(ctx, client, env.Data)
		return
	}

	if !client.Authenticated() {
		d.emitError(client, "Not authenticated")
		return
	}

	switch env.Event {
	case EventJoinProjectRoom:
		d.handleJoinProjectRoom(ctx, client, env.Data)
	case EventJoinDocumentRoom:
		d.handleJoinDocumentRoom(ctx, client, env.Data)
	case EventJoinSupportRoom:
		d.handleJoinSupportRoom(ctx, client)
	case EventSendMessage:
		d.handleSendMessage(ctx, client, env.Data)
	case EventReactToMessage:
		d.handleReactToMessage(ctx, client, env.Data)
	case EventDeleteMessage:
		d.handleDeleteMessage(ctx, client, env.Data)
	case EventTypingStart:
		d.handleTyping(ctx, client, env.Data, true)
	case EventTypingStop:
		d.handleTyping(ctx, client, env.Data, false)
	case EventMarkRead:
		d.handleMarkRead(ctx, client, env.Data)
	default:
		d.emitError(client, "unknown event: "+env.Event)
	}
}

func (d *Dispatcher) handleAuthenticate(ctx context.Context, client *Client, raw json.RawMessage) {
	var payload chat_dto.AuthenticatePayload
	if !d.decode(client, raw, &payload) {
		return
	}

	if err := d.Auth(ctx, payload.UserID, payload.Token); err != nil {
		client.SendEvent(OutgoingEvent{
			Event: EventAuthenticationError,
			Data:  chat_dto.AuthenticationErrorEvent{Message: err.Error()},
		})
		return
	}

	client.setUserID(payload.UserID)
	d.Hub.RegisterUser(client)

	client.SendEvent(OutgoingEvent{
		Event: EventAuthenticated,
		Data:  chat_dto.AuthenticatedEvent{Success: true, UserID: payload.UserID},
	})
}

func (d *Dispatcher) handleJoinProjectRoom(ctx context.Context, client *Client, raw json.RawMessage) {
	var payload chat_dto.JoinProjectRoomPayload
	if !d.decode(client, raw, &payload) {
		return
	}

	d.joinRoom(ctx, client, entity.RoomTypeProject, &payload.ProjectID, EventRoomJoined)
}

func (d *Dispatcher) handleJoinDocumentRoom(ctx context.Context, client *Client, raw json.RawMessage) {
	var payload chat_dto.JoinDocumentRoomPayload
	if !d.decode(client, raw, &payload) {
		return
	}

	d.joinRoom(ctx, client, entity.RoomTypeDocument, &payload.DocumentID, EventDocumentRoomJoined)
}

func (d *Dispatcher) handleJoinSupportRoom(ctx context.Context, client *Client) {
	d.joinRoom(ctx, client, entity.RoomTypeSupport, nil, EventRoomJoined)
}

func (d *Dispatcher) joinRoom(ctx context.Context, client *Client, roomType string, refID *int64, joinedEvent string) {
	result, appErr := d.Service.JoinRoom(ctx, roomType, refID, client.UserID())
	if appErr != nil {
		d.emitError(client, appErr.Message)
		return
	}

	d.Hub.Subscribe(result.Channel, client)

	client.SendEvent(OutgoingEvent{
		Event: joinedEvent,
		Data: chat_dto.RoomJoinedEvent{
			Room:     result.Room,
			Messages: result.Messages,
		},
	})

	// Support joins are silent; the room is shared by everyone.
	if roomType != entity.RoomTypeSupport {
		d.Hub.BroadcastToChannelExcept(result.Channel, OutgoingEvent{
			Event: EventUserJoinedRoom,
			Data: chat_dto.UserJoinedRoomEvent{
				UserID: client.UserID(),
				RoomID: result.Room.ID,
			},
		}, client)
	}
}

func (d *Dispatcher) handleSendMessage(ctx context.Context, client *Client, raw json.RawMessage) {
	var payload chat_dto.SendMessagePayload
	if !d.decode(client, raw, &payload) {
		return
	}

	result, appErr := d.Service.SendMessage(ctx, payload, client.UserID())
	if appErr != nil {
		d.emitError(client, appErr.Message)
		return
	}

	// The sender gets its copy through the broadcast like everyone else.
	d.Hub.BroadcastToChannel(result.Channel, OutgoingEvent{
		Event: EventNewMessage,
		Data:  result.Message,
	})
}

func (d *Dispatcher) handleReactToMessage(ctx context.Context, client *Client, raw json.RawMessage) {
	var payload chat_dto.ReactToMessagePayload
	if !d.decode(client, raw, &payload) {
		return
	}

	result, appErr := d.Service.ToggleReaction(ctx, payload, client.UserID())
	if appErr != nil {
		d.emitError(client, appErr.Message)
		return
	}

	d.Hub.BroadcastToChannel(result.Channel, OutgoingEvent{
		Event: EventReactionUpdated,
		Data: chat_dto.ReactionUpdatedEvent{
			MessageID: result.MessageID,
			Emoji:     result.Emoji,
			UserID:    result.UserID,
			Action:    result.Action,
		},
	})
}

func (d *Dispatcher) handleDeleteMessage(ctx context.Context, client *Client, raw json.RawMessage) {
	var payload chat_dto.DeleteMessagePayload
	if !d.decode(client, raw, &payload) {
		return
	}

	result, appErr := d.Service.DeleteMessage(ctx, payload.MessageID, client.UserID())
	if appErr != nil {
		d.emitError(client, appErr.Message)
		return
	}

	d.Hub.BroadcastToChannel(result.Channel, OutgoingEvent{
		Event: EventMessageDeleted,
		Data: chat_dto.MessageDeletedEvent{
			MessageID: result.MessageID,
			RoomID:    result.RoomID,
		},
	})
}

func (d *Dispatcher) handleTyping(ctx context.Context, client *Client, raw json.RawMessage, isTyping bool) {
	var payload chat_dto.TypingPayload
	if !d.decode(client, raw, &payload) {
		return
	}

	channel, appErr := d.Service.RoomChannel(ctx, payload.RoomID, client.UserID())
	if appErr != nil {
		d.emitError(client, appErr.Message)
		return
	}

	// Ephemeral: nothing persisted, scoped to the room's subscribers.
	d.Hub.BroadcastToChannelExcept(channel, OutgoingEvent{
		Event: EventUserTyping,
		Data: chat_dto.UserTypingEvent{
			UserID:   client.UserID(),
			RoomID:   payload.RoomID,
			IsTyping: isTyping,
		},
	}, client)
}

func (d *Dispatcher) handleMarkRead(ctx context.Context, client *Client, raw json.RawMessage) {
	var payload chat_dto.MarkReadPayload
	if !d.decode(client, raw, &payload) {
		return
	}

	if appErr := d.Service.MarkRead(ctx, payload, client.UserID()); appErr != nil {
		d.emitError(client, appErr.Message)
	}
}

func (d *Dispatcher) decode(client *Client, raw json.RawMessage, payload any) bool {
	if len(raw) == 0 {
		d.emitError(client, "missing event data")
		return false
	}

	if err := json.Unmarshal(raw, payload); err != nil {
		d.emitError(client, "malformed event data")
		return false
	}

	if err := d.Validate.Struct(payload); err != nil {
		d.emitError(client, "invalid event data: "+err.Error())
		return false
	}

	return true
}

func (d *Dispatcher) emitError(client *Client, message string) {
	client.SendEvent(OutgoingEvent{
		Event: EventError,
		Data:  chat_dto.ErrorEvent{Message: message},
	})
}
