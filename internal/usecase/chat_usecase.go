package usecase

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/medlink/teleconsult/internal/application/constant"
	"github.com/medlink/teleconsult/internal/domain/events"
	"github.com/medlink/teleconsult/internal/infra/adapters/memory"
)

// ChatUsecase is the text relay. Same broadcast primitive as the call relay,
// keyed by conversation id, with unbounded membership and opaque payloads.
// Nothing is persisted.
type ChatUsecase interface {
	HandleJoin(ctx context.Context, userID uuid.UUID, join events.ChatJoinEvent) error
	HandleMessage(ctx context.Context, userID uuid.UUID, msg events.ChatMessageEvent) error
	HandleLeave(ctx context.Context, userID uuid.UUID, conversationID string) error
	HandleDisconnect(ctx context.Context, userID uuid.UUID)
}

type chatUsecase struct {
	registry memory.SessionRegistry
	wsRepo   memory.WebsocketConnectionRepository
}

func NewChatUsecase(registry memory.SessionRegistry, wsRepo memory.WebsocketConnectionRepository) ChatUsecase {
	return &chatUsecase{
		registry: registry,
		wsRepo:   wsRepo,
	}
}

func (c *chatUsecase) HandleJoin(ctx context.Context, userID uuid.UUID, join events.ChatJoinEvent) error {
	if join.ConversationID == "" {
		c.sendError(userID, events.ReasonMalformedSignal, "conversation_id is required")
		return nil
	}

	result, _ := c.registry.Join(join.ConversationID, userID)
	if result == memory.JoinRejectedDuplicate {
		return nil
	}

	slog.Info("participant joined conversation",
		slog.Any(constant.UserID, userID),
		slog.String(constant.ConversationID, join.ConversationID),
	)

	c.broadcastParticipants(join.ConversationID)

	return nil
}

func (c *chatUsecase) HandleMessage(ctx context.Context, userID uuid.UUID, msg events.ChatMessageEvent) error {
	if msg.ConversationID == "" {
		c.sendError(userID, events.ReasonMalformedSignal, "conversation_id is required")
		return nil
	}

	if len(msg.Body) == 0 {
		c.sendError(userID, events.ReasonMalformedSignal, "body is required")
		return nil
	}

	// Only a joined member may broadcast into the conversation.
	if !c.isMember(userID, msg.ConversationID) {
		c.sendError(userID, events.ReasonStaleRoom, "not a member of this conversation")
		return nil
	}

	data, err := json.Marshal(events.ChatMessageEvent{Body: msg.Body})
	if err != nil {
		return err
	}

	for _, peerID := range c.registry.PeersOf(msg.ConversationID, userID) {
		c.wsRepo.Write(peerID, events.Message{Type: events.TypeChatMessage, Data: data})
	}

	return nil
}

func (c *chatUsecase) HandleLeave(ctx context.Context, userID uuid.UUID, conversationID string) error {
	if !c.registry.Leave(conversationID, userID) {
		return nil
	}

	c.broadcastParticipants(conversationID)

	return nil
}

func (c *chatUsecase) HandleDisconnect(ctx context.Context, userID uuid.UUID) {
	for _, conversationID := range c.registry.RoomsOf(userID) {
		_ = c.HandleLeave(ctx, userID, conversationID)
	}
}

func (c *chatUsecase) broadcastParticipants(conversationID string) {
	members := c.registry.PeersOf(conversationID, uuid.Nil)

	list := events.ParticipantListEvent{List: make([]string, 0, len(members))}
	for _, memberID := range members {
		list.List = append(list.List, memberID.String())
	}

	data, err := json.Marshal(list)
	if err != nil {
		slog.Error("marshal participants", slog.Any(constant.Error, err))
		return
	}

	for _, memberID := range members {
		c.wsRepo.Write(memberID, events.Message{Type: events.TypeParticipants, Data: data})
	}
}

func (c *chatUsecase) isMember(userID uuid.UUID, conversationID string) bool {
	for _, id := range c.registry.RoomsOf(userID) {
		if id == conversationID {
			return true
		}
	}

	return false
}

func (c *chatUsecase) sendError(userID uuid.UUID, reason, message string) {
	data, err := json.Marshal(events.ErrorEvent{Reason: reason, Message: message})
	if err != nil {
		return
	}

	c.wsRepo.Write(userID, events.Message{Type: events.TypeError, Data: data})
}
