package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/medlink/teleconsult/internal/domain/events"
	"github.com/medlink/teleconsult/internal/infra/adapters/memory"
)

func newChatFixture() (ChatUsecase, memory.SessionRegistry, *recordingConns) {
	registry := memory.NewSessionRegistry(0)
	conns := newRecordingConns()
	return NewChatUsecase(registry, conns), registry, conns
}

func TestChat_BroadcastExcludesSender(t *testing.T) {
	ctx := context.Background()
	chat, _, conns := newChatFixture()

	conversationID := uuid.NewString()
	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	for _, id := range []uuid.UUID{alice, bob, carol} {
		if err := chat.HandleJoin(ctx, id, events.ChatJoinEvent{ConversationID: conversationID}); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	body := json.RawMessage(`{"text":"hi"}`)
	err := chat.HandleMessage(ctx, alice, events.ChatMessageEvent{
		ConversationID: conversationID,
		Body:           body,
	})
	if err != nil {
		t.Fatalf("message: %v", err)
	}

	for _, id := range []uuid.UUID{bob, carol} {
		msgs := conns.framesOfType(id, events.TypeChatMessage)
		if len(msgs) != 1 {
			t.Fatalf("recipient %s messages: got %d, want 1", id, len(msgs))
		}

		var ev events.ChatMessageEvent
		if err := json.Unmarshal(msgs[0].Data, &ev); err != nil {
			t.Fatalf("unmarshal message: %v", err)
		}
		if string(ev.Body) != string(body) {
			t.Fatalf("body: got %s, want %s", ev.Body, body)
		}
	}

	if got := conns.framesOfType(alice, events.TypeChatMessage); len(got) != 0 {
		t.Fatalf("message echoed to sender: %d frames", len(got))
	}
}

func TestChat_JoinBroadcastsParticipantList(t *testing.T) {
	ctx := context.Background()
	chat, _, conns := newChatFixture()

	conversationID := uuid.NewString()
	alice := uuid.New()
	bob := uuid.New()

	chat.HandleJoin(ctx, alice, events.ChatJoinEvent{ConversationID: conversationID})
	chat.HandleJoin(ctx, bob, events.ChatJoinEvent{ConversationID: conversationID})

	lists := conns.framesOfType(alice, events.TypeParticipants)
	if len(lists) != 2 {
		t.Fatalf("alice participant frames: got %d, want 2", len(lists))
	}

	var last events.ParticipantListEvent
	if err := json.Unmarshal(lists[len(lists)-1].Data, &last); err != nil {
		t.Fatalf("unmarshal participants: %v", err)
	}
	if len(last.List) != 2 {
		t.Fatalf("participant list: got %d entries, want 2", len(last.List))
	}
}

func TestChat_LeaveNotifiesRemaining(t *testing.T) {
	ctx := context.Background()
	chat, registry, conns := newChatFixture()

	conversationID := uuid.NewString()
	alice := uuid.New()
	bob := uuid.New()

	chat.HandleJoin(ctx, alice, events.ChatJoinEvent{ConversationID: conversationID})
	chat.HandleJoin(ctx, bob, events.ChatJoinEvent{ConversationID: conversationID})

	chat.HandleDisconnect(ctx, alice)

	if registry.RoomCount() != 1 {
		t.Fatalf("room count: got %d, want 1", registry.RoomCount())
	}

	lists := conns.framesOfType(bob, events.TypeParticipants)
	if len(lists) == 0 {
		t.Fatal("bob never saw a participant update")
	}

	var last events.ParticipantListEvent
	if err := json.Unmarshal(lists[len(lists)-1].Data, &last); err != nil {
		t.Fatalf("unmarshal participants: %v", err)
	}
	if len(last.List) != 1 || last.List[0] != bob.String() {
		t.Fatalf("participant list after leave: got %v, want [%s]", last.List, bob)
	}

	chat.HandleDisconnect(ctx, bob)
	if registry.RoomCount() != 0 {
		t.Fatalf("room count after last leave: got %d, want 0", registry.RoomCount())
	}
}

func TestChat_NonMemberCannotSend(t *testing.T) {
	ctx := context.Background()
	chat, _, conns := newChatFixture()

	conversationID := uuid.NewString()
	alice := uuid.New()
	outsider := uuid.New()

	chat.HandleJoin(ctx, alice, events.ChatJoinEvent{ConversationID: conversationID})

	err := chat.HandleMessage(ctx, outsider, events.ChatMessageEvent{
		ConversationID: conversationID,
		Body:           json.RawMessage(`{"text":"hi"}`),
	})
	if err != nil {
		t.Fatalf("message: %v", err)
	}

	assertErrorEvent(t, conns, outsider, events.ReasonStaleRoom)

	if got := conns.framesOfType(alice, events.TypeChatMessage); len(got) != 0 {
		t.Fatalf("message from non-member delivered: %d frames", len(got))
	}
}

func TestChat_EmptyBodyRejected(t *testing.T) {
	ctx := context.Background()
	chat, _, conns := newChatFixture()

	conversationID := uuid.NewString()
	alice := uuid.New()
	chat.HandleJoin(ctx, alice, events.ChatJoinEvent{ConversationID: conversationID})

	if err := chat.HandleMessage(ctx, alice, events.ChatMessageEvent{ConversationID: conversationID}); err != nil {
		t.Fatalf("message: %v", err)
	}

	assertErrorEvent(t, conns, alice, events.ReasonMalformedSignal)
}
