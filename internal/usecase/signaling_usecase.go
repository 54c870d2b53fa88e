package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medlink/teleconsult/internal/application/constant"
	"github.com/medlink/teleconsult/internal/application/metric"
	"github.com/medlink/teleconsult/internal/domain/events"
	"github.com/medlink/teleconsult/internal/domain/models"
	"github.com/medlink/teleconsult/internal/infra/adapters/memory"
	"github.com/medlink/teleconsult/internal/infra/adapters/postgres/repository"
)

// CallRoomCapacity is fixed at 2: the domain is one-to-one consultation, so
// routing is always "send to the one other member".
const CallRoomCapacity = 2

// SignalingUsecase is the call room relay. It owns no signal content: offers,
// answers and candidates are forwarded verbatim to the single other member of
// the room. The appointment gate runs on every join, never cached.
type SignalingUsecase interface {
	HandleJoin(ctx context.Context, userID uuid.UUID, join events.JoinEvent) error
	HandleOffer(ctx context.Context, userID uuid.UUID, offer events.SdpEvent) error
	HandleAnswer(ctx context.Context, userID uuid.UUID, answer events.SdpEvent) error
	HandleCandidate(ctx context.Context, userID uuid.UUID, candidate events.IceCandidateEvent) error
	HandleLeave(ctx context.Context, userID uuid.UUID, leave events.LeaveEvent) error

	// HandleDisconnect runs the same cleanup as an explicit leave for every
	// room the participant is in. It must run even when the disconnect was
	// caused by an error.
	HandleDisconnect(ctx context.Context, userID uuid.UUID)
}

type signalingUsecase struct {
	appointmentRepo repository.AppointmentRepository

	registry memory.SessionRegistry
	wsRepo   memory.WebsocketConnectionRepository

	// negotiationTimeout evicts every member of a room that has not relayed
	// an answer within the window. Zero disables eviction.
	negotiationTimeout time.Duration

	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

func NewSignalingUsecase(
	appointmentRepo repository.AppointmentRepository,
	registry memory.SessionRegistry,
	wsRepo memory.WebsocketConnectionRepository,
	negotiationTimeout time.Duration,
) SignalingUsecase {
	return &signalingUsecase{
		appointmentRepo:    appointmentRepo,
		registry:           registry,
		wsRepo:             wsRepo,
		negotiationTimeout: negotiationTimeout,
		timers:             make(map[string]*time.Timer),
	}
}

func (s *signalingUsecase) HandleJoin(ctx context.Context, userID uuid.UUID, join events.JoinEvent) error {
	if join.RoomID == "" {
		s.sendError(userID, events.ReasonMalformedSignal, "room_id is required")
		return nil
	}

	appointmentID, err := uuid.Parse(join.RoomID)
	if err != nil {
		s.sendError(userID, events.ReasonMalformedSignal, "invalid room_id")
		return nil
	}

	// Gate first: the registry is never consulted for a denied join.
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		slog.Error("get appointment", slog.Any(constant.Error, err), slog.Any(constant.RoomID, join.RoomID))
		s.sendError(userID, events.ReasonStaleRoom, "appointment not found")
		return nil
	}

	if err := appointment.CanJoin(userID); err != nil {
		reason := reasonForGateError(err)
		metric.JoinRejected(reason)
		s.sendError(userID, reason, gateDenialMessage(err))
		return nil
	}

	result, members := s.registry.Join(join.RoomID, userID)

	switch result {
	case memory.JoinRejectedFull:
		metric.JoinRejected(events.ReasonRoomFull)
		s.sendError(userID, events.ReasonRoomFull, "room is full")
		return nil

	case memory.JoinRejectedDuplicate:
		// Idempotent: no membership change, no second peer_connected.
		return nil
	}

	slog.Info("participant joined room",
		slog.Any(constant.UserID, userID),
		slog.Any(constant.RoomID, join.RoomID),
	)

	if len(members) == 1 {
		s.armNegotiationTimer(join.RoomID)
	}

	// The existing member learns a peer arrived and becomes the initiator.
	for _, peerID := range members {
		if peerID == userID {
			continue
		}
		s.sendEvent(peerID, events.TypePeerConnected, events.PeerConnectedEvent{ParticipantID: userID})
	}

	metric.SetCallRoomsActive(s.registry.RoomCount())

	return nil
}

func (s *signalingUsecase) HandleOffer(ctx context.Context, userID uuid.UUID, offer events.SdpEvent) error {
	if len(offer.Description) == 0 {
		s.sendError(userID, events.ReasonMalformedSignal, "description is required")
		return nil
	}

	s.relay(userID, offer.RoomID, events.TypeOffer, events.SdpEvent{Description: offer.Description})

	return nil
}

func (s *signalingUsecase) HandleAnswer(ctx context.Context, userID uuid.UUID, answer events.SdpEvent) error {
	if len(answer.Description) == 0 {
		s.sendError(userID, events.ReasonMalformedSignal, "description is required")
		return nil
	}

	// A delivered answer is the closest server-observable sign the room is
	// past negotiation; the eviction timer is disarmed for good. An answer
	// that reached nobody must not defuse eviction.
	if s.relay(userID, answer.RoomID, events.TypeAnswer, events.SdpEvent{Description: answer.Description}) {
		s.disarmNegotiationTimer(answer.RoomID)
	}

	return nil
}

func (s *signalingUsecase) HandleCandidate(ctx context.Context, userID uuid.UUID, candidate events.IceCandidateEvent) error {
	s.relay(userID, candidate.RoomID, events.TypeIceCandidate, events.IceCandidateEvent{Candidate: candidate.Candidate})

	return nil
}

func (s *signalingUsecase) HandleLeave(ctx context.Context, userID uuid.UUID, leave events.LeaveEvent) error {
	s.leaveRoom(userID, leave.RoomID)
	return nil
}

func (s *signalingUsecase) HandleDisconnect(ctx context.Context, userID uuid.UUID) {
	// At most one room for a call participant, but the registry is the
	// authority on membership.
	for _, roomID := range s.registry.RoomsOf(userID) {
		s.leaveRoom(userID, roomID)
	}
}

// relay forwards a signal to the one other current member of the room and
// reports whether anyone received it. With no peer present the message is
// dropped: the sender is expected to send only after peer_connected, so a
// missing peer means it already left.
func (s *signalingUsecase) relay(userID uuid.UUID, roomID string, eventType string, payload any) bool {
	if roomID == "" {
		s.sendError(userID, events.ReasonMalformedSignal, "room_id is required")
		return false
	}

	if !s.isMember(userID, roomID) {
		s.sendError(userID, events.ReasonStaleRoom, "not a member of this room")
		return false
	}

	delivered := false
	for _, peerID := range s.registry.PeersOf(roomID, userID) {
		s.sendEvent(peerID, eventType, payload)
		metric.SignalRelayed(eventType)
		delivered = true
	}

	return delivered
}

func (s *signalingUsecase) leaveRoom(userID uuid.UUID, roomID string) {
	if roomID == "" {
		return
	}

	// Remove before notifying so no routed message can still reach the
	// leaving participant.
	if !s.registry.Leave(roomID, userID) {
		return
	}

	slog.Info("participant left room",
		slog.Any(constant.UserID, userID),
		slog.Any(constant.RoomID, roomID),
	)

	peers := s.registry.PeersOf(roomID, userID)
	for _, peerID := range peers {
		s.sendEvent(peerID, events.TypePeerDisconnected, struct{}{})
	}

	if len(peers) == 0 {
		s.disarmNegotiationTimer(roomID)
	}

	metric.SetCallRoomsActive(s.registry.RoomCount())
}

func (s *signalingUsecase) isMember(userID uuid.UUID, roomID string) bool {
	for _, id := range s.registry.RoomsOf(userID) {
		if id == roomID {
			return true
		}
	}

	return false
}

func (s *signalingUsecase) armNegotiationTimer(roomID string) {
	if s.negotiationTimeout <= 0 {
		return
	}

	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	if _, ok := s.timers[roomID]; ok {
		return
	}

	s.timers[roomID] = time.AfterFunc(s.negotiationTimeout, func() {
		s.evictStalledRoom(roomID)
	})
}

func (s *signalingUsecase) disarmNegotiationTimer(roomID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	if timer, ok := s.timers[roomID]; ok {
		timer.Stop()
		delete(s.timers, roomID)
	}
}

func (s *signalingUsecase) evictStalledRoom(roomID string) {
	s.timersMu.Lock()
	delete(s.timers, roomID)
	s.timersMu.Unlock()

	members := s.registry.PeersOf(roomID, uuid.Nil)
	if len(members) == 0 {
		return
	}

	slog.Warn("evicting room: negotiation never completed", slog.Any(constant.RoomID, roomID))

	for _, memberID := range members {
		s.leaveRoom(memberID, roomID)
	}
}

func (s *signalingUsecase) sendEvent(userID uuid.UUID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal event", slog.Any(constant.Error, err))
		return
	}

	s.wsRepo.Write(userID, events.Message{Type: eventType, Data: data})
}

func (s *signalingUsecase) sendError(userID uuid.UUID, reason, message string) {
	s.sendEvent(userID, events.TypeError, events.ErrorEvent{Reason: reason, Message: message})
}

func reasonForGateError(err error) string {
	switch err {
	case models.ErrNotParticipant:
		return events.ReasonNotParticipant
	default:
		return events.ReasonNotConfirmed
	}
}

func gateDenialMessage(err error) string {
	switch err {
	case models.ErrNotParticipant:
		return "not your appointment"
	case models.ErrNotConfirmed:
		return "appointment not yet confirmed"
	default:
		return fmt.Sprintf("join denied: %v", err)
	}
}
