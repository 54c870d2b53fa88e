package events

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
)

// Message is the envelope for every frame on both relay sockets.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event types, client to server.
const (
	TypeJoin         = "join"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeIceCandidate = "ice_candidate"
	TypeLeave        = "leave"
	TypeChatMessage  = "message"
)

// Event types, server to client.
const (
	TypePeerConnected    = "peer_connected"
	TypePeerDisconnected = "peer_disconnected"
	TypeParticipants     = "participants"
	TypeError            = "error"
)

// Error reasons carried in ErrorEvent.
const (
	ReasonRoomFull        = "room_full"
	ReasonNotConfirmed    = "not_confirmed"
	ReasonNotParticipant  = "not_participant"
	ReasonStaleRoom       = "stale_room"
	ReasonMalformedSignal = "malformed_signal"
)

// JoinEvent enters a call room. The room id is the appointment id.
type JoinEvent struct {
	RoomID string `json:"room_id"`
}

// SdpEvent carries an offer or answer. The description is opaque to the
// relay; it is forwarded verbatim to the one other member of the room.
type SdpEvent struct {
	RoomID      string          `json:"room_id,omitempty"`
	Description json.RawMessage `json:"description"`
}

// IceCandidateEvent carries a discovered network candidate.
type IceCandidateEvent struct {
	RoomID    string                  `json:"room_id,omitempty"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

// LeaveEvent is an explicit hang-up.
type LeaveEvent struct {
	RoomID string `json:"room_id"`
}

// PeerConnectedEvent tells the waiting member a second party arrived. The
// receiver becomes the call initiator.
type PeerConnectedEvent struct {
	ParticipantID uuid.UUID `json:"participant_id"`
}

// ErrorEvent is returned to the originating participant only.
type ErrorEvent struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// ChatJoinEvent enters a conversation room on the chat relay.
type ChatJoinEvent struct {
	ConversationID string `json:"conversation_id"`
}

// ChatMessageEvent carries an opaque chat payload.
type ChatMessageEvent struct {
	ConversationID string          `json:"conversation_id,omitempty"`
	Body           json.RawMessage `json:"body"`
}

// ParticipantListEvent lists the live members of a conversation.
type ParticipantListEvent struct {
	List []string `json:"list"`
}
