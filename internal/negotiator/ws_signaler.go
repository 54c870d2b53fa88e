package negotiator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"

	"github.com/medlink/teleconsult/internal/application/constant"
	"github.com/medlink/teleconsult/internal/domain/events"
)

// WSSignaler implements Signaler over the relay's websocket endpoint.
type WSSignaler struct {
	conn *websocket.Conn

	mu   sync.Mutex
	room string
}

// DialSignaler connects to the relay. The JWT cookie header is the same one
// the browser client carries.
func DialSignaler(ctx context.Context, url string, header http.Header) (*WSSignaler, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial signaling relay: %w", err)
	}

	return &WSSignaler{conn: conn}, nil
}

func (s *WSSignaler) SendJoin(roomID string) error {
	s.mu.Lock()
	s.room = roomID
	s.mu.Unlock()

	return s.send(events.TypeJoin, events.JoinEvent{RoomID: roomID})
}

func (s *WSSignaler) SendOffer(description []byte) error {
	return s.send(events.TypeOffer, events.SdpEvent{RoomID: s.roomID(), Description: description})
}

func (s *WSSignaler) SendAnswer(description []byte) error {
	return s.send(events.TypeAnswer, events.SdpEvent{RoomID: s.roomID(), Description: description})
}

func (s *WSSignaler) SendCandidate(candidate webrtc.ICECandidateInit) error {
	return s.send(events.TypeIceCandidate, events.IceCandidateEvent{RoomID: s.roomID(), Candidate: candidate})
}

func (s *WSSignaler) SendLeave(roomID string) error {
	return s.send(events.TypeLeave, events.LeaveEvent{RoomID: roomID})
}

func (s *WSSignaler) Close() error {
	return s.conn.Close()
}

// Run reads relay frames and dispatches them into the negotiator until the
// socket closes or the context ends.
func (s *WSSignaler) Run(ctx context.Context, n *Negotiator) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var msg events.Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			n.OnPeerDisconnected()
			return fmt.Errorf("read signaling frame: %w", err)
		}

		if err := s.dispatch(&msg, n); err != nil {
			slog.Error("handle signaling frame", slog.String("type", msg.Type), slog.Any(constant.Error, err))
		}
	}
}

func (s *WSSignaler) dispatch(msg *events.Message, n *Negotiator) error {
	switch msg.Type {
	case events.TypePeerConnected:
		return n.OnPeerConnected()

	case events.TypeOffer:
		var sdp events.SdpEvent
		if err := json.Unmarshal(msg.Data, &sdp); err != nil {
			return fmt.Errorf("unmarshal offer: %w", err)
		}
		return n.OnOffer(sdp.Description)

	case events.TypeAnswer:
		var sdp events.SdpEvent
		if err := json.Unmarshal(msg.Data, &sdp); err != nil {
			return fmt.Errorf("unmarshal answer: %w", err)
		}
		return n.OnAnswer(sdp.Description)

	case events.TypeIceCandidate:
		var ice events.IceCandidateEvent
		if err := json.Unmarshal(msg.Data, &ice); err != nil {
			return fmt.Errorf("unmarshal candidate: %w", err)
		}
		return n.OnCandidate(ice.Candidate)

	case events.TypePeerDisconnected:
		n.OnPeerDisconnected()
		return nil

	case events.TypeError:
		var ev events.ErrorEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return fmt.Errorf("unmarshal error event: %w", err)
		}
		slog.Warn("relay error", slog.String("reason", ev.Reason), slog.String("message", ev.Message))
		return nil

	default:
		return fmt.Errorf("unknown frame type %q", msg.Type)
	}
}

func (s *WSSignaler) send(eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conn.WriteJSON(events.Message{Type: eventType, Data: data})
}

func (s *WSSignaler) roomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}
