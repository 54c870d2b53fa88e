package negotiator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
)

// State of the negotiation, per participant per room.
type State int

const (
	StateIdle State = iota
	StateAwaitingPeer
	StateOffering
	StateAnswering
	StateConnected
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingPeer:
		return "awaiting_peer"
	case StateOffering:
		return "offering"
	case StateAnswering:
		return "answering"
	case StateConnected:
		return "connected"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

var (
	// ErrMediaAcquisition means local media could not be prepared. Terminal.
	ErrMediaAcquisition = errors.New("media acquisition failed")

	// ErrNegotiationFailed means the transport failed and the single retry
	// was already spent.
	ErrNegotiationFailed = errors.New("negotiation failed")

	errEnded = errors.New("session already ended")
)

// Negotiator drives the offer/answer/ICE exchange for one call, using the
// relay purely as transport. Both endpoints run the same machine; arrival
// order decides who initiates (the side that receives peer_connected).
//
// Candidates that arrive before the remote description is set are buffered
// and applied once it lands, never dropped. A fresh offer in any state past
// AwaitingPeer is a renegotiation: last offer wins.
type Negotiator struct {
	signaler Signaler
	peer     Peer

	mu     sync.Mutex
	state  State
	roomID string

	remoteSet bool
	pending   []webrtc.ICECandidateInit

	lastLocal    []byte
	lastLocalTyp string
	retried      bool

	// onEnded, when set, observes the terminal transition exactly once.
	onEnded func(error)
}

func New(signaler Signaler, peer Peer) *Negotiator {
	return &Negotiator{
		signaler: signaler,
		peer:     peer,
		state:    StateIdle,
	}
}

// OnEnded registers a callback fired on the transition to Ended. The callback
// runs with the negotiator unlocked and may call back into it.
func (n *Negotiator) OnEnded(fn func(error)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onEnded = fn
}

func (n *Negotiator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Join acquires local media and enters the room.
func (n *Negotiator) Join(roomID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state != StateIdle {
		return fmt.Errorf("join from state %s", n.state)
	}

	if err := n.peer.AcquireMedia(); err != nil {
		n.endLocked(ErrMediaAcquisition)
		return fmt.Errorf("%w: %v", ErrMediaAcquisition, err)
	}

	if err := n.signaler.SendJoin(roomID); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	n.roomID = roomID
	n.state = StateAwaitingPeer

	return nil
}

// OnPeerConnected makes this side the initiator.
func (n *Negotiator) OnPeerConnected() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state != StateAwaitingPeer {
		return nil
	}

	offer, err := n.peer.CreateOffer()
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}

	n.lastLocal = offer
	n.lastLocalTyp = "offer"

	if err := n.signaler.SendOffer(offer); err != nil {
		return n.retryOrEndLocked(err)
	}

	n.state = StateOffering

	return nil
}

// OnOffer handles the remote description. Received while AwaitingPeer it is
// the normal answering path; received later it restarts negotiation with the
// fresh description (glare resolved as last-offer-wins, no rollback).
func (n *Negotiator) OnOffer(description []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case StateIdle, StateEnded:
		return errEnded
	}

	if err := n.setRemoteLocked(description); err != nil {
		return err
	}

	answer, err := n.peer.CreateAnswer()
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}

	n.lastLocal = answer
	n.lastLocalTyp = "answer"

	if err := n.signaler.SendAnswer(answer); err != nil {
		return n.retryOrEndLocked(err)
	}

	n.state = StateAnswering

	return nil
}

// OnAnswer completes the initiator's half of the exchange.
func (n *Negotiator) OnAnswer(description []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state != StateOffering {
		return nil
	}

	return n.setRemoteLocked(description)
}

// OnCandidate applies the candidate, or buffers it until the remote
// description permits application.
func (n *Negotiator) OnCandidate(candidate webrtc.ICECandidateInit) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == StateEnded {
		return errEnded
	}

	if !n.remoteSet {
		n.pending = append(n.pending, candidate)
		return nil
	}

	return n.peer.AddICECandidate(candidate)
}

// OnTransportConnected is called when the media path reports usable.
func (n *Negotiator) OnTransportConnected() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == StateOffering || n.state == StateAnswering {
		n.state = StateConnected
	}
}

// OnTransportFailure re-sends the last locally generated description once;
// a second failure ends the session with an error.
func (n *Negotiator) OnTransportFailure() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state != StateOffering && n.state != StateAnswering {
		return nil
	}

	return n.retryOrEndLocked(errors.New("transport failure"))
}

// OnPeerDisconnected tears the session down. The peer is already gone, but
// our own registry slot is not: the leave frame releases it so the room is
// destroyed server-side.
func (n *Negotiator) OnPeerDisconnected() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == StateEnded {
		return
	}

	if n.roomID != "" {
		_ = n.signaler.SendLeave(n.roomID)
	}

	n.endLocked(nil)
}

// HangUp is the explicit local end of the call.
func (n *Negotiator) HangUp() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == StateEnded {
		return nil
	}

	err := n.signaler.SendLeave(n.roomID)
	n.endLocked(nil)

	return err
}

func (n *Negotiator) setRemoteLocked(description []byte) error {
	if err := n.peer.SetRemoteDescription(description); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}

	n.remoteSet = true

	for _, candidate := range n.pending {
		if err := n.peer.AddICECandidate(candidate); err != nil {
			return fmt.Errorf("apply buffered candidate: %w", err)
		}
	}
	n.pending = nil

	return nil
}

func (n *Negotiator) retryOrEndLocked(cause error) error {
	if n.retried || len(n.lastLocal) == 0 {
		n.endLocked(fmt.Errorf("%w: %v", ErrNegotiationFailed, cause))
		return ErrNegotiationFailed
	}

	n.retried = true

	var err error
	if n.lastLocalTyp == "answer" {
		err = n.signaler.SendAnswer(n.lastLocal)
	} else {
		err = n.signaler.SendOffer(n.lastLocal)
	}

	if err != nil {
		n.endLocked(fmt.Errorf("%w: %v", ErrNegotiationFailed, err))
		return ErrNegotiationFailed
	}

	if n.lastLocalTyp == "answer" {
		n.state = StateAnswering
	} else {
		n.state = StateOffering
	}

	return nil
}

func (n *Negotiator) endLocked(cause error) {
	if n.state == StateEnded {
		return
	}

	n.state = StateEnded
	n.pending = nil
	_ = n.peer.Close()

	if n.onEnded != nil {
		fn := n.onEnded

		// The state is terminal at this point, so the lock can be dropped
		// while the callback runs and it may call back into the negotiator.
		n.mu.Unlock()
		fn(cause)
		n.mu.Lock()
	}
}
