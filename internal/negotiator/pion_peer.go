package negotiator

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// PionPeer implements Peer on a pion PeerConnection. Descriptions cross the
// port as marshalled SessionDescription JSON, which is also exactly what the
// relay forwards.
type PionPeer struct {
	pc *webrtc.PeerConnection
}

func NewPionPeer(iceServers []webrtc.ICEServer) (*PionPeer, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}

	return &PionPeer{pc: pc}, nil
}

// Bind wires ICE gathering and transport state into the negotiator.
func (p *PionPeer) Bind(n *Negotiator, signaler Signaler) {
	p.pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		_ = signaler.SendCandidate(c.ToJSON())
	})

	p.pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		switch state {
		case webrtc.PeerConnectionStateConnected:
			n.OnTransportConnected()
		case webrtc.PeerConnectionStateFailed:
			_ = n.OnTransportFailure()
		default:
		}
	})
}

func (p *PionPeer) AcquireMedia() error {
	if _, err := p.pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio); err != nil {
		return fmt.Errorf("add audio transceiver: %w", err)
	}

	if _, err := p.pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo); err != nil {
		return fmt.Errorf("add video transceiver: %w", err)
	}

	return nil
}

func (p *PionPeer) CreateOffer() ([]byte, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}

	if err := p.pc.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}

	return json.Marshal(offer)
}

func (p *PionPeer) CreateAnswer() ([]byte, error) {
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}

	if err := p.pc.SetLocalDescription(answer); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}

	return json.Marshal(answer)
}

func (p *PionPeer) SetRemoteDescription(description []byte) error {
	var sd webrtc.SessionDescription
	if err := json.Unmarshal(description, &sd); err != nil {
		return fmt.Errorf("unmarshal description: %w", err)
	}

	return p.pc.SetRemoteDescription(sd)
}

func (p *PionPeer) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	return p.pc.AddICECandidate(candidate)
}

func (p *PionPeer) Close() error {
	return p.pc.Close()
}
