package negotiator

import "github.com/pion/webrtc/v4"

// Signaler is the outbound half of the relay transport.
type Signaler interface {
	SendJoin(roomID string) error
	SendOffer(description []byte) error
	SendAnswer(description []byte) error
	SendCandidate(candidate webrtc.ICECandidateInit) error
	SendLeave(roomID string) error
	Close() error
}

// Peer abstracts the local media engine.
type Peer interface {
	// AcquireMedia prepares local media capability. Failure is terminal for
	// the session; there is no retry.
	AcquireMedia() error

	CreateOffer() ([]byte, error)
	CreateAnswer() ([]byte, error)
	SetRemoteDescription(description []byte) error
	AddICECandidate(candidate webrtc.ICECandidateInit) error
	Close() error
}
